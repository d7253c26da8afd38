package detector

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/patterns"
	"github.com/mikey/awb-scanner/internal/utils"
	"go.uber.org/zap"
)

var (
	separatorRe  = regexp.MustCompile(`[\s-]+`)
	validationRe = regexp.MustCompile(`[-\s/]`)
)

const (
	// standard IATA air waybill length: 3-digit airline prefix plus
	// 8-digit serial
	awbCodeLength = 11
	awbPrefixLen  = 3

	contextWindow = 50
)

// Extractor runs the compiled carrier patterns over message text and turns
// raw hits into validated, scored reference matches. It implements
// core.ReferenceFinder.
type Extractor struct {
	registry  *patterns.Registry
	processor *utils.TextProcessor
	scorer    *Scorer
	resolver  *Resolver
	logger    *zap.Logger
}

// NewExtractor creates a new extractor over a compiled pattern registry
func NewExtractor(
	registry *patterns.Registry,
	processor *utils.TextProcessor,
	scorer *Scorer,
	resolver *Resolver,
	logger *zap.Logger,
) *Extractor {
	return &Extractor{
		registry:  registry,
		processor: processor,
		scorer:    scorer,
		resolver:  resolver,
		logger:    logger,
	}
}

// Extract scans one piece of text line by line and returns every raw
// pattern hit that survives carrier validation. Rejected candidates are
// logged and dropped, never surfaced.
func (e *Extractor) Extract(text string, location core.Location) []core.RawMatch {
	if text == "" {
		return nil
	}

	clean := e.processor.Normalize(text)
	var matches []core.RawMatch

	lineStart := 0
	for lineNo, line := range strings.Split(clean, "\n") {
		for _, carrier := range e.registry.Carriers() {
			rule, ok := e.registry.Rule(carrier)
			if !ok {
				continue
			}

			for _, re := range e.registry.CompiledPatterns(carrier) {
				for _, idx := range re.FindAllStringSubmatchIndex(line, -1) {
					raw := line[idx[0]:idx[1]]
					group := ""
					if len(idx) > 3 && idx[2] >= 0 {
						group = line[idx[2]:idx[3]]
					}

					code := normalizeCode(raw, group, rule)
					if !validateCode(code, rule) {
						e.logger.Debug("Rejected candidate",
							zap.String("carrier", carrier),
							zap.String("candidate", code))
						continue
					}

					pos := lineStart + idx[0]
					matches = append(matches, core.RawMatch{
						Text:       raw,
						Code:       code,
						Carrier:    carrier,
						LineNumber: lineNo + 1,
						Offset:     idx[0],
						LineText:   line,
						Location:   location,
						Context:    matchContext(clean, line, pos, lineNo+1),
					})
				}
			}
		}
		lineStart += len(line) + 1
	}

	return matches
}

// FindAll detects every reference in a message. Subject and body are
// scanned concurrently, merged subject-first so the outcome does not
// depend on which finished first, then scored, deduplicated and ranked.
func (e *Extractor) FindAll(ctx context.Context, msg *core.Message) []core.ReferenceMatch {
	var (
		wg         sync.WaitGroup
		subjectRaw []core.RawMatch
		bodyRaw    []core.RawMatch
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		subjectRaw = e.Extract(msg.Subject, core.LocationSubject)
	}()
	go func() {
		defer wg.Done()
		bodyRaw = e.Extract(msg.Body, core.LocationBody)
	}()
	wg.Wait()

	raw := make([]core.RawMatch, 0, len(subjectRaw)+len(bodyRaw))
	raw = append(raw, subjectRaw...)
	raw = append(raw, bodyRaw...)

	var matches []core.ReferenceMatch
	for _, rm := range raw {
		if ctx.Err() != nil {
			break
		}

		rule, ok := e.registry.Rule(rm.Carrier)
		if !ok {
			continue
		}

		// Prefer a clean fuzzy-resolved surface form over the raw hit;
		// its ratio also replaces the base confidence when present.
		matchText, confidence := e.resolver.BestMatch(rm.Code, []string{rm.Text}, rule.MinConfidence)
		if matchText == "" {
			matchText = rm.Text
			confidence = e.scorer.Score(rm.Text, rm.LineText)
		}

		if confidence < rule.MinConfidence {
			e.logger.Debug("Dropped low-confidence match",
				zap.String("carrier", rm.Carrier),
				zap.String("code", rm.Code),
				zap.Float64("confidence", confidence))
			continue
		}

		matches = append(matches, core.ReferenceMatch{
			Code:       rm.Code,
			Carrier:    rm.Carrier,
			Confidence: confidence,
			MatchText:  matchText,
			Context:    rm.Context,
			Location:   rm.Location,
		})
	}

	matches = core.Dedupe(matches)
	core.SortByConfidence(matches)
	return matches
}

// normalizeCode derives the canonical code from a raw pattern hit. A rule
// whose pattern captured a group narrows the candidate to the group, so
// keyword-anchored patterns do not drag their keyword into the code. The
// candidate then has its separators stripped, and standard-length AWB
// codes are rewritten to the PPP-NNNNNNNN form.
func normalizeCode(raw, group string, rule patterns.Rule) string {
	candidate := raw
	if group != "" {
		candidate = group
	}

	stripped := separatorRe.ReplaceAllString(candidate, "")
	if rule.Length == awbCodeLength && len(stripped) >= awbCodeLength {
		return stripped[:awbPrefixLen] + "-" + stripped[awbPrefixLen:awbCodeLength]
	}
	return stripped
}

// validateCode checks a normalized code against the carrier's length and
// prefix constraints.
func validateCode(code string, rule patterns.Rule) bool {
	if code == "" {
		return false
	}

	clean := validationRe.ReplaceAllString(code, "")
	if len(clean) != rule.Length {
		return false
	}

	if len(rule.Prefix) == 0 {
		return true
	}
	for _, prefix := range rule.Prefix {
		if strings.HasPrefix(clean, prefix) {
			return true
		}
	}
	return false
}

// matchContext cuts a character window around the match position in the
// normalized text.
func matchContext(text, line string, pos, lineNo int) core.MatchContext {
	start := pos - contextWindow
	if start < 0 {
		start = 0
	}
	end := pos + contextWindow
	if end > len(text) {
		end = len(text)
	}

	return core.MatchContext{
		Before:     text[start:pos],
		Current:    line,
		After:      text[pos:end],
		LineNumber: lineNo,
		Position:   pos,
	}
}
