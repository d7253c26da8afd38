package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"

	"go.uber.org/zap"
)

// Prefixes is the set of acceptable code prefixes for a rule. The pattern
// file may spell it as a single string, a list of strings, or omit it.
type Prefixes []string

// UnmarshalJSON accepts both the string and the list form
func (p *Prefixes) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*p = nil
		} else {
			*p = Prefixes{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("prefix must be a string or a list of strings: %w", err)
	}
	*p = list
	return nil
}

// Rule describes the format constraints for one carrier's reference codes
type Rule struct {
	Code          string   `json:"-"`
	Patterns      []string `json:"patterns"`
	Prefix        Prefixes `json:"prefix"`
	Length        int      `json:"length"`
	MinConfidence float64  `json:"min_confidence"`
	Enabled       bool     `json:"enabled"`
}

// patternFile mirrors the on-disk definition document
type patternFile struct {
	Patterns map[string]Rule `json:"patterns"`
}

const defaultMinConfidence = 0.7

// Registry holds the carrier rules and their compiled patterns. It is
// immutable after Load and safe to share across scan workers without
// locking.
type Registry struct {
	rules    map[string]Rule
	compiled map[string][]*regexp.Regexp
	carriers []string
	logger   *zap.Logger
}

// Load reads the pattern definition file and compiles the enabled rules.
// A missing or malformed file degrades to an empty registry so scanning
// still runs, just with zero matches.
func Load(path string, logger *zap.Logger) *Registry {
	r := &Registry{
		rules:    make(map[string]Rule),
		compiled: make(map[string][]*regexp.Regexp),
		logger:   logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read pattern definitions, continuing with empty registry",
			zap.String("path", path),
			zap.Error(err))
		return r
	}

	var file patternFile
	if err := json.Unmarshal(data, &file); err != nil {
		logger.Error("Failed to parse pattern definitions, continuing with empty registry",
			zap.String("path", path),
			zap.Error(err))
		return r
	}

	for code, rule := range file.Patterns {
		rule.Code = code
		if rule.MinConfidence <= 0 {
			rule.MinConfidence = defaultMinConfidence
		}
		if rule.Length <= 0 {
			logger.Warn("Skipping rule with invalid length",
				zap.String("carrier", code),
				zap.Int("length", rule.Length))
			continue
		}
		r.rules[code] = rule
	}

	r.compile()

	logger.Info("Loaded pattern registry",
		zap.String("path", path),
		zap.Int("rules", len(r.rules)),
		zap.Int("enabled", len(r.compiled)))

	return r
}

// compile builds the case-insensitive pattern list for every enabled rule.
// A pattern that fails to compile is dropped on its own; the rule keeps its
// remaining patterns.
func (r *Registry) compile() {
	for code, rule := range r.rules {
		if !rule.Enabled {
			continue
		}

		var compiled []*regexp.Regexp
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				r.logger.Warn("Skipping invalid pattern",
					zap.String("carrier", code),
					zap.String("pattern", pattern),
					zap.Error(err))
				continue
			}
			compiled = append(compiled, re)
		}

		if len(compiled) > 0 {
			r.compiled[code] = compiled
			r.carriers = append(r.carriers, code)
		}
	}

	// Deterministic carrier order keeps first-seen dedup reproducible.
	sort.Strings(r.carriers)
}

// Rule returns the rule for a carrier code
func (r *Registry) Rule(code string) (Rule, bool) {
	rule, ok := r.rules[code]
	return rule, ok
}

// Carriers returns the enabled carrier codes in a fixed order
func (r *Registry) Carriers() []string {
	return r.carriers
}

// CompiledPatterns returns the compiled pattern list for a carrier
func (r *Registry) CompiledPatterns(code string) []*regexp.Regexp {
	return r.compiled[code]
}

// Len reports how many rules were loaded, enabled or not
func (r *Registry) Len() int {
	return len(r.rules)
}
