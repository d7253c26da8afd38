package grok

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/utils"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// GrokAnalyzer is an implementation of the TextAnalyzer interface backed
// by the x.ai API, which speaks the OpenAI-compatible chat protocol.
type GrokAnalyzer struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// analysisResponse represents the structured response from the model
type analysisResponse struct {
	AWBNumbers []string `json:"awb_numbers"`
	Confidence float64  `json:"confidence"`
	Context    string   `json:"context"`
}

// NewGrokAnalyzer creates a new Grok analyzer
func NewGrokAnalyzer(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *GrokAnalyzer {
	return &GrokAnalyzer{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat:  analysisPrompt,
	}
}

const analysisPrompt = `You are a logistics assistant. Extract air waybill (AWB) numbers and other shipment reference codes from the email below.
Respond with a JSON object containing:
- awb_numbers: array of AWB numbers found (e.g. ["235-12345678", "772238490728"])
- confidence: number between 0 and 1 (how confident you are in the extracted numbers)
- context: the sentence or paragraph where the references appear

Email:
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// AnalyzeMessage asks the model for candidate reference codes
func (a *GrokAnalyzer) AnalyzeMessage(ctx context.Context, msg *core.Message) (*core.AnalysisResult, error) {
	processedBody := a.textProcessor.ProcessText(msg.Body, a.maxBodySize)
	prompt := fmt.Sprintf(a.promptFormat, msg.Subject, processedBody)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.modelName,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Extract AWB numbers, invoice numbers and other shipment references from mail content.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call Grok API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from Grok")
	}

	parsed, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Grok analysis complete",
		zap.Int("candidates", len(parsed.AWBNumbers)),
		zap.Float64("confidence", parsed.Confidence))

	return &core.AnalysisResult{
		Codes:      parsed.AWBNumbers,
		Confidence: parsed.Confidence,
		Context:    parsed.Context,
	}, nil
}

// parseAnalysis decodes the model output, tolerating prose around the JSON
// object.
func parseAnalysis(text string) (*analysisResponse, error) {
	var parsed analysisResponse
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return &parsed, nil
	}

	jsonStart := strings.IndexByte(text, '{')
	jsonEnd := strings.LastIndexByte(text, '}')
	if jsonStart < 0 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("failed to locate JSON in model response")
	}

	if err := json.Unmarshal([]byte(text[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &parsed, nil
}
