package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiAnalyzer is an implementation of the TextAnalyzer interface using
// Google Gemini.
type GeminiAnalyzer struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
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

// NewGeminiAnalyzer creates a new Gemini analyzer
func NewGeminiAnalyzer(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiAnalyzer{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a logistics assistant. Extract air waybill (AWB) numbers and other shipment reference codes from the email below.
Respond with a JSON object containing:
- awb_numbers: array of AWB numbers found (e.g. ["235-12345678", "772238490728"])
- confidence: number between 0 and 1 (how confident you are in the extracted numbers)
- context: the sentence or paragraph where the references appear

Email:
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`,
	}, nil
}

// Close closes the Gemini client
func (a *GeminiAnalyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// AnalyzeMessage asks the model for candidate reference codes
func (a *GeminiAnalyzer) AnalyzeMessage(ctx context.Context, msg *core.Message) (*core.AnalysisResult, error) {
	processedBody := a.textProcessor.ProcessText(msg.Body, a.maxBodySize)
	prompt := fmt.Sprintf(a.promptFormat, msg.Subject, processedBody)

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	parsed, err := parseAnalysis(responseText)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Gemini analysis complete",
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
