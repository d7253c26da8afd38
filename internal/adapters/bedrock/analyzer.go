package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/utils"
	"go.uber.org/zap"
)

// BedrockAnalyzer is an implementation of the TextAnalyzer interface using
// Amazon Bedrock.
type BedrockAnalyzer struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
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

// NewBedrockAnalyzer creates a new Bedrock analyzer
func NewBedrockAnalyzer(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockAnalyzer {
	return &BedrockAnalyzer{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
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
	}
}

// AnalyzeMessage asks the model for candidate reference codes
func (a *BedrockAnalyzer) AnalyzeMessage(ctx context.Context, msg *core.Message) (*core.AnalysisResult, error) {
	processedBody := a.textProcessor.ProcessText(msg.Body, a.maxBodySize)
	prompt := fmt.Sprintf(a.promptFormat, msg.Subject, processedBody)

	var payload []byte
	var err error

	if a.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": a.maxTokens,
			"temperature":          a.temperature,
			"top_p":                a.topP,
		})
	} else if a.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": a.maxTokens,
				"temperature":   a.temperature,
				"topP":          a.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  a.maxTokens,
			"temperature": a.temperature,
			"top_p":       a.topP,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &a.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var responseText string
	if a.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		responseText = claudeResp.Completion
	} else if a.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return nil, fmt.Errorf("empty response from Titan model")
		}
		responseText = titanResp.Results[0].OutputText
	} else {
		var genericResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model response: %w", err)
		}
		responseText = genericResp.Completion
	}

	parsed, err := parseAnalysis(responseText)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Bedrock analysis complete",
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

// isAnthropicModel checks if the model is an Anthropic Claude model
func (a *BedrockAnalyzer) isAnthropicModel() bool {
	return strings.HasPrefix(a.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (a *BedrockAnalyzer) isAmazonTitanModel() bool {
	return strings.HasPrefix(a.modelID, "amazon.titan")
}
