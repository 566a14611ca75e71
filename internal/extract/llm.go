package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const extractionSystemPrompt = `You are a fact-checking assistant. Decompose the user's input into verifiable claims.
For each claim answer the questions who, what, where, when, how, why and platform where the input supports them.
Return JSON only: {"claims":[{"claim_text":"...","confidence":0.0,"sub_assertions":[{"kind":"who","text":"...","entity":"..."}]}]}.
Omit sub-assertions the input does not support. Do not invent facts.`

// LLMExtractor decomposes request input into claims using a chat-completion
// model. Image input is passed as an inline data URL, so OCR stays inside the
// model rather than this process.
type LLMExtractor struct {
	client    *openai.Client
	logger    *zap.Logger
	model     string
	maxTokens int
}

// NewLLMExtractor creates an extractor from LLM configuration.
func NewLLMExtractor(cfg model.LLMConfig, logger *zap.Logger) (*LLMExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	return &LLMExtractor{
		client:    openai.NewClientWithConfig(clientConfig),
		logger:    logger,
		model:     m,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Extract decomposes the request into claims.
func (e *LLMExtractor) Extract(ctx context.Context, req *model.Request) ([]*model.Claim, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userMessage := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(req.ImageData) > 0 {
		parts := []openai.ChatMessagePart{{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.ImageData),
			},
		}}
		if strings.TrimSpace(req.ClaimText) != "" {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: req.ClaimText,
			})
		}
		userMessage.MultiContent = parts
	} else {
		userMessage.Content = req.ClaimText
	}

	chatReq := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			userMessage,
		},
		MaxTokens:   e.maxTokens,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("extraction model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction model returned no choices")
	}

	var payload claimPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	claims := claimsFromPayload(payload, provenanceFor(req))
	if len(claims) == 0 {
		return nil, fmt.Errorf("no claims extracted from input")
	}

	e.logger.Debug("extraction complete",
		zap.Int("claims", len(claims)),
		zap.String("provenance", string(claims[0].ExtractedFrom)))

	return claims, nil
}
