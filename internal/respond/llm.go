package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/verify"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const explanationSystemPrompt = `You write short fact-check summaries for end users.
Given a verdict and the evidence that produced it, explain in 2-4 plain sentences
why the verdict was reached. Mention which sources confirmed or failed to confirm
the claims. Do not speculate beyond the evidence given.`

// LLMAssembler builds responses like the template assembler but replaces the
// explanation with model-generated prose. A failed model call degrades to the
// template explanation rather than failing the response.
type LLMAssembler struct {
	client    *openai.Client
	logger    *zap.Logger
	model     string
	maxTokens int
}

// NewLLMAssembler creates an assembler from LLM configuration.
func NewLLMAssembler(cfg model.LLMConfig, logger *zap.Logger) (*LLMAssembler, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	return &LLMAssembler{
		client:    openai.NewClientWithConfig(clientConfig),
		logger:    logger,
		model:     m,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Assemble builds the response and asks the model for the explanation.
func (a *LLMAssembler) Assemble(ctx context.Context, req *model.Request, outcomes []verify.Outcome) (*model.Response, error) {
	resp := baseResponse(req, outcomes)

	explanation, err := a.explain(ctx, resp.Verdict, outcomes)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("explanation model failed, using template explanation",
			zap.Error(err))
		explanation = templateExplanation(resp.Verdict, outcomes)
	}
	resp.Explanation = explanation
	return resp, nil
}

func (a *LLMAssembler) explain(ctx context.Context, verdict model.Verdict, outcomes []verify.Outcome) (string, error) {
	chatResp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: explanationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: explanationInput(verdict, outcomes)},
		},
		MaxTokens:   a.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("explanation model: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("explanation model returned no choices")
	}
	out := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("explanation model returned empty content")
	}
	return out, nil
}

// explanationInput renders the verdict and evidence into the model prompt.
// Only content that is already user-visible in the response goes in.
func explanationInput(verdict model.Verdict, outcomes []verify.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verdict: %s\n", verdict)
	for i, o := range outcomes {
		fmt.Fprintf(&b, "Claim %d: %q (corroborated: %t, sources searched: %s)\n",
			i+1, o.Claim.Text, o.Matched, strings.Join(o.SourcesConsulted, ", "))
		for _, ev := range o.Evidence {
			fmt.Fprintf(&b, "  - [%s] %s\n", ev.SourceID, snippet(ev.Content, 160))
		}
	}
	return b.String()
}
