package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicGateway implements Gateway on the official Anthropic SDK
// (messages API).
type AnthropicGateway struct {
	model string
	opts  []option.RequestOption
}

func NewAnthropicGateway(settings Settings) (*AnthropicGateway, error) {
	if settings.APIKey == "" {
		return nil, errors.New("anthropic api key missing; set LLM_API_KEY")
	}
	model := settings.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	return &AnthropicGateway{model: model, opts: opts}, nil
}

func (g *AnthropicGateway) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	raw, err := g.complete(ctx, buildGeneratePrompt(req))
	if err != nil {
		return GenerateResult{}, err
	}
	return parseGenerateResult(raw)
}

func (g *AnthropicGateway) Improve(ctx context.Context, req ImproveRequest) (ImproveResult, error) {
	raw, err := g.complete(ctx, buildImprovePrompt(req))
	if err != nil {
		return ImproveResult{}, err
	}
	return parseImproveResult(raw)
}

func (g *AnthropicGateway) complete(ctx context.Context, prompt string) (string, error) {
	client := anthropic.NewClient(g.opts...)
	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}
	var sb strings.Builder
	for _, block := range message.Content {
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty content", ErrNoUsableResult)
	}
	return sb.String(), nil
}
