package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIGateway implements Gateway on the official openai-go SDK (chat
// completions).
type OpenAIGateway struct {
	model string
	opts  []option.RequestOption
}

func NewOpenAIGateway(settings Settings) (*OpenAIGateway, error) {
	if settings.APIKey == "" {
		return nil, errors.New("openai api key missing; set LLM_API_KEY")
	}
	model := settings.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	return &OpenAIGateway{model: model, opts: opts}, nil
}

func (g *OpenAIGateway) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	raw, err := g.complete(ctx, buildGeneratePrompt(req))
	if err != nil {
		return GenerateResult{}, err
	}
	return parseGenerateResult(raw)
}

func (g *OpenAIGateway) Improve(ctx context.Context, req ImproveRequest) (ImproveResult, error) {
	raw, err := g.complete(ctx, buildImprovePrompt(req))
	if err != nil {
		return ImproveResult{}, err
	}
	return parseImproveResult(raw)
}

func (g *OpenAIGateway) complete(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(g.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrNoUsableResult)
	}
	return resp.Choices[0].Message.Content, nil
}
