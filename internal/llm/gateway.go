// Package llm wraps hosted text-generation providers behind a narrow
// gateway: two operations, structured results, one opaque failure kind.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type GenerateRequest struct {
	Background    string
	TargetDetails string
	LetterType    string
}

type GenerateResult struct {
	Draft string `json:"draft"`
}

type ImproveRequest struct {
	LetterContent         string
	TargetJobOrUniversity string
	UserBackground        string
}

type ImproveResult struct {
	ImprovedContent string   `json:"improvedContent"`
	Suggestions     []string `json:"suggestions"`
}

// Gateway is the hosted LLM service. Both calls block on network I/O and
// honor ctx cancellation.
type Gateway interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Improve(ctx context.Context, req ImproveRequest) (ImproveResult, error)
}

// ErrNoUsableResult indicates the provider responded but produced no output
// matching the expected structure. Partial results are never applied.
var ErrNoUsableResult = errors.New("llm: no usable structured result")

// Settings configures a concrete provider.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New builds the gateway for the configured provider.
func New(settings Settings) (Gateway, error) {
	switch settings.Provider {
	case "openai":
		return NewOpenAIGateway(settings)
	case "anthropic":
		return NewAnthropicGateway(settings)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", settings.Provider)
	}
}

func parseGenerateResult(raw string) (GenerateResult, error) {
	var result GenerateResult
	cleaned := stripMarkdownCodeFences(raw)
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return GenerateResult{}, fmt.Errorf("%w: %v", ErrNoUsableResult, err)
	}
	if strings.TrimSpace(result.Draft) == "" {
		return GenerateResult{}, fmt.Errorf("%w: empty draft", ErrNoUsableResult)
	}
	return result, nil
}

func parseImproveResult(raw string) (ImproveResult, error) {
	var result ImproveResult
	cleaned := stripMarkdownCodeFences(raw)
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return ImproveResult{}, fmt.Errorf("%w: %v", ErrNoUsableResult, err)
	}
	if strings.TrimSpace(result.ImprovedContent) == "" {
		return ImproveResult{}, fmt.Errorf("%w: empty improved content", ErrNoUsableResult)
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	return result, nil
}

// stripMarkdownCodeFences unwraps a ```json ... ``` fenced block, which
// models emit despite instructions not to.
func stripMarkdownCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
