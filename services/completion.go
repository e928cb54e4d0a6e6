package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/krshsl/sensai/backend/models"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest is one call to the completion service. Messages are sent
// in order after the system instruction.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []models.ChatTurn
	Temperature float32
	MaxTokens   int32
}

// Completer is a hosted text-completion service returning one message
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewCompleter builds the completion client named by cfg.Provider
func NewCompleter(ctx context.Context, cfg AIConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is not configured")
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiService(ctx, cfg.APIKey)
	case "anthropic", "claude":
		return NewAnthropicClient(cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
