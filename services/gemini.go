package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/krshsl/sensai/backend/models"

	"google.golang.org/genai"
)

const DefaultModelName = "gemini-2.5-flash"

// GeminiService sends completion requests to Gemini
type GeminiService struct {
	genaiClient *genai.Client
}

func NewGeminiService(ctx context.Context, apiKey string) (*GeminiService, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		slog.Error("Failed to create genai client", "error", err)
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiService{genaiClient: genaiClient}, nil
}

// Complete generates one response for the conversation in req
func (g *GeminiService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if g.genaiClient == nil {
		return "", fmt.Errorf("genai client not initialized")
	}

	model := req.Model
	if model == "" {
		model = DefaultModelName
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := g.genaiClient.Models.GenerateContent(
		ctx,
		model,
		buildContents(req.Messages),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	response := result.Text()
	if strings.TrimSpace(response) == "" {
		return "", fmt.Errorf("empty response from model")
	}

	slog.Debug("Generated completion", "model", model, "response_length", len(response))
	return response, nil
}

// buildContents maps chat turns onto Gemini roles
func buildContents(turns []models.ChatTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return contents
}
