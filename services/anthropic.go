package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	AnthropicAPIEndpoint = "https://api.anthropic.com/v1/messages"
	AnthropicAPIVersion  = "2023-06-01"
	AnthropicModel       = "claude-sonnet-4-20250514"
)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int32              `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

// AnthropicClient sends completion requests to the Anthropic messages API
type AnthropicClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string, timeout time.Duration) (client *AnthropicClient) {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client = &AnthropicClient{
		apiKey:   apiKey,
		endpoint: AnthropicAPIEndpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	return client
}

// Complete sends req and returns the concatenated text blocks of the reply
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (responseText string, err error) {
	model := req.Model
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = AnthropicModel
	}

	body := anthropicRequest{
		Model:       model,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, turn := range req.Messages {
		body.Messages = append(body.Messages, anthropicMessage{Role: turn.Role, Content: turn.Content})
	}

	var reqBody []byte
	reqBody, err = json.Marshal(body)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return responseText, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return responseText, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", AnthropicAPIVersion)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return responseText, err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return responseText, err
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		return responseText, err
	}

	var parsed anthropicResponse
	err = json.Unmarshal(respBody, &parsed)
	if err != nil {
		err = errors.Wrap(err, "failed to parse API response")
		return responseText, err
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		err = errors.New("no text content in API response")
		return responseText, err
	}

	responseText = sb.String()
	return responseText, err
}
