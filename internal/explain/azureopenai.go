package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// AzureClient implements LLMClient against an Azure OpenAI chat completions
// deployment. It is the production implementation selected when
// ORCA_MODE=RULES_PLUS_AI and Azure credentials are present; tests use a
// stub LLMClient instead.
type AzureClient struct {
	Endpoint   string
	APIKey     string
	Deployment string
	MaxTokens  int
	HTTPClient *http.Client
}

// NewAzureClient builds an AzureClient. maxTokens<=0 defaults to 512.
func NewAzureClient(endpoint, apiKey, deployment string, maxTokens int) *AzureClient {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &AzureClient{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Deployment: deployment,
		MaxTokens:  maxTokens,
		HTTPClient: &http.Client{},
	}
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the first
// choice's content.
func (c *AzureClient) Complete(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=2024-02-15-preview", c.Endpoint, c.Deployment)

	body, err := json.Marshal(chatRequest{
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("explain: azure openai returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("explain: azure openai returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
