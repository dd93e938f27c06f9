package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const summaryPrompt = "You are a helpful assistant. Summarize the following transcription."

// AzureOpenAI calls the chat-completions API over plain HTTP. One
// request in, one summary out; retries and streaming are not needed
// for this use.
type AzureOpenAI struct {
	Endpoint string
	Key      string
	Model    string

	HTTP *http.Client
}

func NewAzureOpenAI(endpoint, key, model string) *AzureOpenAI {
	return &AzureOpenAI{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Key:      key,
		Model:    model,
		HTTP:     &http.Client{Timeout: 2 * time.Minute},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Model       string        `json:"model"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *AzureOpenAI) Summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: summaryPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:   4096,
		Temperature: 1.0,
		TopP:        1.0,
		Model:       a.Model,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=2024-02-01", a.Endpoint, a.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.Key)

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completion failed with http %d: %s", resp.StatusCode, string(b))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("unreadable chat completion response, %w", err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}
