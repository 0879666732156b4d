package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MoonshotConfig holds settings for the Moonshot (Kimi) backend.
type MoonshotConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// MoonshotGenerator is a TextGenerator backed by Moonshot's
// OpenAI-compatible chat API.
type MoonshotGenerator struct {
	config MoonshotConfig
	client *http.Client
}

// NewMoonshotGenerator creates a Moonshot-backed text generator.
func NewMoonshotGenerator(cfg MoonshotConfig) *MoonshotGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.moonshot.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "kimi-k2-turbo-preview"
	}
	return &MoonshotGenerator{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the backend model.
func (m *MoonshotGenerator) Name() string {
	return m.config.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error interface{} `json:"error"`
}

// Generate returns the model's text output for one prompt.
func (m *MoonshotGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":       m.config.Model,
		"messages":    []chatMessage{{Role: "user", Content: prompt}},
		"temperature": 0.2,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal kimi request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create kimi request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("kimi request failed: %w", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode kimi response: %v", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("kimi api error: %v", result.Error)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("kimi api error: empty choices")
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("kimi: empty response")
	}

	return text, nil
}
