package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrMissingCredentials = errors.New("llm api key is not configured")
	ErrCompletion         = errors.New("completion failed")
)

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type contentBlock struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// OpenAICompatibleClient sends prompt parts to an OpenAI-compatible /chat/completions endpoint.
type OpenAICompatibleClient struct {
	cfg        ChatConfig
	httpClient *http.Client
}

func NewOpenAICompatibleClient(cfg ChatConfig) *OpenAICompatibleClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAICompatibleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete returns the generated text. Every failure is reported as ErrCompletion
// (or ErrMissingCredentials, which also matches ErrCompletion).
func (c *OpenAICompatibleClient) Complete(ctx context.Context, parts []Part) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", fmt.Errorf("%w: %w", ErrCompletion, ErrMissingCredentials)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty prompt", ErrCompletion)
	}

	reqBody := map[string]interface{}{
		"model":    c.cfg.Model,
		"messages": []chatMessage{{Role: "user", Content: buildContent(parts)}},
		"stream":   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal llm request failed: %v", ErrCompletion, err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: build llm request failed: %v", ErrCompletion, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: llm request failed: %v", ErrCompletion, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read llm response failed: %v", ErrCompletion, err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: llm response status %d: %s", ErrCompletion, resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse llm json failed: %v", ErrCompletion, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty llm choices", ErrCompletion)
	}
	return parsed.Choices[0].Message.Content, nil
}

// buildContent keeps text-only prompts as a plain string so providers without
// multi-part support still accept them.
func buildContent(parts []Part) interface{} {
	hasBinary := false
	for _, p := range parts {
		if _, ok := p.(BinaryPart); ok {
			hasBinary = true
			break
		}
	}

	if !hasBinary {
		var sb strings.Builder
		for _, p := range parts {
			if t, ok := p.(TextPart); ok {
				sb.WriteString(t.Text)
			}
		}
		return sb.String()
	}

	blocks := make([]contentBlock, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case TextPart:
			blocks = append(blocks, contentBlock{Type: "text", Text: v.Text})
		case BinaryPart:
			dataURL := "data:" + v.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(v.Data)
			blocks = append(blocks, contentBlock{Type: "image_url", ImageURL: &imageURL{URL: dataURL}})
		}
	}
	return blocks
}
