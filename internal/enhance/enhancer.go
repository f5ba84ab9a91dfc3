package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const systemPrompt = "You are a product copywriter for an outdoor gear brand. " +
	"Write concise, benefit-led copy."

// shortCopyLimit caps the derived short description in runes.
const shortCopyLimit = 400

// Enhancer calls a chat-completions API to rewrite heuristic product
// descriptions. It is strictly optional: every failure is reported as
// an error for the caller to log and ignore.
type Enhancer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *Enhancer {
	return &Enhancer{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "enhancer"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
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
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Enhance sends prompt to the configured model and returns the
// generated text.
func (e *Enhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("no API key configured")
	}

	reqBody := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.5,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned %s", resp.Status)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("API returned empty content")
	}

	e.logger.Debug("description enhanced", "model", e.model, "chars", len(content))

	return content, nil
}

// BuildPrompt assembles the rewrite prompt from the heuristic text.
func BuildPrompt(title, description string) string {
	return fmt.Sprintf(
		"Rewrite the following text as a short, persuasive product description: %s\n"+
			"Then write a full description with the key features as bullet points for the product %q.",
		description, title,
	)
}

// SplitCopy derives (short, long) from generated text: the first
// non-empty paragraph, capped at 400 characters, becomes the short
// description; the full text is the long one.
func SplitCopy(generated string) (string, string) {
	var first string
	for _, line := range strings.Split(generated, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			first = line
			break
		}
	}

	runes := []rune(first)
	if len(runes) > shortCopyLimit {
		first = string(runes[:shortCopyLimit])
	}

	return first, generated
}
