package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	maxDescription = 4000
)

// ErrEmptyDescription возвращается, если нечего улучшать
var ErrEmptyDescription = errors.New("description is required")

// Enhancer переписывает описание гражданина в короткий фактический отчет
type Enhancer interface {
	Enhance(ctx context.Context, issueType, description string) (string, error)
}

// PassthroughEnhancer используется, когда ключ API не задан
type PassthroughEnhancer struct{}

func (PassthroughEnhancer) Enhance(_ context.Context, _, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}
	return description, nil
}

// GeminiEnhancer вызывает models/{model}:generateContent
type GeminiEnhancer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

func NewGeminiEnhancer(apiKey, model, baseURL string, logger *logrus.Logger) *GeminiEnhancer {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &GeminiEnhancer{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func buildPrompt(issueType, description string) string {
	return fmt.Sprintf(`You are helping a citizen report a civic issue to the city.
Rewrite the report below as a clear, factual description in at most three sentences.
Keep every concrete detail (location, size, hazards). Do not invent details. Reply with the description only.

Issue type: %s
Report: %s`, issueType, description)
}

func (g *GeminiEnhancer) Enhance(ctx context.Context, issueType, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}
	if len(description) > maxDescription {
		description = description[:maxDescription]
	}

	log := g.logger.WithFields(logrus.Fields{
		"component":  "enhance",
		"model":      g.model,
		"issue_type": issueType,
	})

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildPrompt(issueType, description)}},
		}},
		GenerationConfig: &geminiGenerationConfig{Temperature: 0.2, MaxOutputTokens: 512},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		log.WithError(err).Error("Gemini request failed")
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var apiErr geminiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		log.WithField("status_code", resp.StatusCode).Warn("Gemini returned an error")
		return "", fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, msg)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked by gemini: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini returned an empty description")
	}

	log.Debug("Description enhanced")
	return text, nil
}
