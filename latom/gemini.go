package latom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lmittmann/tint"
)

// Gemini is the generative-text responder. It resolves per-guild
// generation settings, issues one generateContent request, and always
// returns user-facing text: provider and transport faults are converted
// to messages at this boundary, never raised past it, because the
// dispatcher only knows how to forward text.
type Gemini struct {
	config     *GeminiConfig
	settings   *SettingsRegistry
	httpClient *http.Client
	logger     *slog.Logger
}

func newGemini(
	config *GeminiConfig,
	settings *SettingsRegistry,
	handler slog.Handler,
) *Gemini {
	return &Gemini{
		config:     config,
		settings:   settings,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.New(handler).With(loggerNameKey, "gemini"),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Respond sends prompt to the provider using guildID's effective model,
// temperature, token limit and persona, and returns the reply text or an
// error message.
func (g *Gemini) Respond(ctx context.Context, prompt string, guildID string) string {
	if g.config.APIKey == "" {
		return "GEMINI_API_KEY is not set."
	}

	settings := g.settings.Effective(guildID)
	payload := generateContentRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: settings.AIPersona}},
		},
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     settings.AITemperature,
			MaxOutputTokens: settings.AIMaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("Sorry, I encountered an error: %s", err)
	}

	url := fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent",
		g.config.BaseURL,
		settings.AIModel,
	)
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Sprintf("Sorry, I encountered an error: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", g.config.APIKey)

	started := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("generateContent request failed", tint.Err(err))
		return fmt.Sprintf("Sorry, I encountered an error: %s", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Error("error reading response body", tint.Err(err))
		return fmt.Sprintf("Sorry, I encountered an error: %s", err)
	}
	g.logger.Info(
		"generateContent finished",
		"model", settings.AIModel,
		"status", resp.StatusCode,
		"elapsed", time.Since(started),
	)

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf(
			"Gemini API error: %d %s",
			resp.StatusCode,
			string(data),
		)
	}

	var decoded generateContentResponse
	if err = json.Unmarshal(data, &decoded); err != nil {
		return string(data)
	}
	if len(decoded.Candidates) == 0 ||
		len(decoded.Candidates[0].Content.Parts) == 0 {
		// unexpected shape: fall back to the raw body
		return string(data)
	}
	return decoded.Candidates[0].Content.Parts[0].Text
}
