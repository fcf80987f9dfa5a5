package latom

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lmittmann/tint"
)

// Fixed generation parameters. The `image_model`/`image_provider` settings
// options are accepted but inert; image generation is not customizable
// per guild.
const (
	stabilityCfgScale = 7
	stabilityHeight   = 1024
	stabilityWidth    = 1024
	stabilitySamples  = 1
	stabilitySteps    = 30
)

// ImageResult is the outcome of one image generation. When OK is true,
// Image holds the decoded PNG bytes; otherwise Message holds the
// user-facing error text.
type ImageResult struct {
	OK      bool
	Image   []byte
	Message string
}

// Stability is the generative-image responder. Like Gemini, faults never
// escape it: every failure mode becomes a Message.
type Stability struct {
	config     *StabilityConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func newStability(config *StabilityConfig, handler slog.Handler) *Stability {
	return &Stability{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.New(handler).With(loggerNameKey, "stability"),
	}
}

type textPrompt struct {
	Text string `json:"text"`
}

type textToImageRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    int          `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type textToImageResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

func imageFault(err error) ImageResult {
	return ImageResult{
		Message: fmt.Sprintf("Sorry, I couldn't generate an image: %s", err),
	}
}

// Respond generates one image for prompt with fixed parameters.
func (s *Stability) Respond(ctx context.Context, prompt string) ImageResult {
	if s.config.APIKey == "" {
		return ImageResult{Message: "STABILITY_API_KEY is not set."}
	}

	payload := textToImageRequest{
		TextPrompts: []textPrompt{{Text: prompt}},
		CfgScale:    stabilityCfgScale,
		Height:      stabilityHeight,
		Width:       stabilityWidth,
		Samples:     stabilitySamples,
		Steps:       stabilitySteps,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return imageFault(err)
	}

	url := fmt.Sprintf(
		"%s/v1/generation/%s/text-to-image",
		s.config.BaseURL,
		s.config.Engine,
	)
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewReader(body),
	)
	if err != nil {
		return imageFault(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("text-to-image request failed", tint.Err(err))
		return imageFault(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("error reading response body", tint.Err(err))
		return imageFault(err)
	}
	s.logger.Info(
		"text-to-image finished",
		"engine", s.config.Engine,
		"status", resp.StatusCode,
		"elapsed", time.Since(started),
	)

	if resp.StatusCode != http.StatusOK {
		return ImageResult{
			Message: fmt.Sprintf(
				"Stability API error: %d %s",
				resp.StatusCode,
				string(data),
			),
		}
	}

	var decoded textToImageResponse
	if err = json.Unmarshal(data, &decoded); err != nil {
		return imageFault(err)
	}
	if len(decoded.Artifacts) == 0 {
		return ImageResult{Message: string(data)}
	}
	b64 := decoded.Artifacts[0].Base64
	if b64 == "" {
		return ImageResult{Message: "No image data returned."}
	}
	image, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return imageFault(err)
	}
	return ImageResult{OK: true, Image: image}
}
