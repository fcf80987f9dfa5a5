package latom

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStability(
	t testing.TB,
	baseURL string,
	apiKey string,
) *Stability {
	t.Helper()
	config := DefaultConfig().Stability
	config.APIKey = apiKey
	config.BaseURL = baseURL
	config.LogLevel.Set(slog.LevelError)
	return newStability(config, newLogHandler(config.LogLevel))
}

// newStabilityImageServer serves a canned text-to-image success response
// carrying the given image bytes.
func newStabilityImageServer(t testing.TB, image []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				resp := map[string]any{
					"artifacts": []map[string]any{
						{"base64": base64.StdEncoding.EncodeToString(image)},
					},
				}
				_ = json.NewEncoder(w).Encode(resp)
			},
		),
	)
	t.Cleanup(srv.Close)
	return srv
}

func TestStabilityMissingAPIKey(t *testing.T) {
	stability := newTestStability(t, "http://127.0.0.1:1", "")
	result := stability.Respond(context.Background(), "a cat")
	assert.False(t, result.OK)
	assert.Equal(t, "STABILITY_API_KEY is not set.", result.Message)
}

func TestStabilitySuccess(t *testing.T) {
	imageBytes := []byte("\x89PNG fake image data")

	var gotPath string
	var gotAuth string
	var gotBody textToImageRequest

	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				data, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(data, &gotBody))

				resp := map[string]any{
					"artifacts": []map[string]any{
						{
							"base64": base64.StdEncoding.EncodeToString(
								imageBytes,
							),
						},
					},
				}
				require.NoError(t, json.NewEncoder(w).Encode(resp))
			},
		),
	)
	t.Cleanup(srv.Close)

	stability := newTestStability(t, srv.URL, "test-key")
	result := stability.Respond(context.Background(), "a cat in space")

	require.True(t, result.OK, "message: %s", result.Message)
	assert.Equal(t, imageBytes, result.Image)

	assert.Equal(
		t,
		fmt.Sprintf(
			"/v1/generation/%s/text-to-image",
			DefaultStabilityEngine,
		),
		gotPath,
	)
	assert.Equal(t, "Bearer test-key", gotAuth)

	require.Len(t, gotBody.TextPrompts, 1)
	assert.Equal(t, "a cat in space", gotBody.TextPrompts[0].Text)
	assert.Equal(t, stabilityCfgScale, gotBody.CfgScale)
	assert.Equal(t, stabilityHeight, gotBody.Height)
	assert.Equal(t, stabilityWidth, gotBody.Width)
	assert.Equal(t, stabilitySamples, gotBody.Samples)
	assert.Equal(t, stabilitySteps, gotBody.Steps)
}

func TestStabilityProviderError(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"invalid prompt"}`))
			},
		),
	)
	t.Cleanup(srv.Close)

	stability := newTestStability(t, srv.URL, "test-key")
	result := stability.Respond(context.Background(), "a cat")

	assert.False(t, result.OK)
	assert.Equal(
		t,
		`Stability API error: 400 {"message":"invalid prompt"}`,
		result.Message,
	)
}

func TestStabilityNoArtifacts(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"artifacts":[]}`))
			},
		),
	)
	t.Cleanup(srv.Close)

	stability := newTestStability(t, srv.URL, "test-key")
	result := stability.Respond(context.Background(), "a cat")

	assert.False(t, result.OK)
	assert.Equal(t, `{"artifacts":[]}`, result.Message)
}

func TestStabilityEmptyImageData(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"artifacts":[{"base64":""}]}`))
			},
		),
	)
	t.Cleanup(srv.Close)

	stability := newTestStability(t, srv.URL, "test-key")
	result := stability.Respond(context.Background(), "a cat")

	assert.False(t, result.OK)
	assert.Equal(t, "No image data returned.", result.Message)
}

func TestStabilityTransportFault(t *testing.T) {
	stability := newTestStability(t, "http://127.0.0.1:1", "test-key")
	result := stability.Respond(context.Background(), "a cat")

	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "Sorry, I couldn't generate an image:")
}
