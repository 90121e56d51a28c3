// Package speech synthesizes narration audio through the Gemini generative
// speech API. One request per narration, no retries.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/errs"
)

// Client calls the streamGenerateContent endpoint and extracts the inline
// audio payload from the response.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client from config. An empty API key is allowed; each
// Synthesize call then fails fast with a ConfigurationError.
func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.GeminiBaseURL, "/"),
		model:      cfg.GeminiModel,
		apiKey:     cfg.GeminiAPIKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Request/response shapes for the generative speech endpoint. The response
// is a stream rendered as a JSON array of chunks; audio arrives as inline
// base64 data on the first audio-typed part.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type responseChunk struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize sends the entire narration text in one request and returns the
// decoded audio bytes. Distinct, non-retried failure modes: missing
// credential (no network call), non-2xx status, and a 2xx response carrying
// no audio part.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, &errs.ConfigurationError{Key: "GEMINI_API_KEY"}
	}
	if strings.TrimSpace(text) == "" {
		return nil, errs.Validation("narration text is empty")
	}
	if voice == "" {
		voice = "Zephyr"
	}

	payload := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: text}},
		}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"audio"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoice{VoiceName: voice},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.ExternalAPIError{Msg: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Msg: "read response: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		// Surface the provider's message verbatim when parseable.
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Msg: apiErr.Error.Message}
		}
		return nil, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Msg: "unknown error"}
	}

	encoded, ok := extractAudio(raw)
	if !ok {
		return nil, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Msg: "no audio data found in response"}
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &errs.ExternalAPIError{StatusCode: resp.StatusCode, Msg: "decode audio payload: " + err.Error()}
	}
	return audio, nil
}

// extractAudio scans the response chunks for the first audio-typed inline
// part and returns its base64 payload.
func extractAudio(raw []byte) (string, bool) {
	var chunks []responseChunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		// Some deployments return a single object instead of an array.
		var single responseChunk
		if err := json.Unmarshal(raw, &single); err != nil {
			return "", false
		}
		chunks = []responseChunk{single}
	}
	for _, chunk := range chunks {
		for _, cand := range chunk.Candidates {
			for _, p := range cand.Content.Parts {
				if p.InlineData != nil && strings.HasPrefix(p.InlineData.MimeType, "audio/") {
					return p.InlineData.Data, true
				}
			}
		}
	}
	return "", false
}
