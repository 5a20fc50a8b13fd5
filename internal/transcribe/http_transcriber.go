package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPTranscriber implements Transcriber against a Deepgram-style
// speech-to-text HTTP API.
type HTTPTranscriber struct {
	baseURL  string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

// listenResponse mirrors the slice of the API response we read. The
// transcript lives at results.channels[0].alternatives[0].transcript; any
// missing level means "no transcript".
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// NewHTTPTranscriber creates a transcription client.
func NewHTTPTranscriber(baseURL, apiKey, model, language string, timeout time.Duration) *HTTPTranscriber {
	return &HTTPTranscriber{
		baseURL:  baseURL,
		apiKey:   apiKey,
		model:    model,
		language: language,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	params := url.Values{}
	params.Set("model", t.model)
	params.Set("language", t.language)
	params.Set("smart_format", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/v1/listen?"+params.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription backend returned status %d", resp.StatusCode)
	}

	var decoded listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	if len(decoded.Results.Channels) == 0 || len(decoded.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return decoded.Results.Channels[0].Alternatives[0].Transcript, nil
}
