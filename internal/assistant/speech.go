package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Logger defines the logging interface used by LogSpeaker.
type Logger interface {
	Info(msg string, args ...any)
}

// Speech talks to the text-to-speech and speech-to-text service.
//
//	POST {url}/speak   {"text": "..."}            -> 2xx
//	POST {url}/listen?timeout=N                   -> 200 {"text": "..."} or 204
type Speech struct {
	url        string
	httpClient *http.Client
}

// NewSpeech creates a speech client for the service at url.
func NewSpeech(url string) *Speech {
	return &Speech{
		url:        strings.TrimRight(url, "/"),
		httpClient: &http.Client{},
	}
}

// Speak sends text to be spoken.
func (s *Speech) Speak(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encoding speak request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/speak", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building speak request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("speak: status %d", resp.StatusCode)
	}
	return nil
}

// Listen waits for the next utterance. The service is told how long it may
// listen from ctx's deadline. It returns "" when nothing was recognised.
func (s *Speech) Listen(ctx context.Context) (string, error) {
	endpoint := s.url + "/listen"
	if deadline, ok := ctx.Deadline(); ok {
		secs := int(math.Ceil(time.Until(deadline).Seconds()))
		endpoint = fmt.Sprintf("%s?timeout=%d", endpoint, max(secs, 1))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building listen request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return "", nil
	case http.StatusOK:
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("listen: status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding listen response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// LogSpeaker writes spoken replies to the log. It stands in for speech
// output when no speech service is configured.
type LogSpeaker struct {
	Logger Logger
}

// Speak logs text.
func (l LogSpeaker) Speak(_ context.Context, text string) error {
	if l.Logger != nil {
		l.Logger.Info("assistant says", "text", text)
	}
	return nil
}
