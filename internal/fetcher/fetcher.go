package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hostpatch/internal/config"

	"github.com/rs/zerolog"
)

// FetchError indicates the remote blocklist could not be retrieved or was unusable
type FetchError struct {
	URL     string
	Reason  string
	Wrapped error
}

func (e *FetchError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("fetch failed for '%s': %s: %v", e.URL, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("fetch failed for '%s': %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Wrapped
}

// NewFetchError creates a new fetch error
func NewFetchError(url, reason string, wrapped error) *FetchError {
	return &FetchError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// Fetcher retrieves the raw remote blocklist over plain HTTP(S).
// Retry and backoff are deliberately left to the invoking environment.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewFetcher creates a new Fetcher from the source configuration
func NewFetcher(cfg config.SourceConfig, logger zerolog.Logger) *Fetcher {
	moduleLogger := logger.With().Str("component", "Fetcher").Logger()

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if cfg.TimeoutSecs <= 0 {
		timeout = time.Duration(config.DefaultSourceTimeoutSecs) * time.Second
		moduleLogger.Warn().Int("configured_timeout", cfg.TimeoutSecs).Dur("default_timeout", timeout).Msg("Source timeout invalid or not set, using default")
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  cfg.UserAgent,
		logger:     moduleLogger,
	}
}

// Fetch retrieves the blocklist from url and normalizes all line terminators
// to '\n'. It fails with a FetchError if the transport errors, the response
// status is not 2xx, or the body is empty or whitespace-only.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", NewFetchError(url, "failed to build request", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error().Err(err).Str("url", url).Msg("Blocklist request failed")
		return "", NewFetchError(url, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Error().Int("status_code", resp.StatusCode).Str("url", url).Msg("Blocklist request returned non-success status")
		return "", NewFetchError(url, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Error().Err(err).Str("url", url).Msg("Failed to read blocklist response body")
		return "", NewFetchError(url, "failed to read response body", err)
	}

	content := NormalizeLineEndings(string(body))
	if strings.TrimSpace(content) == "" {
		f.logger.Error().Str("url", url).Msg("Blocklist response body is empty")
		return "", NewFetchError(url, "response body is empty or whitespace-only", nil)
	}

	f.logger.Debug().Str("url", url).Int("bytes", len(content)).Msg("Fetched blocklist")
	return content, nil
}

// NormalizeLineEndings converts CRLF and bare CR terminators to LF
func NormalizeLineEndings(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}
