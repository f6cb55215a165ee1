package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"hostpatch/internal/config"
	"hostpatch/internal/models"

	"github.com/rs/zerolog"
)

const (
	colorInformation = 3066993  // green
	colorWarning     = 16776960 // yellow
	colorError       = 15158332 // red

	// Discord caps an embed description at 4096 characters
	maxDescriptionLength = 4000
)

// webhookPayload is the JSON body posted to the webhook
type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

// webhookEmbed is a single rich-content block within the payload
type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp"`
	Fields      []webhookField `json:"fields,omitempty"`
}

// webhookField is a name/value pair rendered inside an embed
type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// WebhookSink delivers the flushed run log to a Discord-compatible webhook
// as a single severity-colored embed carrying the numeric event code.
type WebhookSink struct {
	webhookURL string
	httpClient *http.Client
	logger     zerolog.Logger
	registered bool
}

// NewWebhookSink creates a new WebhookSink from the notification configuration
func NewWebhookSink(cfg config.NotificationConfig, httpClient *http.Client, logger zerolog.Logger) *WebhookSink {
	moduleLogger := logger.With().Str("component", "WebhookSink").Logger()

	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSecs) * time.Second
		if cfg.TimeoutSecs <= 0 {
			timeout = time.Duration(config.DefaultNotificationTimeoutSecs) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &WebhookSink{
		webhookURL: cfg.WebhookURL,
		httpClient: httpClient,
		logger:     moduleLogger,
	}
}

// Register validates the sink configuration. It is idempotent and safe to
// call every run; an unconfigured webhook is not an error here, it only
// makes Deliver fail so the caller falls back to the local log file.
func (ws *WebhookSink) Register(ctx context.Context) error {
	if ws.registered {
		return nil
	}

	if ws.webhookURL == "" {
		ws.logger.Info().Msg("Webhook URL not configured, flushes will use the fallback log file")
		ws.registered = true
		return nil
	}

	if _, err := url.ParseRequestURI(ws.webhookURL); err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	ws.registered = true
	ws.logger.Debug().Msg("Webhook sink registered")
	return nil
}

// Deliver posts the event to the webhook as one embed
func (ws *WebhookSink) Deliver(ctx context.Context, event models.SinkEvent) error {
	if ws.webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	payload := ws.buildPayload(event)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to send webhook notification")
		return fmt.Errorf("failed to send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		ws.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(respBody)).Msg("Webhook notification failed")
		return fmt.Errorf("webhook notification failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	ws.logger.Info().Int("status_code", resp.StatusCode).Str("severity", event.Severity.String()).Msg("Webhook notification sent successfully")
	return nil
}

// buildPayload renders the event as a severity-colored embed
func (ws *WebhookSink) buildPayload(event models.SinkEvent) webhookPayload {
	description := truncateDescription(event.Message)

	return webhookPayload{
		Embeds: []webhookEmbed{
			{
				Title:       fmt.Sprintf("%s run log - %s", event.Source, event.Severity.String()),
				Description: fmt.Sprintf("```\n%s\n```", description),
				Color:       colorForSeverity(event.Severity),
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
				Fields: []webhookField{
					{Name: "Source", Value: event.Source, Inline: true},
					{Name: "Code", Value: fmt.Sprintf("%d", event.Code), Inline: true},
				},
			},
		},
	}
}

// truncateDescription caps the message at the embed limit, backing off to a
// rune boundary so a multi-byte character is never split.
func truncateDescription(message string) string {
	if len(message) <= maxDescriptionLength {
		return message
	}

	cut := maxDescriptionLength
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut] + "\n... (truncated)"
}

// colorForSeverity maps a severity to the embed accent color
func colorForSeverity(severity models.Severity) int {
	switch severity {
	case models.SeverityError:
		return colorError
	case models.SeverityWarning:
		return colorWarning
	default:
		return colorInformation
	}
}
