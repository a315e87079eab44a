package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/donaldgifford/meli-collector/internal/metrics"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

const (
	colorGreen  = 0x2ECC71 // complete
	colorYellow = 0xF1C40F // partial
	colorRed    = 0xE74C3C // empty
)

// maxFieldValue is Discord's limit for an embed field value.
const maxFieldValue = 1024

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendRunReport posts report as a single Discord embed.
func (d *DiscordNotifier) SendRunReport(ctx context.Context, report *Report) error {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	}()

	payload := discordWebhookPayload{Embeds: []discordEmbed{buildEmbed(report)}}
	if err := d.post(ctx, payload); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		return err
	}
	return nil
}

func buildEmbed(r *Report) discordEmbed {
	succeeded := 0
	for i := range r.Terms {
		if r.Terms[i].Status == domain.TermSucceeded {
			succeeded++
		}
	}

	embed := discordEmbed{
		Title:       "Collection run " + r.Outcome(),
		Color:       outcomeColor(r.Outcome()),
		Description: "Run " + r.RunID,
		Fields: []discordEmbedField{
			{Name: "Records", Value: fmt.Sprintf("%d", r.Records), Inline: true},
			{Name: "Item failures", Value: fmt.Sprintf("%d", r.ItemFailures), Inline: true},
			{Name: "Terms", Value: fmt.Sprintf("%d/%d succeeded", succeeded, len(r.Terms)), Inline: true},
			{Name: "Duration", Value: r.Duration.Round(time.Second).String(), Inline: true},
		},
	}

	if len(r.FailedTerms) > 0 {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  "Failed terms",
			Value: truncate(strings.Join(r.FailedTerms, ", "), maxFieldValue),
		})
	}
	if r.ExportPath != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  "Export",
			Value: truncate(r.ExportPath, maxFieldValue),
		})
	}

	return embed
}

func outcomeColor(outcome string) int {
	switch outcome {
	case OutcomeComplete:
		return colorGreen
	case OutcomePartial:
		return colorYellow
	default:
		return colorRed
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
