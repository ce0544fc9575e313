// Package notifier posts run summaries to Slack incoming webhooks.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DrSkyle/datasift/pkg/engine/report"
)

// SlackClient handles Slack notifications.
type SlackClient struct {
	WebhookURL string
	Channel    string // Optional: Override default channel
	HTTP       *http.Client
}

// NewSlackClient initializes the Slack integration.
func NewSlackClient(webhookURL string, channel string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		Channel:    channel,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

// SendRunReport posts the run summary. A client without a webhook is a no-op.
func (s *SlackClient) SendRunReport(ctx context.Context, summary report.Summary) error {
	if s.WebhookURL == "" {
		return nil
	}
	return s.send(ctx, s.constructPayload(summary))
}

// constructPayload builds the message blocks.
func (s *SlackClient) constructPayload(summary report.Summary) map[string]any {
	statusIcon := "🟢"
	if summary.Partial() {
		statusIcon = "🔴"
	} else if summary.PIIDetected > 0 {
		statusIcon = "🟡"
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("%s Data Collection Report", statusIcon),
			},
		},
		{
			"type": "context",
			"elements": []map[string]any{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Run:* %s | *Date:* %s", summary.RunID, summary.Timestamp.UTC().Format("2006-01-02")),
				},
			},
		},
		{
			"type": "divider",
		},
		{
			"type": "section",
			"fields": []map[string]any{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Records Collected:*\n%d", summary.TotalRecords),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Duplicates Removed:*\n%d", summary.DuplicatesRemoved),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Records with PII:*\n%d", summary.PIIDetected),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Final Records:*\n%d", summary.FinalRecords),
				},
			},
		},
	}

	var failed []string
	for _, src := range summary.Sources {
		if src.Error != "" {
			failed = append(failed, src.Name)
		}
	}
	if len(failed) > 0 {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": "⚠️ *Source failures:* " + strings.Join(failed, ", "),
			},
		})
	}

	payload := map[string]any{
		"blocks": blocks,
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	return payload
}

// SendTrendAlert posts history alerts.
func (s *SlackClient) SendTrendAlert(ctx context.Context, alerts []string) error {
	if s.WebhookURL == "" || len(alerts) == 0 {
		return nil
	}
	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": "📈 Collection Trend Alert",
				},
			},
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": strings.Join(alerts, "\n"),
				},
			},
		},
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	return s.send(ctx, payload)
}

func (s *SlackClient) send(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status from slack: %d", resp.StatusCode)
	}
	return nil
}
