package alerts

import (
	"context"

	httpclient "github.com/cartloom/taxbridge/client/http"
	"github.com/cartloom/taxbridge/logger"

	"go.uber.org/zap"
)

// Notifier delivers operational alerts, e.g. when a tax call times out and
// an order silently falls back to zero tax.
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// NoopNotifier discards alerts.
type NoopNotifier struct{}

func (NoopNotifier) Alert(ctx context.Context, message string) {}

// WebhookNotifier posts alerts to a chat webhook (Slack-compatible
// payload). Delivery failures are logged and dropped: alerting must never
// affect the calling request.
type WebhookNotifier struct {
	httpClient *httpclient.HTTPClient
	channel    string
	log        *zap.Logger
}

// NewWebhookNotifier creates a notifier posting to webhookURL. channel is
// included in the payload for routing.
func NewWebhookNotifier(webhookURL, channel string) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: httpclient.NewHTTPClient(
			httpclient.WithBaseURL(webhookURL),
			httpclient.WithRetryConfig(httpclient.DefaultRetryConfig()),
		),
		channel: channel,
		log:     logger.Log,
	}
}

type webhookPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// Alert posts the message to the configured webhook.
func (n *WebhookNotifier) Alert(ctx context.Context, message string) {
	resp, err := n.httpClient.Post(ctx, "/", webhookPayload{Channel: n.channel, Text: message})
	if err != nil {
		n.log.Error("failed to deliver alert",
			zap.String("channel", n.channel),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	n.log.Debug("alert delivered",
		zap.String("channel", n.channel),
		zap.String("message", message))
}
