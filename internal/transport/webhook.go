package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// chatIDPattern is a canonicalization step generalized from "digits
// only" to "non-empty, no whitespace" since a chat_id here is an opaque
// adapter-assigned
// identifier rather than a phone number.
var chatIDPattern = regexp.MustCompile(`\s`)

// WebhookOpts configures a WebhookSender.
type WebhookOpts struct {
	URL     string
	Token   string
	Timeout time.Duration
	Client  *http.Client
}

// WebhookOption mutates a WebhookOpts during construction.
type WebhookOption func(*WebhookOpts)

// WithWebhookURL sets the HTTP endpoint the default Sender posts to.
func WithWebhookURL(url string) WebhookOption { return func(o *WebhookOpts) { o.URL = url } }

// WithWebhookToken sets a bearer token sent as Authorization on every post.
func WithWebhookToken(token string) WebhookOption { return func(o *WebhookOpts) { o.Token = token } }

// WithWebhookTimeout bounds a single delivery attempt.
func WithWebhookTimeout(d time.Duration) WebhookOption {
	return func(o *WebhookOpts) { o.Timeout = d }
}

// WebhookSender is the default Sender so the binary runs standalone
// without a concrete WhatsApp/Telegram adapter wired in: it POSTs the
// outbound turn as JSON to a configured URL, the same "hand the payload
// to an HTTP endpoint and let whatever is listening deliver it" shape the
// teacher's api package uses for its own outbound webhooks.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookSender builds a WebhookSender from the given options. A
// missing URL is a configuration error: the caller should not reach this
// point without one, since it determines whether transport is usable at
// all.
func NewWebhookSender(opts ...WebhookOption) (*WebhookSender, error) {
	o := WebhookOpts{Timeout: 10 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}
	if o.URL == "" {
		return nil, fmt.Errorf("transport: webhook URL is required")
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	}
	return &WebhookSender{url: o.URL, token: o.Token, client: client}, nil
}

// ValidateAndCanonicalizeChatID rejects empty or whitespace-containing
// chat ids; a well-formed chat_id is otherwise adapter-specific and
// opaque to the core.
func (s *WebhookSender) ValidateAndCanonicalizeChatID(chatID string) (string, error) {
	if chatID == "" {
		return "", fmt.Errorf("transport: chat_id cannot be empty")
	}
	if chatIDPattern.MatchString(chatID) {
		return "", fmt.Errorf("transport: chat_id %q must not contain whitespace", chatID)
	}
	return chatID, nil
}

type webhookPayload struct {
	ChatID  string           `json:"chat_id"`
	HTML    string           `json:"html_text"`
	Buttons [][]models.Button `json:"buttons,omitempty"`
}

// Send POSTs the sanitized turn to the configured webhook URL.
func (s *WebhookSender) Send(ctx context.Context, chatID, htmlText string, buttons [][]models.Button) error {
	body, err := json.Marshal(webhookPayload{ChatID: chatID, HTML: Sanitize(htmlText), Buttons: buttons})
	if err != nil {
		return fmt.Errorf("transport: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("transport: webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("transport: webhook returned non-2xx", "chat_id", chatID, "status", resp.StatusCode)
		return fmt.Errorf("transport: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
