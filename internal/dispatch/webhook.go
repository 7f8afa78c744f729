package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// WebhookConfig configures the HTTP push-gateway dispatcher.
type WebhookConfig struct {
	// URL receives one POST per notification.
	URL string
	// RatePerSecond caps outgoing requests. Zero or less disables throttling.
	RatePerSecond float64
	// Burst is the limiter bucket size; values below 1 become 1.
	Burst int
	// Timeout bounds one HTTP round trip.
	Timeout time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenFor is how long the breaker rejects calls before probing again.
	OpenFor time.Duration
}

// DefaultWebhookConfig returns the settings used when only a URL is given.
func DefaultWebhookConfig(url string) WebhookConfig {
	return WebhookConfig{
		URL:           url,
		RatePerSecond: 20,
		Burst:         5,
		Timeout:       10 * time.Second,
		MaxFailures:   5,
		OpenFor:       30 * time.Second,
	}
}

// webhookPayload is the JSON body posted to the gateway.
type webhookPayload struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// webhookResponse is the optional JSON reply. Sent is the number of devices
// reached; zero is a success.
type webhookResponse struct {
	Sent *int `json:"sent"`
}

// Webhook posts notifications to an HTTP push gateway. Requests are throttled
// by a token bucket and guarded by a circuit breaker so a failing gateway is
// not hammered for every candidate of a tick.
type Webhook struct {
	cfg     WebhookConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewWebhook constructs a Webhook dispatcher. A nil client selects one with
// cfg.Timeout.
func NewWebhook(cfg WebhookConfig, client *http.Client, logger *slog.Logger) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("dispatch.NewWebhook: %w: URL is required", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "webhook-dispatch",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Webhook{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Send posts one notification. Any non-2xx status, transport error, open
// breaker or cancelled rate wait is returned wrapped with domain.ErrDispatch.
func (d *Webhook) Send(ctx context.Context, userID uuid.UUID, title, body string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("dispatch.Webhook.Send: %w: rate wait: %w", domain.ErrDispatch, err)
	}

	payload, err := json.Marshal(webhookPayload{UserID: userID.String(), Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("dispatch.Webhook.Send: %w: marshal: %w", domain.ErrDispatch, err)
	}

	res, err := d.breaker.Execute(func() (interface{}, error) {
		return d.post(ctx, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("dispatch.Webhook.Send: %w: gateway circuit open: %w", domain.ErrDispatch, err)
	}
	if err != nil {
		return fmt.Errorf("dispatch.Webhook.Send: %w: %w", domain.ErrDispatch, err)
	}

	if sent, ok := res.(int); ok && sent == 0 {
		d.logger.InfoContext(ctx, "user has no delivery targets", "user_id", userID)
	}
	return nil
}

// post performs the HTTP call and returns the number of devices reached, or
// -1 when the gateway did not say.
func (d *Webhook) post(ctx context.Context, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out webhookResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Sent == nil {
		return -1, nil
	}
	return *out.Sent, nil
}
