// Package push delivers Web Push notifications to the subscriptions a user
// registered from their browsers.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/punchclock/punchclock/internal/models"
	"github.com/punchclock/punchclock/internal/store"
)

// Payload is the notification content shown by the browser.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// Sender signs pushes with the process VAPID keypair and fans a payload out
// to every subscription of a user. Delivery is fire-and-forget: failures are
// logged, not retried. An endpoint the push service reports gone (HTTP 410)
// is deleted, so stale subscriptions heal themselves.
type Sender struct {
	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string
	subs            store.SubscriptionStore
	logger          *slog.Logger
	httpClient      *http.Client
}

// NewSender builds a Sender. Empty VAPID keys yield a disabled sender; push
// endpoints then report the feature unavailable instead of failing.
func NewSender(vapidPublicKey, vapidPrivateKey, subscriber string, subs store.SubscriptionStore, logger *slog.Logger) *Sender {
	return &Sender{
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriber:      subscriber,
		subs:            subs,
		logger:          logger,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a VAPID keypair is configured.
func (s *Sender) Enabled() bool {
	return s.vapidPublicKey != "" && s.vapidPrivateKey != ""
}

// PublicKey returns the VAPID public key browsers subscribe with.
func (s *Sender) PublicKey() string {
	return s.vapidPublicKey
}

// NotifyUser sends the payload to every subscription of the user and returns
// how many deliveries succeeded. Per-subscription failures are logged and do
// not interrupt the fan-out.
func (s *Sender) NotifyUser(ctx context.Context, userID uint, payload Payload) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	subs, err := s.subs.Subscriptions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		if err := s.send(ctx, sub, body); err != nil {
			s.logger.Warn("Push delivery failed",
				"user_id", userID,
				"endpoint", sub.Endpoint,
				"error", err.Error(),
			)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Sender) send(ctx context.Context, sub models.Subscription, body []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.vapidPublicKey,
		VAPIDPrivateKey: s.vapidPrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		// The push service no longer knows this endpoint; drop it.
		if err := s.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			s.logger.Warn("Failed to delete gone subscription",
				"endpoint", sub.Endpoint,
				"error", err.Error(),
			)
		} else {
			s.logger.Info("Deleted gone push subscription", "endpoint", sub.Endpoint)
		}
		return fmt.Errorf("endpoint gone (status %d)", resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}
