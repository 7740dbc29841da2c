// Package push delivers Web Push notifications to a user's registered
// browser endpoints.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/e3ventures/e3cal/internal/config"
	"github.com/e3ventures/e3cal/internal/store"
)

// Payload is the notification body shown by the service worker.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// SubscriptionSource loads a user's registered push endpoints.
type SubscriptionSource interface {
	ListByUser(ctx context.Context, userID string) ([]store.PushSubscription, error)
}

// Sender pushes notifications over the Web Push protocol with VAPID auth.
type Sender struct {
	subject    string
	publicKey  string
	privateKey string
	subs       SubscriptionSource

	// deliver is swappable for tests; defaults to webpush delivery.
	deliver func(ctx context.Context, sub store.PushSubscription, message []byte) error
}

func NewSender(cfg *config.Config, subs SubscriptionSource) *Sender {
	s := &Sender{
		subject:    cfg.VAPID.Subject,
		publicKey:  cfg.VAPID.PublicKey,
		privateKey: cfg.VAPID.PrivateKey,
		subs:       subs,
	}
	s.deliver = s.webpushDeliver
	return s
}

// SendToUser delivers the payload to every endpoint the user registered.
// Endpoints are attempted concurrently and independently; one endpoint's
// failure never affects another's. Failed endpoints are not retried and not
// pruned. Returns the count of successful deliveries and the count of
// attempts.
func (s *Sender) SendToUser(ctx context.Context, userID string, payload Payload) (delivered, attempted int, err error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, 0, nil
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, fmt.Errorf("encode payload: %w", err)
	}

	var ok int64
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub store.PushSubscription) {
			defer wg.Done()
			if err := s.deliver(ctx, sub, message); err != nil {
				log.Printf("[WARN] push delivery failed for user=%s endpoint=%s: %v", userID, sub.Endpoint, err)
				return
			}
			atomic.AddInt64(&ok, 1)
		}(sub)
	}
	wg.Wait()

	return int(ok), len(subs), nil
}

func (s *Sender) webpushDeliver(ctx context.Context, sub store.PushSubscription, message []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push endpoint answered %d", resp.StatusCode)
	}
	return nil
}
