// Package push delivers emotion alerts to a partner's device through APNs
// when no realtime connection is live. Delivery itself is owned by the
// platform; this is only the thin client.
package push

import (
	"context"
	"fmt"

	"github.com/sadbytecom/couplex/internal/models"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// notification grouping tag, mirrored by the client-side bridge
const threadID = "couplex-emotion"

// Config holds the APNs token credentials.
type Config struct {
	KeyPath    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

// Client sends emotion alerts over APNs.
type Client struct {
	client *apns2.Client
	topic  string
}

// NewClient builds an APNs token-based client.
func NewClient(cfg Config) (*Client, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	c := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		c = c.Production()
	} else {
		c = c.Development()
	}

	return &Client{client: c, topic: cfg.Topic}, nil
}

// PushEmotionAlert sends one alert for a partner-authored emotion event.
func (c *Client) PushEmotionAlert(ctx context.Context, deviceToken string, event *models.EmotionEvent) error {
	p := payload.NewPayload().
		AlertTitle("Couplex").
		AlertBody(fmt.Sprintf("%s shared an emotion: %s", event.SharedByName, event.EmotionType)).
		Badge(1).
		Sound("default").
		ThreadID(threadID).
		Custom("url", "/").
		Custom("emotion_type", event.EmotionType)

	n := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       c.topic,
		Payload:     p,
	}

	res, err := c.client.PushWithContext(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %s", res.Reason)
	}
	return nil
}
