package client

import (
	"context"

	"github.com/sadbytecom/couplex/internal/models"
)

// Dispatch drains the subscription queue with a single consumer, in arrival
// order. Every event updates the feed cache; partner-authored events
// additionally go to the notification bridge. Self-authored events never
// notify, and neither do events still queued for a previous partnership.
// Returns when ctx is done or the events channel closes.
func Dispatch(ctx context.Context, events <-chan models.EmotionEvent, feed *FeedCache, bridge *NotificationBridge, selfUserID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.PartnershipID != feed.PartnershipID() {
				continue
			}
			feed.Prepend(event)
			if bridge != nil && event.SharedByID != selfUserID {
				bridge.NotifyEmotion(event)
			}
		}
	}
}
