package client

import (
	"context"
	"errors"
	"sync"

	"github.com/sadbytecom/couplex/internal/models"
)

// ErrSubmitPending is returned when an emotion submission is attempted while
// a previous one is still in flight.
var ErrSubmitPending = errors.New("an emotion submission is already in flight")

// ErrInvalidEmotion and friends reject bad input before any network call.
var (
	ErrInvalidEmotion     = errors.New("unknown emotion type")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description is too long")
)

// feedAPI is the backend surface the feed cache needs.
type feedAPI interface {
	ListEmotions(ctx context.Context, limit int) ([]models.EmotionEvent, error)
	ShareEmotion(ctx context.Context, emotionType, description string) (*models.EmotionEvent, error)
}

// FeedCache is the ordered list of emotion events for the active
// partnership: seeded by a full fetch, extended by realtime inserts. It is
// discarded and rebuilt whenever the partnership id changes.
type FeedCache struct {
	api feedAPI

	mu            sync.Mutex
	partnershipID string
	epoch         int
	events        []models.EmotionEvent
	submitting    bool
}

// NewFeedCache creates an empty cache backed by api.
func NewFeedCache(api feedAPI) *FeedCache {
	return &FeedCache{api: api}
}

// Reset discards the cache and binds it to a new partnership id. Responses
// from fetches started before the reset will be ignored.
func (f *FeedCache) Reset(partnershipID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partnershipID = partnershipID
	f.epoch++
	f.events = nil
}

// PartnershipID returns the partnership the cache is bound to.
func (f *FeedCache) PartnershipID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.partnershipID
}

// Load fetches events newest-first and replaces the cache wholesale. A load
// that completes after the cache was rebound is discarded.
func (f *FeedCache) Load(ctx context.Context, limit int) error {
	f.mu.Lock()
	if f.partnershipID == "" {
		f.mu.Unlock()
		return errors.New("no active partnership")
	}
	epoch := f.epoch
	f.mu.Unlock()

	events, err := f.api.ListEmotions(ctx, limit)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		// The session or partnership changed while the fetch was in flight.
		return nil
	}
	f.events = events
	return nil
}

// Prepend inserts a realtime-confirmed event, preserving descending
// created_at order. Events for another partnership and duplicates by id are
// dropped. Equal timestamps keep arrival order.
func (f *FeedCache) Prepend(event models.EmotionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.partnershipID == "" || event.PartnershipID != f.partnershipID {
		return
	}
	for _, existing := range f.events {
		if existing.ID == event.ID {
			return
		}
	}

	idx := 0
	for idx < len(f.events) && f.events[idx].CreatedAt.After(event.CreatedAt) {
		idx++
	}

	f.events = append(f.events, models.EmotionEvent{})
	copy(f.events[idx+1:], f.events[idx:])
	f.events[idx] = event
}

// Events returns a snapshot of the cached feed, newest first.
func (f *FeedCache) Events() []models.EmotionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.EmotionEvent, len(f.events))
	copy(out, f.events)
	return out
}

// Submit validates and sends one emotion event. Validation failures happen
// before any network call; at most one submission may be outstanding; on
// failure the cache is left untouched. The created event is returned but not
// added to the cache: display waits for realtime confirmation.
func (f *FeedCache) Submit(ctx context.Context, emotionType, description string) (*models.EmotionEvent, error) {
	if !models.ValidEmotionType(emotionType) {
		return nil, ErrInvalidEmotion
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if !models.ValidDescription(description) {
		return nil, ErrDescriptionTooLong
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitPending
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	return f.api.ShareEmotion(ctx, emotionType, description)
}
