package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sadbytecom/couplex/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle of a realtime subscription.
type State int32

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateSubscribed
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	}
	return "unsubscribed"
}

var (
	// ErrAlreadySubscribed is returned by Subscribe when a subscription is
	// live; use Switch to change partnerships.
	ErrAlreadySubscribed = errors.New("a subscription is already live")
	// ErrSubscriberClosed is returned after Close.
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

// Conn is the read surface the subscriber needs from a websocket
// connection. *websocket.Conn satisfies it.
type Conn interface {
	ReadJSON(v any) error
	Close() error
}

// DialFunc opens a realtime connection.
type DialFunc func(ctx context.Context, url string) (Conn, error)

func defaultDial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// wireMessage is the realtime channel format emitted by the backend.
type wireMessage struct {
	Type          string               `json:"type"`
	PartnershipID string               `json:"partnership_id"`
	Event         *models.EmotionEvent `json:"event"`
}

const (
	defaultBackoffBase = time.Second
	defaultBackoffMax  = 30 * time.Second
	eventQueueSize     = 64
)

// Subscriber maintains one live realtime subscription for the active
// partnership. Insert events arrive on Events() in backend emission order;
// the channel is meant to be drained by a single consumer. Connection loss
// triggers capped exponential backoff reconnects.
type Subscriber struct {
	url          string
	dial         DialFunc
	backoffBase  time.Duration
	backoffMax   time.Duration
	onSubscribed func()

	events chan models.EmotionEvent
	state  atomic.Int32

	mu            sync.Mutex
	partnershipID string
	cancel        context.CancelFunc
	done          chan struct{}
	closed        bool
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithDialer overrides how connections are opened.
func WithDialer(dial DialFunc) SubscriberOption {
	return func(s *Subscriber) { s.dial = dial }
}

// WithBackoff overrides the reconnect backoff bounds.
func WithBackoff(base, max time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		s.backoffBase = base
		s.backoffMax = max
	}
}

// WithOnSubscribed installs a hook invoked each time the backend confirms
// the subscription, including after reconnects.
func WithOnSubscribed(fn func()) SubscriberOption {
	return func(s *Subscriber) { s.onSubscribed = fn }
}

// NewSubscriber creates a subscriber for the realtime endpoint at url.
func NewSubscriber(url string, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		url:         url,
		dial:        defaultDial,
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
		events:      make(chan models.EmotionEvent, eventQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events is the inbound queue of insert events for the active partnership.
// It is closed by Close.
func (s *Subscriber) Events() <-chan models.EmotionEvent {
	return s.events
}

// State reports the current subscription state.
func (s *Subscriber) State() State {
	return State(s.state.Load())
}

// PartnershipID returns the partnership the subscription is scoped to.
func (s *Subscriber) PartnershipID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partnershipID
}

// Subscribe opens the subscription for a partnership id.
func (s *Subscriber) Subscribe(partnershipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	if s.cancel != nil {
		return ErrAlreadySubscribed
	}
	s.start(partnershipID)
	return nil
}

// Switch tears the live subscription down completely, then opens one for the
// new partnership id. At no point are two subscriptions live.
func (s *Subscriber) Switch(partnershipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	s.stopLocked()
	s.start(partnershipID)
	return nil
}

// Unsubscribe tears down the live subscription, if any.
func (s *Subscriber) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.partnershipID = ""
}

// Close is terminal: it tears down the subscription and closes Events.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.closed = true
	close(s.events)
}

// start launches the run loop. Caller holds s.mu.
func (s *Subscriber) start(partnershipID string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.partnershipID = partnershipID
	s.state.Store(int32(StateSubscribing))
	go s.run(ctx, partnershipID, done)
}

// stopLocked cancels the run loop and waits until the connection is fully
// released. Caller holds s.mu.
func (s *Subscriber) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.state.Store(int32(StateUnsubscribed))
}

func (s *Subscriber) run(ctx context.Context, partnershipID string, done chan struct{}) {
	defer close(done)
	defer s.state.Store(int32(StateUnsubscribed))

	backoff := s.backoffBase
	for {
		if ctx.Err() != nil {
			return
		}
		s.state.Store(int32(StateSubscribing))

		conn, err := s.dial(ctx, s.url)
		if err != nil {
			log.Warn().Err(err).Str("partnership_id", partnershipID).Msg("Realtime dial failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, s.backoffMax)
			continue
		}

		// Unblock the blocking read when the subscription is torn down.
		readDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-readDone:
			}
		}()

		err = s.consume(ctx, conn, partnershipID, &backoff)
		close(readDone)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Str("partnership_id", partnershipID).Msg("Realtime connection lost")
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = min(backoff*2, s.backoffMax)
	}
}

// consume reads messages until the connection fails or the subscription is
// torn down. Events for other partnership ids are discarded.
func (s *Subscriber) consume(ctx context.Context, conn Conn, partnershipID string, backoff *time.Duration) error {
	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		switch msg.Type {
		case "subscribed":
			s.state.Store(int32(StateSubscribed))
			*backoff = s.backoffBase
			if s.onSubscribed != nil {
				s.onSubscribed()
			}
		case "emotion_created":
			if msg.Event == nil || msg.Event.PartnershipID != partnershipID {
				continue
			}
			select {
			case s.events <- *msg.Event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
