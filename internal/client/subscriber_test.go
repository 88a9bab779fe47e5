package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sadbytecom/couplex/internal/models"
)

// fakeWsConn is a scripted realtime connection: messages pushed with push()
// come out of ReadJSON, and closing the connection fails the pending read.
type fakeWsConn struct {
	msgs   chan wireMessage
	closed chan struct{}
	once   sync.Once
}

func newFakeWsConn() *fakeWsConn {
	return &fakeWsConn{
		msgs:   make(chan wireMessage, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeWsConn) push(msg wireMessage) { c.msgs <- msg }

func (c *fakeWsConn) ReadJSON(v any) error {
	select {
	case msg := <-c.msgs:
		*(v.(*wireMessage)) = msg
		return nil
	case <-c.closed:
		return errors.New("use of closed connection")
	}
}

func (c *fakeWsConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeWsConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeDialer hands out one scripted connection per dial.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeWsConn
	err   error
}

func (d *fakeDialer) dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	conn := newFakeWsConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) conn(i int) *fakeWsConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func subscribedMsg(pid string) wireMessage {
	return wireMessage{Type: "subscribed", PartnershipID: pid}
}

func emotionMsg(id, pid string) wireMessage {
	return wireMessage{
		Type:          "emotion_created",
		PartnershipID: pid,
		Event:         &models.EmotionEvent{ID: id, PartnershipID: pid, EmotionType: "happy"},
	}
}

func newTestSubscriber(t *testing.T, dialer *fakeDialer, opts ...SubscriberOption) *Subscriber {
	t.Helper()
	opts = append([]SubscriberOption{
		WithDialer(dialer.dial),
		WithBackoff(time.Millisecond, 10*time.Millisecond),
	}, opts...)
	sub := NewSubscriber("ws://test/ws", opts...)
	t.Cleanup(sub.Close)
	return sub
}

func TestSubscriber_StateTransitions(t *testing.T) {
	dialer := &fakeDialer{}
	var confirmed atomic.Int32
	sub := newTestSubscriber(t, dialer, WithOnSubscribed(func() { confirmed.Add(1) }))

	if sub.State() != StateUnsubscribed {
		t.Fatalf("expected unsubscribed, got %v", sub.State())
	}

	if err := sub.Subscribe("p1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitFor(t, "dial", func() bool { return dialer.dialCount() == 1 })

	dialer.conn(0).push(subscribedMsg("p1"))
	waitFor(t, "subscribed state", func() bool { return sub.State() == StateSubscribed })

	if confirmed.Load() != 1 {
		t.Fatalf("expected one confirmation callback, got %d", confirmed.Load())
	}
	if sub.PartnershipID() != "p1" {
		t.Fatalf("expected partnership p1, got %q", sub.PartnershipID())
	}

	sub.Unsubscribe()
	if sub.State() != StateUnsubscribed {
		t.Fatalf("expected unsubscribed after teardown, got %v", sub.State())
	}
	if !dialer.conn(0).isClosed() {
		t.Fatal("expected connection to be closed on unsubscribe")
	}
}

func TestSubscriber_DeliversEventsInOrder(t *testing.T) {
	dialer := &fakeDialer{}
	sub := newTestSubscriber(t, dialer)

	if err := sub.Subscribe("p1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitFor(t, "dial", func() bool { return dialer.dialCount() == 1 })

	conn := dialer.conn(0)
	conn.push(subscribedMsg("p1"))
	conn.push(emotionMsg("e1", "p1"))
	conn.push(emotionMsg("e2", "p1"))
	conn.push(emotionMsg("e3", "p1"))

	for _, want := range []string{"e1", "e2", "e3"} {
		select {
		case got := <-sub.Events():
			if got.ID != want {
				t.Fatalf("expected %s, got %s", want, got.ID)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestSubscriber_DiscardsForeignEvents(t *testing.T) {
	dialer := &fakeDialer{}
	sub := newTestSubscriber(t, dialer)

	if err := sub.Subscribe("p1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitFor(t, "dial", func() bool { return dialer.dialCount() == 1 })

	conn := dialer.conn(0)
	conn.push(subscribedMsg("p1"))
	conn.push(emotionMsg("foreign", "other"))
	conn.push(emotionMsg("mine", "p1"))

	select {
	case got := <-sub.Events():
		if got.ID != "mine" {
			t.Fatalf("expected foreign event to be dropped, got %s", got.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscriber_SecondSubscribeRejected(t *testing.T) {
	dialer := &fakeDialer{}
	sub := newTestSubscriber(t, dialer)

	if err := sub.Subscribe("p1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := sub.Subscribe("p2"); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
}

func TestSubscriber_SwitchTearsDownBeforeDialing(t *testing.T) {
	dialer := &fakeDialer{}
	sub := newTestSubscriber(t, dialer)

	if err := sub.Subscribe("p1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitFor(t, "first dial", func() bool { return dialer.dialCount() == 1 })
	dialer.conn(0).push(subscribedMsg("p1"))
	waitFor(t, "subscribed", func() bool { return sub.State() == StateSubscribed })

	if err := sub.Switch("p2"); err != nil {
		t.Fatalf("switch failed: %v", err)
	}

	// Switch returns only after the old subscription is fully released.
	if !dialer.conn(0).isClosed() {
		t.Fatal("expected old connection to be closed before the switch returns")
	}
	if sub.PartnershipID() != "p2" {
		t.Fatalf("expected partnership p2, got %q", sub.PartnershipID())
	}

	waitFor(t, "second dial", func() bool { return dialer.dialCount() == 2 })
	dialer.conn(1).push(subscribedMsg("p2"))
	dialer.conn(1).push(emotionMsg("e1", "p2"))

	select {
	case got := <-sub.Events():
		if got.PartnershipID != "p2" {
			t.Fatalf("expected event for p2, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event on new subscription")
	}
}

func TestSubscriber_ReconnectsAfterConnectionLoss(t *testing.T) {
	dialer := &fakeDialer{}
	var confirmed atomic.Int32
	sub := newTestSubscriber(t, dialer, WithOnSubscribed(func() { confirmed.Add(1) }))

	if err := sub.Subscribe("p1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitFor(t, "first dial", func() bool { return dialer.dialCount() == 1 })
	dialer.conn(0).push(subscribedMsg("p1"))
	waitFor(t, "subscribed", func() bool { return sub.State() == StateSubscribed })

	// Simulate a dropped connection; the subscriber must dial again and the
	// confirmation hook must fire once more so the feed can refetch.
	dialer.conn(0).Close()

	waitFor(t, "second dial", func() bool { return dialer.dialCount() == 2 })
	dialer.conn(1).push(subscribedMsg("p1"))
	waitFor(t, "resubscribed", func() bool { return confirmed.Load() == 2 })

	dialer.conn(1).push(emotionMsg("e1", "p1"))
	select {
	case got := <-sub.Events():
		if got.ID != "e1" {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for post-reconnect event")
	}
}

func TestSubscriber_Close(t *testing.T) {
	dialer := &fakeDialer{}
	sub := NewSubscriber("ws://test/ws", WithDialer(dialer.dial), WithBackoff(time.Millisecond, 10*time.Millisecond))

	if err := sub.Subscribe("p1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	waitFor(t, "dial", func() bool { return dialer.dialCount() == 1 })

	sub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected events channel to be closed")
	}
	if err := sub.Subscribe("p2"); !errors.Is(err, ErrSubscriberClosed) {
		t.Fatalf("expected ErrSubscriberClosed, got %v", err)
	}
	if !dialer.conn(0).isClosed() {
		t.Fatal("expected connection to be closed")
	}

	// Close is idempotent.
	sub.Close()
}
