package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

const feedLimit = 20

// App owns the mutable client state: the session, the feed cache bound to
// the active partnership and the single realtime subscription. It replaces
// ambient globals with explicit create/destroy lifecycle calls.
type App struct {
	api      *API
	sessions *SessionStore
	resolver *Resolver
	feed     *FeedCache
	bridge   *NotificationBridge
	wsBase   string
	subOpts  []SubscriberOption

	mu             sync.Mutex
	session        *Session
	sub            *Subscriber
	dispatchCancel context.CancelFunc
}

// NewApp wires the client components. stateDir is where the session blob
// lives; presenter may be nil to disable notifications.
func NewApp(baseURL, stateDir string, presenter Presenter, subOpts ...SubscriberOption) *App {
	api := NewAPI(baseURL)
	var bridge *NotificationBridge
	if presenter != nil {
		bridge = NewNotificationBridge(presenter)
	}
	return &App{
		api:      api,
		sessions: NewSessionStore(stateDir),
		resolver: NewResolver(api),
		feed:     NewFeedCache(api),
		bridge:   bridge,
		wsBase:   wsBaseURL(baseURL),
		subOpts:  subOpts,
	}
}

// wsBaseURL derives the websocket endpoint from the HTTP base URL.
func wsBaseURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return baseURL
}

// Feed exposes the emotion feed cache.
func (a *App) Feed() *FeedCache {
	return a.feed
}

// Resolver exposes the partnership resolver.
func (a *App) Resolver() *Resolver {
	return a.resolver
}

// Bridge exposes the notification bridge, nil when disabled.
func (a *App) Bridge() *NotificationBridge {
	return a.bridge
}

// Session returns the active session, nil when logged out.
func (a *App) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// RestoreSession loads a persisted session, if any.
func (a *App) RestoreSession() bool {
	sess, ok := a.sessions.Restore()
	if !ok {
		return false
	}
	a.adoptSession(sess)
	return true
}

// Register creates a new user and starts a session.
func (a *App) Register(ctx context.Context, username string) error {
	sess, err := a.api.CreateUser(ctx, username)
	if err != nil {
		return err
	}
	return a.beginSession(sess)
}

// Login authenticates by unique code and starts a session.
func (a *App) Login(ctx context.Context, code string) error {
	sess, err := a.api.LoginByCode(ctx, code)
	if err != nil {
		return err
	}
	return a.beginSession(sess)
}

func (a *App) beginSession(sess *Session) error {
	if err := a.sessions.Save(sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	a.adoptSession(sess)
	return nil
}

func (a *App) adoptSession(sess *Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = sess
	a.api.SetToken(sess.Token)
}

// Refresh resolves the partnership and reconciles local state: a changed
// partnership id rebuilds the feed cache and switches the realtime
// subscription, guaranteeing exactly one live subscription afterwards.
func (a *App) Refresh(ctx context.Context) (*PartnerInfo, error) {
	a.mu.Lock()
	sess := a.session
	a.mu.Unlock()
	if sess == nil {
		return nil, fmt.Errorf("no active session")
	}

	info, err := a.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Connected {
		return info, nil
	}

	if a.feed.PartnershipID() != info.PartnershipID {
		a.feed.Reset(info.PartnershipID)
	}
	if err := a.feed.Load(ctx, feedLimit); err != nil {
		return nil, err
	}

	if err := a.ensureSubscription(sess, info.PartnershipID); err != nil {
		return nil, err
	}

	return info, nil
}

// ensureSubscription opens or switches the realtime subscription so that
// exactly one is live for the given partnership id.
func (a *App) ensureSubscription(sess *Session, partnershipID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sub == nil {
		wsURL := a.wsBase + "/ws?token=" + url.QueryEscape(sess.Token)
		opts := append([]SubscriberOption{
			WithOnSubscribed(func() {
				// Converge with the server after every (re)subscribe; inserts
				// missed while disconnected are picked up by the refetch.
				go a.feed.Load(context.Background(), feedLimit)
			}),
		}, a.subOpts...)
		a.sub = NewSubscriber(wsURL, opts...)

		ctx, cancel := context.WithCancel(context.Background())
		a.dispatchCancel = cancel
		go Dispatch(ctx, a.sub.Events(), a.feed, a.bridge, sess.User.ID)

		return a.sub.Subscribe(partnershipID)
	}

	if a.sub.PartnershipID() != partnershipID {
		return a.sub.Switch(partnershipID)
	}
	return nil
}

// Logout destroys the session: the subscription is closed, in-flight fetch
// results for the old session are discarded, and the persisted session is
// cleared.
func (a *App) Logout() error {
	a.mu.Lock()
	sub := a.sub
	cancel := a.dispatchCancel
	a.sub = nil
	a.dispatchCancel = nil
	a.session = nil
	a.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if cancel != nil {
		cancel()
	}

	a.feed.Reset("")
	a.api.SetToken("")
	return a.sessions.Clear()
}
