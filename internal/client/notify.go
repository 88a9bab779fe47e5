package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/sadbytecom/couplex/internal/models"
)

// Permission mirrors the platform notification permission states.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

const (
	notificationIcon  = "/heart-icon.png"
	notificationBadge = "/badge-icon.png"
	notificationURL   = "/"
)

// Notification is the payload surfaced to the platform notification
// service. The click target focuses an existing window if present, else
// opens a new one; that behavior belongs to the presenter.
type Notification struct {
	Title     string
	Body      string
	Icon      string
	Badge     string
	Tag       string
	URL       string
	Vibration []int
}

// Presenter is the external collaborator that actually displays
// notifications and owns the permission prompt.
type Presenter interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Show(n Notification) error
}

// NotificationBridge gates notification display behind the platform
// permission and guarantees at most one display per qualifying event. It
// never decides authorship; callers must not route self-authored events
// here.
type NotificationBridge struct {
	presenter Presenter

	mu         sync.Mutex
	permission Permission
	shown      map[string]struct{}
}

// NewNotificationBridge creates a bridge over the given presenter.
func NewNotificationBridge(presenter Presenter) *NotificationBridge {
	return &NotificationBridge{
		presenter: presenter,
		shown:     make(map[string]struct{}),
	}
}

// RequestPermission prompts at most once. Once granted or denied, the
// answer is cached and the platform is never re-prompted.
func (b *NotificationBridge) RequestPermission(ctx context.Context) Permission {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.permission != PermissionDefault {
		return b.permission
	}

	perm, err := b.presenter.RequestPermission(ctx)
	if err != nil {
		return PermissionDefault
	}
	b.permission = perm
	return b.permission
}

// Permission returns the cached permission state.
func (b *NotificationBridge) Permission() Permission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.permission
}

// Notify attempts one display. No-op unless permission is granted; a tag
// that was already displayed is dropped.
func (b *NotificationBridge) Notify(title, body, tag string) {
	b.mu.Lock()
	if b.permission != PermissionGranted {
		b.mu.Unlock()
		return
	}
	if tag != "" {
		if _, dup := b.shown[tag]; dup {
			b.mu.Unlock()
			return
		}
		b.shown[tag] = struct{}{}
	}
	b.mu.Unlock()

	_ = b.presenter.Show(Notification{
		Title:     title,
		Body:      body,
		Icon:      notificationIcon,
		Badge:     notificationBadge,
		Tag:       tag,
		URL:       notificationURL,
		Vibration: []int{200, 100, 200},
	})
}

// NotifyEmotion displays an alert for a partner-authored emotion event,
// de-duplicated by event id.
func (b *NotificationBridge) NotifyEmotion(event models.EmotionEvent) {
	b.Notify("Couplex", fmt.Sprintf("Partner shared an emotion: %s", event.EmotionType), event.ID)
}
