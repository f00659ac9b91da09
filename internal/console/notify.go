package console

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the tone of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

// Notification is a transient message shown to the operator.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier keeps the notifications that have not expired or been
// dismissed. Expired entries are pruned on read.
type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []Notification
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

// Push adds a notification and returns it.
func (n *Notifier) Push(kind Kind, msg string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	item := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}
	n.items = append(n.items, item)
	return item
}

func (n *Notifier) Success(msg string) Notification { return n.Push(KindSuccess, msg) }
func (n *Notifier) Error(msg string) Notification   { return n.Push(KindError, msg) }
func (n *Notifier) Info(msg string) Notification    { return n.Push(KindInfo, msg) }
func (n *Notifier) Warning(msg string) Notification { return n.Push(KindWarning, msg) }

// List returns the live notifications, oldest first.
func (n *Notifier) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	live := n.items[:0]
	for _, it := range n.items {
		if now.Before(it.ExpiresAt) {
			live = append(live, it)
		}
	}
	n.items = live

	out := make([]Notification, len(live))
	copy(out, live)
	return out
}

// Dismiss removes the notification with id and reports whether it existed.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, it := range n.items {
		if it.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}
