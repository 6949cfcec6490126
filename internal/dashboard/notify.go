package dashboard

import (
	"sync"
	"time"
)

// Kind is a notification style.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 5 * time.Second

// Notification is a transient message.
type Notification struct {
	ID        uint64
	Message   string
	Kind      Kind
	CreatedAt time.Time
}

// Notifier keeps a stack of notifications, each removed after its TTL.
// Dismissal is time-based only.
type Notifier struct {
	ttl time.Duration

	mu     sync.RWMutex
	items  []Notification
	timers map[uint64]*time.Timer
	nextID uint64
	closed bool
}

// NewNotifier creates a notifier. A non-positive ttl uses DefaultNotificationTTL.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl, timers: make(map[uint64]*time.Timer)}
}

// Notify pushes a notification and schedules its removal.
func (n *Notifier) Notify(message string, kind Kind) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	item := Notification{
		ID:        n.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	if n.closed {
		return item
	}

	n.items = append(n.items, item)
	id := item.ID
	n.timers[id] = time.AfterFunc(n.ttl, func() { n.dismiss(id) })
	return item
}

func (n *Notifier) dismiss(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.timers, id)
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

// Active returns the visible notifications, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Close stops pending timers and drops every notification.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.items = nil
	n.closed = true
}
