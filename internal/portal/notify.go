package portal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DismissAfter is how long a notification stays visible.
const DismissAfter = 5 * time.Second

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a transient message shown to the user.
type Notification struct {
	ID      string
	Message string
	Kind    Kind
}

// scheduleFunc runs f after d and returns a function cancelling it.
type scheduleFunc func(d time.Duration, f func()) (cancel func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Notifier keeps the visible notifications in emission order.
type Notifier struct {
	mu       sync.Mutex
	items    []Notification
	cancels  map[string]func() bool
	schedule scheduleFunc
}

// NewNotifier returns an empty notifier using real timers.
func NewNotifier() *Notifier {
	return newNotifier(afterFunc)
}

func newNotifier(schedule scheduleFunc) *Notifier {
	return &Notifier{
		cancels:  make(map[string]func() bool),
		schedule: schedule,
	}
}

// Notify shows a message and schedules its dismissal. It returns the notification id.
func (n *Notifier) Notify(kind Kind, message string) string {
	id := uuid.NewString()

	n.mu.Lock()
	n.items = append(n.items, Notification{ID: id, Message: message, Kind: kind})
	n.mu.Unlock()

	cancel := n.schedule(DismissAfter, func() { n.Dismiss(id) })

	n.mu.Lock()
	if n.indexOf(id) >= 0 {
		n.cancels[id] = cancel
	}
	n.mu.Unlock()
	return id
}

// Dismiss removes a notification. Unknown ids are ignored.
func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if cancel, ok := n.cancels[id]; ok {
		cancel()
		delete(n.cancels, id)
	}
	if i := n.indexOf(id); i >= 0 {
		n.items = append(n.items[:i], n.items[i+1:]...)
	}
}

// List returns the visible notifications, oldest first.
func (n *Notifier) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Close cancels pending dismissals.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, cancel := range n.cancels {
		cancel()
		delete(n.cancels, id)
	}
}

func (n *Notifier) indexOf(id string) int {
	for i, item := range n.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
