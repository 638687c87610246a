package draft

import "sync"

type NotificationKind string

const (
	KindInfo               NotificationKind = "info"
	KindGatewayFailure     NotificationKind = "gateway_failure"
	KindPersistenceFailure NotificationKind = "persistence_failure"
)

// Notification is a short user-facing message: a title and a one-line
// description. Failures are non-fatal; the coordinator stays editable.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
}

type Notifier interface {
	Notify(n Notification)
}

// Queue is a Notifier the presentation layer drains on its next poll.
type Queue struct {
	mu    sync.Mutex
	items []Notification
}

func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

// Drain returns pending notifications and clears the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
