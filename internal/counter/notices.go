package counter

import (
	"sync"
	"time"
)

// Notice is a transient, user-visible message (toast) produced by the
// transport layer for failures no feature screen owns.
type Notice struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NoticeQueue buffers notices until the UI drains them.
type NoticeQueue struct {
	mu      sync.Mutex
	notices []Notice
}

func NewNoticeQueue() *NoticeQueue {
	return &NoticeQueue{}
}

// Push queues a notice. Safe to call from any goroutine.
func (q *NoticeQueue) Push(message string) {
	if message == "" {
		return
	}
	q.mu.Lock()
	q.notices = append(q.notices, Notice{Message: message, At: time.Now()})
	q.mu.Unlock()
}

// Drain returns the queued notices and empties the queue.
func (q *NoticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	notices := q.notices
	q.notices = nil
	if notices == nil {
		notices = []Notice{}
	}
	return notices
}
