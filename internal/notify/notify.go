// Package notify collects user-visible notifications. It is the Go
// rendition of an app-global toast stack: producers push, the view
// layer drains what it shows.
package notify

import "sync"

// Level indicates how a notification should be presented.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a single user-visible message.
type Notification struct {
	Level   Level
	Message string
}

// Center is a process-wide notification stack. It implements the
// auth controller's Notifier interface.
type Center struct {
	mu      sync.Mutex
	pending []Notification
}

func NewCenter() *Center {
	return &Center{}
}

// Success pushes a success notification.
func (c *Center) Success(msg string) {
	c.push(Notification{Level: LevelSuccess, Message: msg})
}

// Error pushes an error notification.
func (c *Center) Error(msg string) {
	c.push(Notification{Level: LevelError, Message: msg})
}

// Drain returns all pending notifications and clears them. Each
// notification is returned exactly once.
func (c *Center) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.pending
	c.pending = nil
	return pending
}

func (c *Center) push(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, n)
}
