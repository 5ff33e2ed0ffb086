package notify

import (
	"time"

	"github.com/google/uuid"

	"taskflow/internal/cache"
)

// Level of a toast
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// DefaultTTL is how long a toast stays visible
const DefaultTTL = 4 * time.Second

// Toast is a transient notification
type Toast struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Center holds the toasts that are still visible.
type Center struct {
	toasts *cache.TTL[string, Toast]
	ttl    time.Duration
	now    func() time.Time
}

// New returns a Center. Zero ttl means DefaultTTL, nil clock means time.Now.
func New(ttl time.Duration, clock func() time.Time) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Center{
		toasts: cache.NewTTL[string, Toast](clock),
		ttl:    ttl,
		now:    clock,
	}
}

// Push shows a toast and returns it
func (c *Center) Push(level Level, message string) Toast {
	t := Toast{ID: uuid.NewString(), Level: level, Message: message, At: c.now()}
	c.toasts.Set(t.ID, t, c.ttl)
	c.toasts.PurgeExpired()
	return t
}

// Dismiss hides a toast before it expires
func (c *Center) Dismiss(id string) {
	c.toasts.Delete(id)
}

// Active returns the visible toasts, oldest first.
func (c *Center) Active() []Toast {
	return c.toasts.Values()
}
