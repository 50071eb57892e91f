package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// Router fans one notification out to every channel serving its kind.
type Router struct {
	channels []Channel
	log      Logger
}

// NewRouter builds a router over the given channels, dropping nil entries.
func NewRouter(chs []Channel, log Logger) *Router {
	cp := make([]Channel, 0, len(chs))
	for _, c := range chs {
		if c == nil {
			continue
		}
		cp = append(cp, c)
	}
	return &Router{channels: cp, log: ensureLogger(log)}
}

// Deliver forwards the notification to every channel of its kind.
// It returns the number of channels that accepted the message; failures
// are aggregated but never stop the remaining channels.
func (r *Router) Deliver(ctx context.Context, n domain.Notification) (int, error) {
	if r == nil || len(r.channels) == 0 {
		return 0, nil
	}

	msg := NewMessage(n)

	var errs []error
	delivered := 0
	for _, c := range r.channels {
		if c.Kind() != n.Channel {
			continue
		}
		if err := c.Deliver(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s channel[%s]: %w", c.Kind(), c.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of active channels.
func (r *Router) Size() int {
	if r == nil {
		return 0
	}
	return len(r.channels)
}

// Close releases channels that hold external clients.
func (r *Router) Close() error {
	if r == nil {
		return nil
	}

	var errs []error
	for _, c := range r.channels {
		closer, ok := c.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel %q: %w", c.ID(), err))
		}
	}
	return errors.Join(errs...)
}
