// Package dispatch routes command and query values to their registered
// handlers. Every mutation and query in the system passes through one
// Dispatcher so boundaries get a uniform contract: a typed result or a
// typed error, never a propagating panic.
package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/internal/logger"
)

type handlerFunc func(ctx context.Context, req any) (any, error)

// Dispatcher maps each request type to exactly one handler. The registry
// is populated at startup and read-only afterwards.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]handlerFunc
	log      logger.Logger
}

func New(log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		handlers: make(map[reflect.Type]handlerFunc),
		log:      log,
	}
}

// Register binds handle as the single handler for Req. Registering a
// second handler for the same request type is a programming error and
// panics.
func Register[Req, Res any](d *Dispatcher, handle func(context.Context, Req) (Res, error)) {
	t := reflect.TypeOf((*Req)(nil)).Elem()

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.handlers[t]; dup {
		panic(fmt.Sprintf("dispatch: handler already registered for %s", t))
	}
	log := d.log
	d.handlers[t] = func(ctx context.Context, req any) (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorObj("handler panicked", "request", map[string]any{
					"type":  t.String(),
					"panic": fmt.Sprint(r),
				})
				res, err = nil, domain.Internal("handling %s failed unexpectedly", t)
			}
		}()
		return handle(ctx, req.(Req))
	}
}

// Send routes req to its handler and returns the typed result. Sending a
// request type nothing registered is a programming error and panics;
// business failures come back as errors carrying a domain code.
func Send[Req, Res any](ctx context.Context, d *Dispatcher, req Req) (Res, error) {
	t := reflect.TypeOf((*Req)(nil)).Elem()

	d.mu.RLock()
	h, ok := d.handlers[t]
	d.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("dispatch: no handler registered for %s", t))
	}

	d.log.DebugObj("dispatching", "request", t.String())
	res, err := h(ctx, req)
	if err != nil {
		var zero Res
		return zero, err
	}
	return res.(Res), nil
}
