// Package events delivers typed change notifications to subscribers.
package events

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

// Handler receives one event. A returned error is reported but does not stop
// delivery to other handlers.
type Handler func(Event) error

type subscription struct {
	id      int
	handler Handler
}

// Bus fans events out synchronously, in subscription order. It is not safe
// for concurrent use.
type Bus struct {
	log    zerolog.Logger
	nextID int
	subs   []subscription
}

func NewBus(log zerolog.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})
	return func() {
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Publish delivers e to every subscriber registered at the time of the call.
// Handler errors and panics are logged and joined into the returned error.
func (b *Bus) Publish(e Event) error {
	var errs []error
	for _, s := range slices.Clone(b.subs) {
		if err := b.deliver(s.handler, e); err != nil {
			b.log.Error().Err(err).Str("event", e.Kind()).Int("subscriber", s.id).Msg("subscriber failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked on %s: %v", e.Kind(), r)
		}
	}()
	return h(e)
}
