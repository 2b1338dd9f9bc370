package events

import "reflect"

// Bus is a synchronous publish/subscribe channel. Subscribers for a given
// event type are invoked in registration order, on the publisher's
// goroutine. The bus performs no buffering: delivery order equals publish
// order.
type Bus struct {
	subscribers map[reflect.Type][]func(any)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[reflect.Type][]func(any))}
}

// Subscribe registers fn for events of type E.
func Subscribe[E any](b *Bus, fn func(E)) {
	t := reflect.TypeOf((*E)(nil)).Elem()
	b.subscribers[t] = append(b.subscribers[t], func(ev any) {
		fn(ev.(E))
	})
}

// Publish delivers ev to every subscriber registered for its type.
func Publish[E any](b *Bus, ev E) {
	t := reflect.TypeOf((*E)(nil)).Elem()
	for _, fn := range b.subscribers[t] {
		fn(ev)
	}
}
