/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roster

import "sync"

type Source int

const (
	// SourceLocal marks a change made through this Store.
	SourceLocal Source = iota
	// SourceExternal marks a change another process wrote to the shared backend.
	SourceExternal
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceExternal:
		return "external"
	}
	return "unknown"
}

// Event tells subscribers the roster changed and should be re-read.
// PlayerID is set for toggles and zero otherwise.
type Event struct {
	Source   Source
	PlayerID int
}

type broker struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func newBroker() *broker {
	return &broker{
		subs: make(map[chan Event]struct{}),
	}
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)

		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

// publish never blocks; a subscriber whose buffer is full misses the event.
func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
