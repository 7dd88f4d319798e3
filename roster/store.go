/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package roster persists a fixed-size list of players and their
// alive/eliminated state in a key-value Storage, and tells subscribers
// whenever it changes.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
)

const (
	DefaultSize = 456
	DefaultKey  = "squidGameStatus"
)

var ErrInvalidSize = errors.New("roster size must be at least 1")

type Option func(*Store)

func WithSize(n int) Option {
	return func(s *Store) {
		s.size = n
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger sets the printf-style function used for diagnostic output.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(s *Store) {
		s.logf = logf
	}
}

// Store reads the roster from its backend on every call; nothing is cached
// between calls, so other processes sharing the backend are always seen.
type Store struct {
	backend Storage
	key     string
	size    int
	logf    func(format string, args ...any)

	mu sync.Mutex
	// lastWritten is what this store last saved; lastExternal is the last
	// foreign value announced. Reads touch neither.
	lastWritten  string
	lastExternal string

	events *broker
}

func New(backend Storage, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("roster storage is required")
	}

	s := &Store{
		backend: backend,
		key:     DefaultKey,
		size:    DefaultSize,
		logf:    func(string, ...any) {},
		events:  newBroker(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, s.size)
	}
	if s.key == "" {
		return nil, errors.New("roster storage key is required")
	}

	return s, nil
}

func (s *Store) Size() int {
	return s.size
}

func (s *Store) Key() string {
	return s.key
}

// snapshot is one read of the slot: the sized view callers see, plus stored
// records that fall outside it.
type snapshot struct {
	players Roster
	rest    Roster
}

func (s *Store) saveLocked(snap snapshot) error {
	data, err := json.Marshal(append(slices.Clone(snap.players), snap.rest...))
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}

	if err := s.backend.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	s.lastWritten = string(data)
	s.lastExternal = ""

	return nil
}

func (s *Store) createLocked() (snapshot, error) {
	snap := snapshot{players: newRoster(s.size)}
	if err := s.saveLocked(snap); err != nil {
		return snapshot{}, err
	}

	s.logf("ROSTER: Created %d players under %q", s.size, s.key)

	return snap, nil
}

// loadLocked never writes, except to create the roster when the slot is
// empty. Defaults filled in here reach storage with the next mutation.
func (s *Store) loadLocked() (snapshot, error) {
	raw, ok, err := s.backend.Get(s.key)
	if err != nil {
		return snapshot{}, fmt.Errorf("read roster: %w", err)
	}
	if !ok {
		return s.createLocked()
	}

	var stored Roster
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logf("ROSTER: Ignoring unreadable roster under %q until the next change: %v", s.key, err)

		return snapshot{players: newRoster(s.size)}, nil
	}

	players, rest := upgrade(stored, s.size)

	return snapshot{players: players, rest: rest}, nil
}

// Initialize returns the stored roster, creating and persisting a fresh one
// when none exists yet. Stored records outside 1..Size are not returned but
// are kept in storage.
func (s *Store) Initialize() (Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	return snap.players, nil
}

// All returns the current roster.
func (s *Store) All() (Roster, error) {
	return s.Initialize()
}

// Player returns a single record.
func (s *Store) Player(id int) (Player, bool, error) {
	r, err := s.All()
	if err != nil {
		return Player{}, false, err
	}

	p, ok := r.Find(id)

	return p, ok, nil
}

// Toggle flips the alive flag of one player and rewrites the whole roster.
// Unknown ids are ignored without writing anything.
func (s *Store) Toggle(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if err != nil {
		return err
	}

	i := snap.players.index(id)
	if i < 0 {
		return nil
	}

	snap.players[i].Alive = !snap.players[i].Alive
	if err := s.saveLocked(snap); err != nil {
		return err
	}

	s.logf("ROSTER: Player %d status toggled to: %s", id, snap.players[i].Status())

	s.events.publish(Event{Source: SourceLocal, PlayerID: id})

	return nil
}

// Reset marks every player alive again.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if err != nil {
		return err
	}

	for i := range snap.players {
		snap.players[i].Alive = true
	}
	if err := s.saveLocked(snap); err != nil {
		return err
	}

	s.logf("ROSTER: Reset %d players under %q", len(snap.players), s.key)

	s.events.publish(Event{Source: SourceLocal})

	return nil
}

func (s *Store) EliminatedCount() (int, error) {
	r, err := s.All()
	if err != nil {
		return 0, err
	}
	return r.EliminatedCount(), nil
}

func (s *Store) AliveCount() (int, error) {
	r, err := s.All()
	if err != nil {
		return 0, err
	}
	return len(r) - r.EliminatedCount(), nil
}

// MostRecentlyEliminated returns the eliminated player with the highest id,
// or NoneEliminated.
func (s *Store) MostRecentlyEliminated() (Player, error) {
	r, err := s.All()
	if err != nil {
		return Player{}, err
	}
	return r.MostRecentlyEliminated(), nil
}

func (s *Store) Summary() (Summary, error) {
	r, err := s.All()
	if err != nil {
		return Summary{}, err
	}
	return r.Summary(), nil
}

// Subscribe registers for change events. The returned function
// unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	return s.events.subscribe(buffer)
}

// Watch forwards writes made by other processes to subscribers until ctx is
// done. Backends that cannot observe such writes are left unwatched.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.backend.(Watcher)
	if !ok {
		s.logf("ROSTER: Storage backend does not report external changes")

		return nil
	}

	return w.Watch(ctx, s.key, s.externalChange)
}

func (s *Store) externalChange() {
	raw, ok, err := s.backend.Get(s.key)
	if err != nil || !ok {
		return
	}

	s.mu.Lock()
	if raw == s.lastWritten || raw == s.lastExternal {
		s.mu.Unlock()

		return
	}
	s.lastWritten = ""
	s.lastExternal = raw
	s.mu.Unlock()

	s.logf("ROSTER: Roster under %q changed externally", s.key)

	s.events.publish(Event{Source: SourceExternal})
}

// Close ends every subscription.
func (s *Store) Close() {
	s.events.close()
}
