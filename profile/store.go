package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of profile edits into one save.
const DefaultDebounce = 2 * time.Second

const saveTimeout = 10 * time.Second

// Store is the in-memory profile shared by the game, with saves pushed to a
// Backend. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	current  Profile
	debounce time.Duration
	timer    *time.Timer
	log      zerolog.Logger

	saveMu sync.Mutex
}

func NewStore(backend Backend, debounce time.Duration, log zerolog.Logger) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Store{backend: backend, current: Default(), debounce: debounce, log: log}
}

// Load replaces the in-memory profile with the stored one. A missing record
// leaves a fresh default profile in place.
func (s *Store) Load(ctx context.Context) error {
	p, err := s.backend.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info().Msg("no saved profile, starting fresh")
			return nil
		}
		return err
	}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current profile.
func (s *Store) Get() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Set applies an update in memory. Callers choose when to save.
func (s *Store) Set(fn func(*Profile)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	fn(&s.current)
	s.current.normalize()
	s.mu.Unlock()
}

// Replace swaps in a whole profile, as an import does.
func (s *Store) Replace(p Profile) {
	p.normalize()
	s.mu.Lock()
	s.current = p.Clone()
	s.mu.Unlock()
}

// SaveDebounced schedules a save after the debounce window, restarting the
// window if one is already pending.
func (s *Store) SaveDebounced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.Save(ctx); err != nil {
			s.log.Error().Err(err).Msg("debounced profile save failed")
		}
	})
}

// SaveNow starts an immediate save in the background. The returned channel
// receives the result once.
func (s *Store) SaveNow() <-chan error {
	s.cancelPending()
	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		err := s.Save(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("profile save failed")
		}
		done <- err
	}()
	return done
}

// Save writes the current profile synchronously.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	s.current.UpdatedAt = time.Now().UTC()
	snapshot := s.current.Clone()
	s.mu.Unlock()
	return s.backend.Store(ctx, snapshot)
}

// Flush drops any pending debounced save and saves immediately.
func (s *Store) Flush(ctx context.Context) error {
	s.cancelPending()
	return s.Save(ctx)
}

func (s *Store) cancelPending() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
}
