package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/workflow"
)

// Session binds one workflow controller to the subscribers watching it.
type Session struct {
	ID         string
	Controller *workflow.Controller
	Broker     *Broker
	CreatedAt  time.Time
}

// ControllerFactory builds a controller that reports changes to onChange.
type ControllerFactory func(onChange func(workflow.Snapshot)) (*workflow.Controller, error)

type StoreOptions struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	NewController   ControllerFactory
	Logger          *zerolog.Logger
}

// Store keeps sessions in memory with a sliding TTL. Nothing survives a
// restart.
type Store struct {
	// mu orders TTL refreshes against deletion so a deleted session is
	// never re-inserted.
	mu            sync.Mutex
	cache         *cache.Cache
	ttl           time.Duration
	newController ControllerFactory
	logger        zerolog.Logger
}

func NewStore(opts StoreOptions) (*Store, error) {
	if opts.NewController == nil {
		return nil, errors.New("session: controller factory is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	s := &Store{
		cache:         cache.New(ttl, cleanup),
		ttl:           ttl,
		newController: opts.NewController,
		logger:        logger,
	}
	s.cache.OnEvicted(func(id string, v interface{}) {
		if sess, ok := v.(*Session); ok {
			// an expired session with a call in flight finishes unobserved
			_ = sess.Controller.Close()
			sess.Broker.Close()
			s.logger.Debug().Str("session_id", id).Msg("session: evicted")
		}
	})
	return s, nil
}

// Create opens a new session in the Idle state.
func (s *Store) Create() (*Session, error) {
	broker := NewBroker()
	ctrl, err := s.newController(broker.Publish)
	if err != nil {
		return nil, fmt.Errorf("session: create controller: %w", err)
	}
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: ctrl,
		Broker:     broker,
		CreatedAt:  time.Now(),
	}
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
	s.logger.Debug().Str("session_id", sess.ID).Msg("session: created")
	return sess, nil
}

// Get returns the session and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

// Touch extends the lifetime of a live session and reports whether it exists.
func (s *Store) Touch(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Delete removes an idle session. Sessions with a provider call in flight
// return domain.ErrInvalidTransition. The controller is closed before the
// session leaves the store, so no new work can start on it.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(id)
	if !ok {
		return domain.ErrNotFound
	}
	if err := v.(*Session).Controller.Close(); err != nil {
		return fmt.Errorf("session is generating: %w", err)
	}
	s.cache.Delete(id)
	return nil
}

func (s *Store) Count() int {
	return s.cache.ItemCount()
}

// Stats counts live sessions per workflow phase.
func (s *Store) Stats() map[workflow.Phase]int {
	out := make(map[workflow.Phase]int)
	for _, item := range s.cache.Items() {
		if sess, ok := item.Object.(*Session); ok {
			out[sess.Controller.Snapshot().Phase]++
		}
	}
	return out
}

// Watchers counts event subscribers across live sessions.
func (s *Store) Watchers() int {
	n := 0
	for _, item := range s.cache.Items() {
		if sess, ok := item.Object.(*Session); ok {
			n += sess.Broker.Subscribers()
		}
	}
	return n
}

// Flush drops every session, closing their brokers.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}
