package session

import (
	"sync"
	"time"
)

// StoreOption customizes SessionStore construction.
type StoreOption func(*SessionStore)

// WithStoreLogger overrides the default logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock injects a custom clock (useful for tests).
func WithStoreClock(clock Clock) StoreOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithStoreLoadMargin overrides the strict margin applied when a
// persisted credential is re-validated on load.
func WithStoreLoadMargin(margin time.Duration) StoreOption {
	return func(s *SessionStore) {
		if margin > 0 {
			s.loadMargin = margin
		}
	}
}

type subscriber struct {
	id int
	fn func(Session)
}

// SessionStore is the process-wide authentication state container. All
// mutation goes through Set, Clear, and Load; credential and claims are
// always updated together so observers never see a torn snapshot.
type SessionStore struct {
	mu          sync.RWMutex
	storage     Storage
	logger      Logger
	now         Clock
	loadMargin  time.Duration
	credential  string
	claims      *ClaimSet
	loading     bool
	subscribers []subscriber
	nextSubID   int
}

// NewSessionStore returns a store in the loading state. Call Load to
// hydrate it from persistent storage.
func NewSessionStore(storage Storage, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		storage:    storage,
		logger:     defLogger{},
		now:        time.Now,
		loadMargin: DefaultLoadMargin,
		loading:    true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Load hydrates the store from persistent storage. A missing, expired,
// near-expiry, or malformed persisted credential starts the session
// unauthenticated and removes the stored value; none of these are fatal.
func (s *SessionStore) Load() {
	s.mu.Lock()

	raw, found, err := s.storage.Read()
	if err != nil {
		s.logger.Warn("session load: storage read failed", "error", err)
		found = false
	}

	if !found {
		s.applyLocked("", nil, false)
		s.mu.Unlock()
		s.notify()
		return
	}

	raw = NormalizeCredential(raw)

	claims, err := DecodeCredential(raw)
	if err != nil {
		s.logger.Warn("session load: persisted credential is malformed, clearing", "error", err)
		s.deleteStoredLocked()
		s.applyLocked("", nil, false)
		s.mu.Unlock()
		s.notify()
		return
	}

	if Classify(claims, s.now(), s.loadMargin) != FreshnessValid {
		s.logger.Info("session load: persisted credential expired, clearing", "subject", claims.Subject)
		s.deleteStoredLocked()
		s.applyLocked("", nil, false)
		s.mu.Unlock()
		s.notify()
		return
	}

	s.applyLocked(raw, claims, false)
	s.mu.Unlock()
	s.notify()
}

// Get returns the current snapshot.
func (s *SessionStore) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{
		Credential: s.credential,
		Claims:     s.claims,
		Loading:    s.loading,
	}
}

// Set normalizes, decodes, and persists a new raw credential. A decode
// failure clears the session and is returned to the caller; the store
// never holds a credential without matching claims.
func (s *SessionStore) Set(raw string) error {
	raw = NormalizeCredential(raw)

	claims, err := DecodeCredential(raw)
	if err != nil {
		s.logger.Error("session set: unable to decode credential", "error", err)
		if clearErr := s.Clear(); clearErr != nil {
			s.logger.Warn("session set: clear after decode failure", "error", clearErr)
		}
		return err
	}

	s.mu.Lock()
	if err := s.storage.Write(raw); err != nil {
		s.mu.Unlock()
		s.logger.Error("session set: unable to persist credential", "error", err)
		return err
	}
	s.applyLocked(raw, claims, false)
	s.mu.Unlock()

	s.notify()
	return nil
}

// Clear removes the persisted credential and resets to unauthenticated.
// Calling it repeatedly is safe and yields the same state.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	err := s.deleteStoredLocked()
	s.applyLocked("", nil, false)
	s.mu.Unlock()

	s.notify()
	return err
}

// Subscribe registers a listener invoked with a snapshot after every
// mutation. The returned function removes the subscription.
func (s *SessionStore) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *SessionStore) applyLocked(credential string, claims *ClaimSet, loading bool) {
	s.credential = credential
	s.claims = claims
	s.loading = loading
}

func (s *SessionStore) deleteStoredLocked() error {
	if err := s.storage.Delete(); err != nil {
		s.logger.Warn("session store: storage delete failed", "error", err)
		return err
	}
	return nil
}

// notify invokes listeners outside the lock, in subscription order,
// with the snapshot current at call time.
func (s *SessionStore) notify() {
	s.mu.RLock()
	snapshot := Session{
		Credential: s.credential,
		Claims:     s.claims,
		Loading:    s.loading,
	}
	listeners := make([]subscriber, len(s.subscribers))
	copy(listeners, s.subscribers)
	s.mu.RUnlock()

	for _, sub := range listeners {
		sub.fn(snapshot)
	}
}
