package session

import (
	"context"
	"sync"
)

// RefreshCoordinator performs network renewal of the current
// credential, coalescing concurrent callers onto a single in-flight
// call. This is the system's one mutual-exclusion point: at most one
// renewal request is outstanding at any instant, and every concurrent
// caller observes the outcome of that single call.
type RefreshCoordinator struct {
	store  *SessionStore
	source CredentialSource
	logger Logger

	mu      sync.Mutex
	pending *refreshCall
}

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// CoordinatorOption customizes RefreshCoordinator construction.
type CoordinatorOption func(*RefreshCoordinator)

// WithCoordinatorLogger overrides the default logger.
func WithCoordinatorLogger(logger Logger) CoordinatorOption {
	return func(rc *RefreshCoordinator) {
		if logger != nil {
			rc.logger = logger
		}
	}
}

func NewRefreshCoordinator(store *SessionStore, source CredentialSource, opts ...CoordinatorOption) *RefreshCoordinator {
	rc := &RefreshCoordinator{
		store:  store,
		source: source,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}

	return rc
}

// Refresh renews the current credential, callable concurrently. If a
// renewal is already in flight the caller attaches to it and receives
// the same outcome rather than issuing a duplicate network call. The
// wait is bounded by the underlying client's network timeout; no
// separate timeout is imposed here.
//
// On success the new credential is already written to the store before
// Refresh returns. On an unauthorized renewal the session is cleared
// (forced logout). On a transient failure the existing session is left
// untouched for the caller to retry. Callers should re-check store
// state after awaiting rather than trusting their pre-await snapshot:
// a logout during the renewal means the result no longer applies.
func (rc *RefreshCoordinator) Refresh(ctx context.Context) (string, error) {
	rc.mu.Lock()
	if call := rc.pending; call != nil {
		rc.mu.Unlock()
		<-call.done
		return call.token, call.err
	}

	current := rc.store.Get().Credential
	if current == "" {
		rc.mu.Unlock()
		rc.logger.Debug("refresh skipped: no credential held")
		return "", ErrNoCredential
	}

	call := &refreshCall{done: make(chan struct{})}
	rc.pending = call
	rc.mu.Unlock()

	call.token, call.err = rc.renew(ctx, current)

	rc.mu.Lock()
	rc.pending = nil
	rc.mu.Unlock()
	close(call.done)

	return call.token, call.err
}

func (rc *RefreshCoordinator) renew(ctx context.Context, current string) (string, error) {
	token, err := rc.source.Renew(ctx, current)
	if err != nil {
		if IsRefreshUnauthorizedError(err) {
			rc.logger.Warn("credential renewal unauthorized, clearing session", "error", err)
			if clearErr := rc.store.Clear(); clearErr != nil {
				rc.logger.Warn("session clear after unauthorized renewal", "error", clearErr)
			}
			return "", err
		}

		rc.logger.Error("credential renewal failed, session left as-is", "error", err)
		return "", err
	}

	token = NormalizeCredential(token)

	if err := rc.store.Set(token); err != nil {
		rc.logger.Error("renewed credential failed to decode", "error", err)
		return "", err
	}

	rc.logger.Debug("credential renewed")
	return token, nil
}
