package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-session"
)

// fakeSource is a scripted CredentialSource. Renew blocks until release
// is closed when a release channel is set, so tests can pin a renewal
// in flight.
type fakeSource struct {
	renewCalls atomic.Int32
	started    chan struct{}
	release    chan struct{}
	token      string
	err        error
}

func (f *fakeSource) Login(ctx context.Context, username, password string) (string, error) {
	return f.token, f.err
}

func (f *fakeSource) Renew(ctx context.Context, current string) (string, error) {
	f.renewCalls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.token, f.err
}

func newLoadedStore(t *testing.T, raw string) *session.SessionStore {
	t.Helper()

	storage := session.NewMemoryStorage()
	if raw != "" {
		require.NoError(t, storage.Write(raw))
	}

	store := session.NewSessionStore(storage, session.WithStoreLogger(quietLogger{}))
	store.Load()
	return store
}

func TestRefreshCoordinatorSuccess(t *testing.T) {
	store := newLoadedStore(t, mintExpiringIn(t, session.RoleUser, time.Hour))
	renewed := mintExpiringIn(t, session.RoleUser, 2*time.Hour)

	source := &fakeSource{token: "Bearer " + renewed}
	coordinator := session.NewRefreshCoordinator(store, source,
		session.WithCoordinatorLogger(quietLogger{}))

	token, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, renewed, token)
	assert.Equal(t, renewed, store.Get().Credential)
	assert.Equal(t, int32(1), source.renewCalls.Load())
}

func TestRefreshCoordinatorCoalescesConcurrentCallers(t *testing.T) {
	const callers = 8

	store := newLoadedStore(t, mintExpiringIn(t, session.RoleUser, time.Hour))
	renewed := mintExpiringIn(t, session.RoleUser, 2*time.Hour)

	source := &fakeSource{
		token:   renewed,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	coordinator := session.NewRefreshCoordinator(store, source,
		session.WithCoordinatorLogger(quietLogger{}))

	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		tokens[0], errs[0] = coordinator.Refresh(context.Background())
	}()

	// wait for the first renewal to be in flight, then pile on
	<-source.started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = coordinator.Refresh(context.Background())
		}(i)
	}

	// give the late callers time to attach before completing the call
	time.Sleep(50 * time.Millisecond)
	close(source.release)
	wg.Wait()

	assert.Equal(t, int32(1), source.renewCalls.Load(), "concurrent callers should share one renewal")
	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, renewed, tokens[i])
	}
	assert.Equal(t, renewed, store.Get().Credential)
}

func TestRefreshCoordinatorUnauthorizedClearsSession(t *testing.T) {
	store := newLoadedStore(t, mintExpiringIn(t, session.RoleUser, time.Hour))

	source := &fakeSource{err: session.ErrRefreshUnauthorized}
	coordinator := session.NewRefreshCoordinator(store, source,
		session.WithCoordinatorLogger(quietLogger{}))

	_, err := coordinator.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, session.IsRefreshUnauthorizedError(err))

	snapshot := store.Get()
	assert.False(t, snapshot.IsAuthenticated())
	assert.Empty(t, snapshot.Credential)
}

func TestRefreshCoordinatorTransientFailureKeepsSession(t *testing.T) {
	raw := mintExpiringIn(t, session.RoleUser, time.Hour)
	store := newLoadedStore(t, raw)

	source := &fakeSource{err: session.ErrRefreshTransient}
	coordinator := session.NewRefreshCoordinator(store, source,
		session.WithCoordinatorLogger(quietLogger{}))

	_, err := coordinator.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, session.IsTransientRefreshError(err))

	assert.Equal(t, raw, store.Get().Credential, "transient failure should leave the session untouched")
}

func TestRefreshCoordinatorNoCredential(t *testing.T) {
	store := newLoadedStore(t, "")

	source := &fakeSource{}
	coordinator := session.NewRefreshCoordinator(store, source,
		session.WithCoordinatorLogger(quietLogger{}))

	_, err := coordinator.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNoCredential)
	assert.Equal(t, int32(0), source.renewCalls.Load())
}

func TestRefreshCoordinatorSequentialCallsAreSeparate(t *testing.T) {
	store := newLoadedStore(t, mintExpiringIn(t, session.RoleUser, time.Hour))
	renewed := mintExpiringIn(t, session.RoleUser, 2*time.Hour)

	source := &fakeSource{token: renewed}
	coordinator := session.NewRefreshCoordinator(store, source,
		session.WithCoordinatorLogger(quietLogger{}))

	_, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	_, err = coordinator.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), source.renewCalls.Load())
}
