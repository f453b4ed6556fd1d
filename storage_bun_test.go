package session_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-session"
)

func TestSQLiteStorage(t *testing.T) {
	storage, err := session.OpenSQLiteStorage("file::memory:?cache=shared")
	require.NoError(t, err)

	_, found, err := storage.Read()
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, storage.Write("a.b.c"))

	value, found, err := storage.Read()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a.b.c", value)

	require.NoError(t, storage.Write("d.e.f"))

	value, _, err = storage.Read()
	require.NoError(t, err)
	assert.Equal(t, "d.e.f", value, "write should replace the stored value in place")

	require.NoError(t, storage.Delete())
	require.NoError(t, storage.Delete())

	_, found, err = storage.Read()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStorageBacksSessionStore(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "session.db")

	storage, err := session.OpenSQLiteStorage(dsn)
	require.NoError(t, err)

	store := session.NewSessionStore(storage, session.WithStoreLogger(quietLogger{}))
	store.Load()

	raw := mintExpiringIn(t, session.RoleUser, time.Hour)
	require.NoError(t, store.Set(raw))

	// a second store over the same database sees the persisted session
	reopened, err := session.OpenSQLiteStorage(dsn)
	require.NoError(t, err)

	second := session.NewSessionStore(reopened, session.WithStoreLogger(quietLogger{}))
	second.Load()

	assert.True(t, second.Get().IsAuthenticated())
	assert.Equal(t, raw, second.Get().Credential)
}
