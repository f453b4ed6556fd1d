package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// DefaultStorageKey is the slot name used when none is configured.
const DefaultStorageKey = "session_credential"

// StoredCredential is the bun model backing BunStorage.
type StoredCredential struct {
	bun.BaseModel `bun:"table:session_credentials,alias:cred"`
	Key           string     `bun:"key,pk" json:"key"`
	Value         string     `bun:"value,notnull" json:"value,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

var _ Storage = (*BunStorage)(nil)

// BunStorage keeps the credential in a single-row table for clients
// that already carry a bun database handle.
type BunStorage struct {
	db  *bun.DB
	key string
}

// NewBunStorage wires storage over an existing bun DB. Pass an empty
// key to use DefaultStorageKey.
func NewBunStorage(db *bun.DB, key string) *BunStorage {
	if key == "" {
		key = DefaultStorageKey
	}
	return &BunStorage{db: db, key: key}
}

// OpenSQLiteStorage opens (or creates) a sqlite-backed credential store
// at the given DSN and ensures the backing table exists.
func OpenSQLiteStorage(dsn string) (*BunStorage, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, storageFailure("unable to open sqlite storage", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	storage := NewBunStorage(db, DefaultStorageKey)
	if err := storage.ensureTable(context.Background()); err != nil {
		return nil, err
	}

	return storage, nil
}

func (b *BunStorage) ensureTable(ctx context.Context) error {
	if _, err := b.db.NewCreateTable().
		Model((*StoredCredential)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return storageFailure("unable to create credential table", err)
	}
	return nil
}

func (b *BunStorage) Read() (string, bool, error) {
	record := new(StoredCredential)
	err := b.db.NewSelect().
		Model(record).
		Where("key = ?", b.key).
		Scan(context.Background())
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageFailure("unable to read credential", err)
	}

	if record.Value == "" {
		return "", false, nil
	}

	return record.Value, true, nil
}

func (b *BunStorage) Write(raw string) error {
	now := time.Now()
	record := &StoredCredential{
		Key:       b.key,
		Value:     raw,
		UpdatedAt: &now,
	}

	if _, err := b.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(context.Background()); err != nil {
		return storageFailure("unable to write credential", err)
	}

	return nil
}

func (b *BunStorage) Delete() error {
	if _, err := b.db.NewDelete().
		Model((*StoredCredential)(nil)).
		Where("key = ?", b.key).
		Exec(context.Background()); err != nil {
		return storageFailure("unable to delete credential", err)
	}
	return nil
}
