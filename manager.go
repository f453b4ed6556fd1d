package session

import (
	"context"
	"net/http"
	"time"
)

// ManagerOption customizes Manager construction.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	logger     Logger
	storage    Storage
	source     CredentialSource
	httpClient *http.Client
	clock      Clock
}

// WithManagerLogger sets the logger shared by every composed component.
func WithManagerLogger(logger Logger) ManagerOption {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithManagerStorage overrides the storage selected from configuration.
func WithManagerStorage(storage Storage) ManagerOption {
	return func(o *managerOptions) {
		if storage != nil {
			o.storage = storage
		}
	}
}

// WithManagerSource overrides the backend credential source, mostly for
// tests and non-HTTP backends.
func WithManagerSource(source CredentialSource) ManagerOption {
	return func(o *managerOptions) {
		if source != nil {
			o.source = source
		}
	}
}

// WithManagerHTTPClient overrides the HTTP client used for backend and
// authenticated calls.
func WithManagerHTTPClient(client *http.Client) ManagerOption {
	return func(o *managerOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithManagerClock injects a custom clock (useful for tests).
func WithManagerClock(clock Clock) ManagerOption {
	return func(o *managerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// Manager composes the store, backend client, refresh coordinator,
// fetcher, and access gate into the single source of truth consumed by
// the UI layer.
type Manager struct {
	store       *SessionStore
	source      CredentialSource
	coordinator *RefreshCoordinator
	fetcher     *Fetcher
	gate        *AccessGate
	logger      Logger
}

// NewManager validates the configuration, wires every component, and
// hydrates the session from persistent storage so a credential held
// over from a previous run is re-validated immediately.
func NewManager(cfg *Config, opts ...ManagerOption) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &managerOptions{
		logger: defLogger{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	storage := options.storage
	if storage == nil {
		var err error
		storage, err = storageFromConfig(cfg)
		if err != nil {
			return nil, err
		}
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	source := options.source
	if source == nil {
		source = NewClient(ClientConfig{
			BaseURL:     cfg.BaseURL,
			LoginPath:   cfg.LoginPath,
			RefreshPath: cfg.RefreshPath,
			HTTPClient:  httpClient,
			Logger:      options.logger,
		})
	}

	store := NewSessionStore(storage,
		WithStoreLogger(options.logger),
		WithStoreClock(options.clock),
		WithStoreLoadMargin(cfg.LoadMargin),
	)

	coordinator := NewRefreshCoordinator(store, source,
		WithCoordinatorLogger(options.logger),
	)

	fetcher := NewFetcher(store,
		WithFetcherHTTPClient(httpClient),
		WithFetcherLogger(options.logger),
	)

	gate := NewAccessGate(store, coordinator,
		WithGateLogger(options.logger),
		WithGateClock(options.clock),
		WithGateRefreshMargin(cfg.RefreshMargin),
		WithGateLoginPath(cfg.LoginPath),
	)

	m := &Manager{
		store:       store,
		source:      source,
		coordinator: coordinator,
		fetcher:     fetcher,
		gate:        gate,
		logger:      options.logger,
	}

	m.store.Load()

	return m, nil
}

func storageFromConfig(cfg *Config) (Storage, error) {
	switch {
	case cfg.StorageDSN != "":
		return OpenSQLiteStorage(cfg.StorageDSN)
	case cfg.StoragePath != "":
		return NewFileStorage(cfg.StoragePath)
	default:
		return NewMemoryStorage(), nil
	}
}

// Current returns the session snapshot.
func (m *Manager) Current() Session {
	return m.store.Get()
}

// Claims returns the decoded claims, nil when unauthenticated.
func (m *Manager) Claims() *ClaimSet {
	return m.store.Get().Claims
}

// IsAuthenticated reports whether a usable session is held.
func (m *Manager) IsAuthenticated() bool {
	return m.store.Get().IsAuthenticated()
}

// Login authenticates against the backend and installs the resulting
// credential. A credential that decodes badly fails the login even
// though the network call succeeded: the session never holds a
// credential without matching claims.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.source.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := m.store.Set(token); err != nil {
		m.logger.Error("login: issued credential failed to decode", "error", err)
		return err
	}

	return nil
}

// LoginWithToken installs an externally obtained raw credential.
func (m *Manager) LoginWithToken(raw string) error {
	return m.store.Set(raw)
}

// Logout clears all session state synchronously.
func (m *Manager) Logout() error {
	return m.store.Clear()
}

// Refresh renews the credential via the coalescing coordinator.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	return m.coordinator.Refresh(ctx)
}

// Subscribe registers a listener for session changes.
func (m *Manager) Subscribe(fn func(Session)) func() {
	return m.store.Subscribe(fn)
}

// Gate exposes the access gate for protected-view evaluation.
func (m *Manager) Gate() *AccessGate {
	return m.gate
}

// Store exposes the underlying session store.
func (m *Manager) Store() *SessionStore {
	return m.store
}

// Fetch performs an authenticated request with the current credential.
func (m *Manager) Fetch(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	return m.fetcher.Fetch(ctx, url, "", opts...)
}
