package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// RequestOption customizes an authenticated request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	method  string
	body    []byte
	headers http.Header
	bodyErr error
}

// WithMethod sets the HTTP method. GET is the default.
func WithMethod(method string) RequestOption {
	return func(o *requestOptions) {
		if method != "" {
			o.method = strings.ToUpper(method)
		}
	}
}

// WithBody sets a raw request body.
func WithBody(body []byte) RequestOption {
	return func(o *requestOptions) {
		o.body = body
	}
}

// WithJSONBody marshals v as the request body. Marshal failures are
// surfaced when the request is performed.
func WithJSONBody(v any) RequestOption {
	return func(o *requestOptions) {
		o.body, o.bodyErr = json.Marshal(v)
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.headers.Add(key, value)
	}
}

// Fetcher wraps outbound calls with the current credential attached.
// It is deliberately thin: no retry, no transparent refresh. Those
// decisions belong to the caller and the AccessGate.
type Fetcher struct {
	store      *SessionStore
	httpClient *http.Client
	logger     Logger
}

// FetcherOption customizes Fetcher construction.
type FetcherOption func(*Fetcher)

// WithFetcherHTTPClient overrides the default HTTP client.
func WithFetcherHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithFetcherLogger overrides the default logger.
func WithFetcherLogger(logger Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFetcher(store *SessionStore, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		store:      store,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// Fetch performs an authenticated request. The credential is the
// explicit token argument when non-empty, else the store's current
// value. The Authorization header is attached idempotently and a JSON
// content type is set only when a body travels on a non-read method.
// The response is returned unmodified; a 401 is logged with its body
// for diagnosis but session state is never mutated here.
func (f *Fetcher) Fetch(ctx context.Context, url, token string, opts ...RequestOption) (*http.Response, error) {
	options := &requestOptions{
		method:  http.MethodGet,
		headers: http.Header{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	if options.bodyErr != nil {
		return nil, errors.Wrap(options.bodyErr, errors.CategoryBadInput, "unable to encode request body").
			WithCode(errors.CodeBadRequest)
	}

	resolved := token
	if resolved == "" && f.store != nil {
		resolved = f.store.Get().Credential
	}

	var body io.Reader
	if len(options.body) > 0 {
		body = bytes.NewReader(options.body)
	}

	req, err := http.NewRequestWithContext(ctx, options.method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build request")
	}

	for key, values := range options.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if resolved != "" {
		req.Header.Set("Authorization", bearerHeader(resolved))
	}

	if len(options.body) > 0 && !isReadOnlyMethod(options.method) {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	f.logger.Debug("fetch: %s %s authenticated=%t", options.method, url, resolved != "")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("fetch failed: %s %s: %v", options.method, url, err)
		return nil, errors.Wrap(err, errors.CategoryOperation, "request failed").
			WithCode(errors.CodeInternal)
	}

	f.logger.Debug("fetch: %s %s -> %d", options.method, url, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		f.logUnauthorized(options.method, url, resp)
	}

	return resp, nil
}

// logUnauthorized records the 401 body for diagnosis without consuming
// it for the caller.
func (f *Fetcher) logUnauthorized(method, url string, resp *http.Response) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		f.logger.Warn("fetch: 401 for %s %s, unable to read body: %v", method, url, err)
		return
	}

	detail := strings.TrimSpace(string(body))
	if strings.HasPrefix(detail, "{") {
		var parsed map[string]any
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil {
			detail = print.MaybePrettyJSON(parsed)
		}
	}

	f.logger.Warn("fetch: 401 unauthorized for %s %s: %s", method, url, detail)
}

// bearerHeader formats the Authorization value without double-prefixing
// tokens that already carry the scheme.
func bearerHeader(token string) string {
	if strings.HasPrefix(token, BearerScheme) {
		return token
	}
	return BearerScheme + token
}

func isReadOnlyMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return true
	default:
		return false
	}
}
