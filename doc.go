// Package session manages the client side of a bearer-credential
// session: acquiring a token from a backend, decoding its claims
// structurally (no signature verification; trust is TLS plus backend
// issuance), classifying expiry, renewing proactively, and gating
// access to protected views by role.
//
// Lifecycle:
//   - SessionStore owns the (credential, claims, loading) tuple, backed
//     by durable Storage so sessions survive restarts. Every mutation
//     updates credential and claims together and notifies subscribers
//     with a consistent snapshot.
//   - RefreshCoordinator coalesces concurrent renewal attempts onto a
//     single in-flight network call; all callers observe the same
//     outcome. An unauthorized renewal clears the session; transient
//     failures leave it untouched for retry.
//   - AccessGate evaluates a protected view: Checking while loading,
//     a best-effort coalesced refresh when the credential is near
//     expiry, then RedirectToLogin, Forbidden, or Admitted. Role
//     matching is exact; no hierarchy is inferred.
//   - Manager composes the pieces behind one interface (Login, Logout,
//     Refresh, Fetch, Gate, Subscribe) and re-validates any persisted
//     credential at construction.
//
// Fetcher attaches the Authorization header idempotently and returns
// responses unmodified: retries and refreshes are caller decisions.
package session
