package session

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// GateState is the outcome of a protected-view evaluation. Checking is
// the only non-terminal state.
type GateState int

const (
	// GateChecking means session state is still loading; render a
	// waiting indicator and evaluate again.
	GateChecking GateState = iota
	// GateAdmitted grants access to the protected view.
	GateAdmitted
	// GateRedirectToLogin means no usable session; redirect, preserving
	// the originally requested path.
	GateRedirectToLogin
	// GateForbidden means authenticated but lacking a required role;
	// render an access-denied message in place, no redirect.
	GateForbidden
)

func (g GateState) String() string {
	switch g {
	case GateChecking:
		return "checking"
	case GateAdmitted:
		return "admitted"
	case GateRedirectToLogin:
		return "redirect_to_login"
	case GateForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision carries the gate outcome plus the context a UI needs to act
// on it: where to redirect, where to come back to, and which roles were
// involved in a denial.
type Decision struct {
	State        GateState
	RedirectPath string
	FromPath     string
	Role         Role
	Required     AccessRequirement
}

// DeniedMessage renders the access-denied text for a Forbidden
// decision, naming the user's role and the required roles.
func (d Decision) DeniedMessage() string {
	if d.State != GateForbidden {
		return ""
	}

	required := make([]string, len(d.Required))
	for i, r := range d.Required {
		required[i] = string(r)
	}

	return fmt.Sprintf(
		"access denied: your role is %q, required roles: %s",
		d.Role,
		strings.Join(required, ", "),
	)
}

// DefaultLoginPath is where unauthenticated evaluations redirect.
const DefaultLoginPath = "/login"

// GateOption customizes AccessGate construction.
type GateOption func(*AccessGate)

// WithGateLogger overrides the default logger.
func WithGateLogger(logger Logger) GateOption {
	return func(g *AccessGate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGateClock injects a custom clock (useful for tests).
func WithGateClock(clock Clock) GateOption {
	return func(g *AccessGate) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithGateRefreshMargin overrides the proactive-renewal window.
func WithGateRefreshMargin(margin time.Duration) GateOption {
	return func(g *AccessGate) {
		if margin > 0 {
			g.refreshMargin = margin
		}
	}
}

// WithGateLoginPath overrides the redirect target for unauthenticated
// evaluations.
func WithGateLoginPath(path string) GateOption {
	return func(g *AccessGate) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// AccessGate decides admit / redirect / forbid for protected views
// based on the current session and a per-view role requirement.
type AccessGate struct {
	store         *SessionStore
	refresher     Refresher
	logger        Logger
	now           Clock
	refreshMargin time.Duration
	loginPath     string
}

func NewAccessGate(store *SessionStore, refresher Refresher, opts ...GateOption) *AccessGate {
	g := &AccessGate{
		store:         store,
		refresher:     refresher,
		logger:        defLogger{},
		now:           time.Now,
		refreshMargin: DefaultRefreshMargin,
		loginPath:     DefaultLoginPath,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Evaluate runs the admission algorithm for a protected view:
//
//  1. Store still loading: Checking, no side effects.
//  2. Session present but inside the refresh margin (or past expiry):
//     await one coalesced renewal before deciding. Renewal failures are
//     best-effort here; the refreshed store state decides the outcome.
//  3. No credential or claims after step 2: RedirectToLogin carrying
//     the originally requested path.
//  4. Requirement not met (exact role match, no hierarchy): Forbidden.
//  5. Otherwise: Admitted.
func (g *AccessGate) Evaluate(ctx context.Context, requirement AccessRequirement, path string) Decision {
	snapshot := g.store.Get()
	if snapshot.Loading {
		return Decision{State: GateChecking, FromPath: path}
	}

	if snapshot.Credential != "" && snapshot.Claims != nil {
		if Classify(snapshot.Claims, g.now(), g.refreshMargin) != FreshnessValid {
			g.freshen(ctx)
			// the refresh may have replaced or cleared the session;
			// never trust the pre-await snapshot
			snapshot = g.store.Get()
		}
	}

	if snapshot.Credential == "" || snapshot.Claims == nil {
		g.logger.Info("gate: no session, redirecting to login", "from", path)
		return Decision{
			State:        GateRedirectToLogin,
			RedirectPath: g.loginPath,
			FromPath:     path,
		}
	}

	if !requirement.Satisfies(snapshot.Claims.Role) {
		g.logger.Warn("gate: role %q does not satisfy requirement %v for %s", snapshot.Claims.Role, requirement, path)
		return Decision{
			State:    GateForbidden,
			FromPath: path,
			Role:     snapshot.Claims.Role,
			Required: requirement,
		}
	}

	return Decision{State: GateAdmitted, FromPath: path}
}

func (g *AccessGate) freshen(ctx context.Context) {
	if g.refresher == nil {
		return
	}

	if _, err := g.refresher.Refresh(ctx); err != nil {
		// transient failures leave the session as-is; unauthorized
		// renewal already cleared it
		g.logger.Warn("gate: best-effort refresh failed", "error", err)
	}
}
