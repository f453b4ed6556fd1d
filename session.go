package session

import (
	"fmt"
	"time"
)

// Session is an immutable snapshot of authentication state. Credential
// and Claims always travel together: observers never see one updated
// without the other.
type Session struct {
	Credential string
	Claims     *ClaimSet
	Loading    bool
}

// IsAuthenticated holds iff both the credential and its decoded claims
// are present and the expiry is beyond the strict load margin.
func (s Session) IsAuthenticated() bool {
	return s.AuthenticatedAt(time.Now(), DefaultLoadMargin)
}

// AuthenticatedAt is the clock-injected form used by callers that pin
// time in tests or apply a custom margin.
func (s Session) AuthenticatedAt(now time.Time, margin time.Duration) bool {
	if s.Credential == "" || s.Claims == nil {
		return false
	}
	return Classify(s.Claims, now, margin) == FreshnessValid
}

// Role returns the session's role, or the empty role when unauthenticated
func (s Session) Role() Role {
	if s.Claims == nil {
		return ""
	}
	return s.Claims.Role
}

func (s Session) String() string {
	subject := "<nil>"
	expires := "<nil>"
	if s.Claims != nil {
		subject = s.Claims.Subject
		expires = s.Claims.ExpiresAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"subject=%s role=%s exp=%s loading=%t",
		subject,
		s.Role(),
		expires,
		s.Loading,
	)
}
