package session

import (
	"time"

	"github.com/google/uuid"
)

// ClaimSet is the decoded credential payload. It is derived state:
// instances only exist as the product of a successful DecodeCredential
// call and are recomputed whenever the stored credential changes.
type ClaimSet struct {
	Subject   string    `json:"sub"`
	Username  string    `json:"username,omitempty"`
	Groups    []string  `json:"groups,omitempty"`
	Role      Role      `json:"role,omitempty"`
	ExpiresAt time.Time `json:"-"`
}

// SubjectUUID parses the subject claim as a UUID
func (c *ClaimSet) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// DisplayName returns the optional username, falling back to the subject
func (c *ClaimSet) DisplayName() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}

// Expires returns the expiry timestamp
func (c *ClaimSet) Expires() time.Time {
	return c.ExpiresAt
}

// HasGroup checks membership in the groups claim
func (c *ClaimSet) HasGroup(group string) bool {
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// HasRole checks if the claims carry a specific role
func (c *ClaimSet) HasRole(role Role) bool {
	return c.Role == role
}
