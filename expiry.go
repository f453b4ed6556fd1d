package session

import "time"

// Freshness classifies how close a credential is to its expiry.
type Freshness int

const (
	// FreshnessValid means the credential is comfortably inside its lifetime
	FreshnessValid Freshness = iota
	// FreshnessNearExpiry means expiry falls within the safety margin
	FreshnessNearExpiry
	// FreshnessExpired means the credential expiry has passed
	FreshnessExpired
)

const (
	// DefaultRefreshMargin is the proactive-renewal window used when a
	// protected view is evaluated.
	DefaultRefreshMargin = 5 * time.Minute

	// DefaultLoadMargin is the stricter window applied when a persisted
	// credential is first loaded, so a token does not expire mid-request.
	DefaultLoadMargin = 30 * time.Second
)

func (f Freshness) String() string {
	switch f {
	case FreshnessValid:
		return "valid"
	case FreshnessNearExpiry:
		return "near_expiry"
	case FreshnessExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Classify is a total, deterministic expiry check: Expired when the
// expiry is at or before now, NearExpiry when it falls inside the
// margin, Valid otherwise. A nil claim set classifies as Expired.
func Classify(claims *ClaimSet, now time.Time, margin time.Duration) Freshness {
	if claims == nil {
		return FreshnessExpired
	}

	if !claims.ExpiresAt.After(now) {
		return FreshnessExpired
	}

	if claims.ExpiresAt.Sub(now) < margin {
		return FreshnessNearExpiry
	}

	return FreshnessValid
}
