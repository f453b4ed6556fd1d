package session

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DecodeCredential structurally parses a compact three-segment bearer
// credential and returns its claims. The signature is never verified
// client-side: trust is established by TLS transport and backend
// issuance. Failures resolve to ErrMalformedCredential, never panics.
func DecodeCredential(raw string) (*ClaimSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, malformed("empty credential", nil)
	}

	if parts := strings.Count(raw, "."); parts != 2 {
		return nil, malformed("credential must have exactly three segments", nil)
	}

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, malformed("unable to parse credential payload", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, malformed("credential payload is not an object", nil)
	}

	return claimsFromMap(mapClaims)
}

func claimsFromMap(mapClaims jwt.MapClaims) (*ClaimSet, error) {
	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return nil, malformed("credential is missing the subject claim", nil)
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, malformed("credential is missing the expiry claim", err)
	}

	claims := &ClaimSet{
		Subject:   sub,
		ExpiresAt: exp.Time,
	}

	if username, ok := mapClaims["username"].(string); ok {
		claims.Username = username
	}

	if roleStr, ok := mapClaims["role"].(string); ok {
		claims.Role = Role(roleStr)
	}

	if rawGroups, ok := mapClaims["groups"].([]any); ok {
		groups := make([]string, 0, len(rawGroups))
		for _, g := range rawGroups {
			if name, ok := g.(string); ok {
				groups = append(groups, name)
			}
		}
		claims.Groups = groups
	}

	return claims, nil
}

// NormalizeCredential strips an optional "Bearer " prefix and
// surrounding whitespace from a raw credential. Backends occasionally
// return the scheme as part of the token body.
func NormalizeCredential(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, BearerScheme) {
		return strings.TrimSpace(strings.TrimPrefix(raw, BearerScheme))
	}
	return raw
}

// BearerScheme is the authorization scheme used for all backend calls.
const BearerScheme = "Bearer "

func malformed(msg string, cause error) *errors.Error {
	if cause == nil {
		return errors.New("malformed credential: "+msg, errors.CategoryAuth).
			WithTextCode(TextCodeMalformedCredential).
			WithCode(errors.CodeUnauthorized)
	}

	return errors.Wrap(cause, errors.CategoryAuth, "malformed credential: "+msg).
		WithTextCode(TextCodeMalformedCredential).
		WithCode(errors.CodeUnauthorized)
}
