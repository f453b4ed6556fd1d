package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-session"
)

const testSigningKey = "test-signing-key"

type tokenSpec struct {
	subject  string
	username string
	groups   []string
	role     session.Role
	expires  time.Time
}

func mintToken(t *testing.T, spec tokenSpec) string {
	t.Helper()

	if spec.subject == "" {
		spec.subject = uuid.New().String()
	}

	claims := jwt.MapClaims{
		"sub": spec.subject,
		"exp": jwt.NewNumericDate(spec.expires),
	}
	if spec.username != "" {
		claims["username"] = spec.username
	}
	if len(spec.groups) > 0 {
		claims["groups"] = spec.groups
	}
	if spec.role != "" {
		claims["role"] = string(spec.role)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	return signed
}

func mintExpiringIn(t *testing.T, role session.Role, ttl time.Duration) string {
	t.Helper()
	return mintToken(t, tokenSpec{
		role:    role,
		expires: time.Now().Add(ttl),
	})
}

type recordingListener struct {
	snapshots []session.Session
}

func (r *recordingListener) record(s session.Session) {
	r.snapshots = append(r.snapshots, s)
}

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}
