package session

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialSource issues and renews raw bearer credentials. The HTTP
// Client is the default implementation; tests swap in fakes.
type CredentialSource interface {
	Login(ctx context.Context, username, password string) (string, error)
	Renew(ctx context.Context, current string) (string, error)
}

// Storage is a single-slot durable store for the raw credential string.
// Absence means unauthenticated; presence does not guarantee validity,
// readers must decode and classify on load.
type Storage interface {
	Read() (string, bool, error)
	Write(raw string) error
	Delete() error
}

// Refresher renews the current credential, coalescing concurrent calls.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Clock lets tests pin time; components default to time.Now.
type Clock func() time.Time

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
