// Package backend defines the language-model boundary: a capability probe,
// session creation, and prompt/destroy on a live session. The pipeline only
// ever talks to these interfaces; the Gemini implementation lives alongside.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

// ErrTransient marks failures worth a single destroy-and-recreate retry
// (rate limiting, momentary unavailability, empty candidate lists).
var ErrTransient = errors.New("transient backend failure")

// UnavailableError is returned when the backend cannot serve sessions at all.
// State carries the reported availability string for user-facing messages.
type UnavailableError struct {
	State model.Availability
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("model backend unavailable (state: %q)", string(e.State))
}

// IsTransient reports whether err is in the retry-once class.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// SessionParams configures a new session.
type SessionParams struct {
	SystemPrompt   string
	Temperature    float64
	TopK           int
	InitialPrompts []string
}

// Session is a stateful prompt/response exchange bound to one system prompt.
// A destroyed session must not be prompted again.
type Session interface {
	Prompt(ctx context.Context, text string) (string, error)
	Destroy()
}

// Backend creates sessions and reports availability.
type Backend interface {
	// Capabilities probes the backend state and sampling defaults.
	Capabilities(ctx context.Context) (model.Capabilities, error)

	// Download fetches the model when Capabilities reported needs-download,
	// reporting progress as a percentage. A no-op for hosted backends.
	Download(ctx context.Context, progress func(pct int)) error

	// NewSession creates a live session from the given parameters.
	NewSession(ctx context.Context, params SessionParams) (Session, error)
}
