// Package session owns the three language-model sessions (category, location,
// main): lazy creation from fixed system prompts, the one-shot transient
// retry, and lifecycle teardown. No other package may touch a session handle.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sid-lpcd/travel-chrome-extension/internal/backend"
	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

// Manager is the sole owner of the per-role session handles.
type Manager struct {
	backend backend.Backend
	log     *zap.Logger

	mu       sync.Mutex
	caps     *model.Capabilities
	sessions map[model.Role]backend.Session

	// Optional sampling overrides; zero means "use the probed defaults".
	temperature float64
	topK        int
}

// NewManager creates a Manager over the given backend. Sampling parameters of
// zero fall back to the defaults reported by the capability probe.
func NewManager(b backend.Backend, log *zap.Logger, temperature float64, topK int) *Manager {
	return &Manager{
		backend:     b,
		log:         log,
		sessions:    make(map[model.Role]backend.Session),
		temperature: temperature,
		topK:        topK,
	}
}

// EnsureReady probes the backend once and, when the model needs downloading,
// triggers the download and waits for it. Any state other than ready after
// that fails with an UnavailableError carrying the reported state.
// Idempotent: a successful probe is never repeated.
func (m *Manager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.caps != nil {
		return nil
	}

	caps, err := m.backend.Capabilities(ctx)
	if err != nil {
		return fmt.Errorf("probing capabilities: %w", err)
	}

	if caps.Available == model.AvailabilityNeedsDownload {
		m.log.Info("model download required")
		err := m.backend.Download(ctx, func(pct int) {
			m.log.Info("model download progress", zap.Int("percent", pct))
		})
		if err != nil {
			return fmt.Errorf("downloading model: %w", err)
		}
		caps, err = m.backend.Capabilities(ctx)
		if err != nil {
			return fmt.Errorf("re-probing capabilities: %w", err)
		}
	}

	if caps.Available != model.AvailabilityReady {
		return &backend.UnavailableError{State: caps.Available}
	}

	m.caps = &caps
	m.log.Debug("backend ready",
		zap.Float64("temperature", caps.DefaultTemperature),
		zap.Int("top_k", caps.DefaultTopK))
	return nil
}

// Capabilities returns the probed capabilities. Only valid after a
// successful EnsureReady.
func (m *Manager) Capabilities() model.Capabilities {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.caps == nil {
		return model.Capabilities{Available: model.AvailabilityUnavailable}
	}
	return *m.caps
}

// getOrCreate returns the live session for a role, creating it on first use.
// Caller must hold m.mu.
func (m *Manager) getOrCreate(ctx context.Context, role model.Role) (backend.Session, error) {
	if s, ok := m.sessions[role]; ok {
		return s, nil
	}

	if m.caps == nil {
		return nil, fmt.Errorf("session %q requested before EnsureReady", role)
	}

	prompt, ok := systemPrompts[role]
	if !ok {
		return nil, fmt.Errorf("unknown session role %q", role)
	}

	temperature := m.temperature
	if temperature == 0 {
		temperature = m.caps.DefaultTemperature
	}
	topK := m.topK
	if topK == 0 {
		topK = m.caps.DefaultTopK
	}

	s, err := m.backend.NewSession(ctx, backend.SessionParams{
		SystemPrompt: prompt,
		Temperature:  temperature,
		TopK:         topK,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s session: %w", role, err)
	}

	m.log.Debug("session created", zap.String("role", string(role)))
	m.sessions[role] = s
	return s, nil
}

// destroy tears down a role's handle if one exists. Caller must hold m.mu.
func (m *Manager) destroy(role model.Role) {
	if s, ok := m.sessions[role]; ok {
		s.Destroy()
		delete(m.sessions, role)
		m.log.Debug("session destroyed", zap.String("role", string(role)))
	}
}

// Prompt sends text to the role's session and returns the raw reply. On a
// transient failure the handle is destroyed, recreated, and the prompt
// retried exactly once; a second failure propagates.
func (m *Manager) Prompt(ctx context.Context, role model.Role, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.getOrCreate(ctx, role)
	if err != nil {
		return "", err
	}

	reply, err := s.Prompt(ctx, text)
	if err == nil {
		return reply, nil
	}
	if !backend.IsTransient(err) {
		return "", err
	}

	m.log.Warn("transient session failure, recreating",
		zap.String("role", string(role)), zap.Error(err))
	m.destroy(role)

	s, err = m.getOrCreate(ctx, role)
	if err != nil {
		return "", err
	}
	reply, err = s.Prompt(ctx, text)
	if err != nil {
		return "", fmt.Errorf("prompt after retry: %w", err)
	}
	return reply, nil
}

// ResetAll destroys every live session. Safe to call when none exist.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, role := range model.Roles {
		m.destroy(role)
	}
}

// LiveSessions reports how many handles are currently live.
func (m *Manager) LiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
