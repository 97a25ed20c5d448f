package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/time/rate"
	genai "google.golang.org/genai"

	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

// Sampling defaults reported by the capability probe, matching the sampling
// the on-device Prompt API advertises.
const (
	defaultTemperature = 1.0
	defaultTopK        = 3
)

// Gemini is a Backend on the hosted Gemini API via the official genai client.
// Session state is kept client-side as accumulated conversation history.
type Gemini struct {
	cli   *genai.Client
	model string
	rl    *rate.Limiter
}

// NewGemini creates a Gemini backend. The API key is read from the
// environment; without one the backend still constructs, but reports
// unavailable from the capability probe.
func NewGemini(ctx context.Context, modelName string, rps float64) (*Gemini, error) {
	var cli *genai.Client
	if hasAPIKey() {
		var err error
		cli, err = genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
		if err != nil {
			return nil, fmt.Errorf("creating genai client: %w", err)
		}
	}
	if rps <= 0 {
		rps = 1
	}
	return &Gemini{
		cli:   cli,
		model: modelName,
		rl:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func hasAPIKey() bool {
	return os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != ""
}

// Capabilities reports ready when an API key is present. A hosted model has
// no download phase, so the needs-download state never occurs here.
func (g *Gemini) Capabilities(ctx context.Context) (model.Capabilities, error) {
	caps := model.Capabilities{
		DefaultTemperature: defaultTemperature,
		DefaultTopK:        defaultTopK,
	}
	if g.cli == nil {
		caps.Available = model.AvailabilityUnavailable
		return caps, nil
	}
	caps.Available = model.AvailabilityReady
	return caps, nil
}

// Download is a no-op for the hosted API.
func (g *Gemini) Download(ctx context.Context, progress func(pct int)) error {
	if progress != nil {
		progress(100)
	}
	return nil
}

// NewSession builds a session bound to the given system prompt and sampling
// parameters.
func (g *Gemini) NewSession(ctx context.Context, params SessionParams) (Session, error) {
	if g.cli == nil {
		return nil, &UnavailableError{State: model.AvailabilityUnavailable}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(params.Temperature)),
		TopK:        genai.Ptr(float32(params.TopK)),
	}
	if params.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: params.SystemPrompt}},
		}
	}

	s := &geminiSession{backend: g, cfg: cfg}
	for _, p := range params.InitialPrompts {
		s.history = append(s.history, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: p}},
		})
	}
	return s, nil
}

type geminiSession struct {
	backend   *Gemini
	cfg       *genai.GenerateContentConfig
	history   []*genai.Content
	destroyed bool
}

func (s *geminiSession) Prompt(ctx context.Context, text string) (string, error) {
	if s.destroyed {
		return "", errors.New("prompt on destroyed session")
	}
	if err := s.backend.rl.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	turn := &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: text}},
	}
	contents := append(append([]*genai.Content{}, s.history...), turn)

	resp, err := s.backend.cli.Models.GenerateContent(ctx, s.backend.model, contents, s.cfg)
	if err != nil {
		if transientAPIError(err) {
			return "", fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty reply from model", ErrTransient)
	}

	reply := resp.Candidates[0].Content.Parts[0].Text
	s.history = append(s.history, turn, &genai.Content{
		Role:  genai.RoleModel,
		Parts: []*genai.Part{{Text: reply}},
	})
	return reply, nil
}

func (s *geminiSession) Destroy() {
	s.destroyed = true
	s.history = nil
}

// transientAPIError classifies API failures that a fresh session may survive.
func transientAPIError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "resource_exhausted",
		"503", "unavailable", "overloaded",
		"500", "internal",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
