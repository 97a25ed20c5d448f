package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sid-lpcd/travel-chrome-extension/internal/backend"
	"github.com/sid-lpcd/travel-chrome-extension/internal/geocode"
	"github.com/sid-lpcd/travel-chrome-extension/internal/pipeline"
	"github.com/sid-lpcd/travel-chrome-extension/internal/session"
	"github.com/sid-lpcd/travel-chrome-extension/internal/textsource"
)

// buildStack wires the full pipeline from config: Gemini backend, session
// manager, geocoder, page-text source, orchestrator.
func buildStack(ctx context.Context, modelName string) (*pipeline.Orchestrator, *session.Manager, *textsource.Source, error) {
	if modelName == "" {
		modelName = cfg.Backend.Model
	}

	b, err := backend.NewGemini(ctx, modelName, 1)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating backend: %w", err)
	}

	sessions := session.NewManager(b, logger, cfg.Backend.Temperature, cfg.Backend.TopK)
	geocoder := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.RateLimit, logger)
	source := textsource.NewSource(cfg.Fetch.Attempts,
		time.Duration(cfg.Fetch.DelaySeconds)*time.Second, logger)

	orch := pipeline.New(sessions, geocoder, source, logger, cfg.Generate.Attempts)
	return orch, sessions, source, nil
}
