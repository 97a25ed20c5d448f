// Package pipeline wires page text, the model sessions, and the geocoder
// into the categorize -> generate -> validate -> resolve control loop. All
// run state lives on the Orchestrator; there are no package-level mutable
// bindings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sid-lpcd/travel-chrome-extension/internal/geocode"
	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
	"github.com/sid-lpcd/travel-chrome-extension/internal/session"
	"github.com/sid-lpcd/travel-chrome-extension/internal/validate"
)

// ErrMalformedModelOutput reports that the generation retry budget was spent
// without a well-formed JSON reply.
var ErrMalformedModelOutput = errors.New("model did not produce valid JSON after retries")

// ErrRunInFlight rejects a submission while a previous run is still going.
var ErrRunInFlight = errors.New("a run is already in progress")

// boundingBoxSizeKm is the side length of the viewbox derived around the
// page's location.
const boundingBoxSizeKm = 100

// State names the pipeline's position within a run.
type State string

const (
	StateIdle         State = "idle"
	StateCategorizing State = "categorizing"
	StateGenerating   State = "generating"
	StateValidating   State = "validating"
	StateResolving    State = "resolving"
	StateRendered     State = "rendered"
	StateFailed       State = "failed"
)

// Prompter is the session-manager surface the pipeline drives.
type Prompter interface {
	EnsureReady(ctx context.Context) error
	Prompt(ctx context.Context, role model.Role, text string) (string, error)
	ResetAll()
}

// Geocoder resolves an entity name to at most one place.
type Geocoder interface {
	Resolve(ctx context.Context, name string, bias model.BoundingBox) (*model.PlaceRecord, error)
}

// TextFetcher retrieves cleaned page text.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (model.PageText, error)
}

// Orchestrator owns one page's run state: captured text, the derived
// bounding box, and the latest results.
type Orchestrator struct {
	sessions    Prompter
	geocoder    Geocoder
	source      TextFetcher
	log         *zap.Logger
	genAttempts int

	mu         sync.Mutex
	running    bool
	state      State
	page       model.PageText
	box        model.BoundingBox
	boxDerived bool
	results    []model.CategoryResult
	rendered   string
}

// New creates an Orchestrator. genAttempts is the total number of generation
// attempts before the run fails with ErrMalformedModelOutput.
func New(sessions Prompter, geocoder Geocoder, source TextFetcher, log *zap.Logger, genAttempts int) *Orchestrator {
	if genAttempts < 1 {
		genAttempts = 1
	}
	return &Orchestrator{
		sessions:    sessions,
		geocoder:    geocoder,
		source:      source,
		log:         log,
		genAttempts: genAttempts,
		state:       StateIdle,
	}
}

// Load captures the page text and derives the bounding box, both best-effort:
// a page that never responds or a location that cannot be resolved leaves the
// pipeline usable, just unbiased or with an empty corpus.
func (o *Orchestrator) Load(ctx context.Context, url string) error {
	pt, err := o.source.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.log.Warn("proceeding without page text", zap.String("url", url), zap.Error(err))
	}

	o.mu.Lock()
	o.page = pt
	o.box = model.BoundingBox{}
	o.boxDerived = false
	o.mu.Unlock()

	o.deriveBoundingBox(ctx)
	return nil
}

// deriveBoundingBox runs the location session once over the page excerpt and
// geocodes its reply into a viewbox. Failures leave lookups unbiased.
func (o *Orchestrator) deriveBoundingBox(ctx context.Context) {
	o.mu.Lock()
	excerpt := o.page.LocationExcerpt
	done := o.boxDerived
	o.mu.Unlock()

	if done || excerpt == "" {
		return
	}

	if err := o.sessions.EnsureReady(ctx); err != nil {
		o.log.Warn("skipping bounding box derivation", zap.Error(err))
		return
	}

	reply, err := o.sessions.Prompt(ctx, model.RoleLocation, excerpt)
	if err != nil {
		o.log.Warn("location session failed", zap.Error(err))
		return
	}

	o.mu.Lock()
	o.boxDerived = true
	o.mu.Unlock()

	name := strings.TrimSpace(reply)
	if name == "" {
		o.log.Debug("no location identified for page")
		return
	}

	place, err := o.geocoder.Resolve(ctx, name, model.BoundingBox{})
	if err != nil || place == nil {
		o.log.Debug("page location did not geocode", zap.String("name", name))
		return
	}

	lat, latErr := strconv.ParseFloat(place.Coordinates.Lat, 64)
	lon, lonErr := strconv.ParseFloat(place.Coordinates.Lon, 64)
	if latErr != nil || lonErr != nil {
		o.log.Warn("geocoder returned unparsable coordinates",
			zap.String("lat", place.Coordinates.Lat), zap.String("lon", place.Coordinates.Lon))
		return
	}

	box := geocode.Around(lat, lon, boundingBoxSizeKm)
	o.mu.Lock()
	o.box = box
	o.mu.Unlock()
	o.log.Info("bounding box derived",
		zap.String("location", name), zap.Float64("lat", lat), zap.Float64("lon", lon))
}

// Submit runs the full pipeline for one user query. Only one run may be in
// flight; concurrent submissions are rejected with ErrRunInFlight. The
// returned string is the raw Markdown-ish model reply for the UI to render.
func (o *Orchestrator) Submit(ctx context.Context, query string) ([]model.CategoryResult, string, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, "", ErrRunInFlight
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	runLog := o.log.With(zap.String("run_id", uuid.NewString()[:8]))

	if len(query) > session.MaxInputChars {
		query = query[:session.MaxInputChars]
	}

	if err := o.sessions.EnsureReady(ctx); err != nil {
		o.setState(StateFailed)
		return nil, "", err
	}

	o.deriveBoundingBox(ctx)

	hint := o.categorize(ctx, runLog, query)

	raw, cm, err := o.generate(ctx, runLog, hint)
	if err != nil {
		o.setState(StateFailed)
		return nil, "", err
	}

	o.setState(StateResolving)
	results, err := o.resolve(ctx, runLog, cm)
	if err != nil {
		o.setState(StateFailed)
		return nil, "", err
	}

	o.mu.Lock()
	o.results = results
	o.rendered = raw
	o.state = StateRendered
	o.mu.Unlock()

	runLog.Info("run complete", zap.Int("categories", len(results)))
	return results, raw, nil
}

// categorize asks the category session for a hint. Absence of a usable hint
// is not an error; the generation step simply runs unfiltered.
func (o *Orchestrator) categorize(ctx context.Context, log *zap.Logger, query string) string {
	o.setState(StateCategorizing)

	if strings.TrimSpace(query) == "" {
		return ""
	}

	reply, err := o.sessions.Prompt(ctx, model.RoleCategory, query)
	if err != nil {
		log.Warn("category session failed, searching unfiltered", zap.Error(err))
		return ""
	}

	reply = strings.TrimSpace(reply)
	if reply == session.NoCategoriesSentinel {
		log.Debug("no categories in user input")
		return ""
	}

	labels := validate.ParseCategoryList(reply)
	if len(labels) == 0 {
		return ""
	}
	return strings.Join(labels, ", ")
}

// generate prompts the main session and validates the reply, retrying the
// generation step with the same inputs while the output is malformed.
func (o *Orchestrator) generate(ctx context.Context, log *zap.Logger, hint string) (string, model.CategoryMap, error) {
	o.mu.Lock()
	pageText := o.page.FullText
	o.mu.Unlock()

	instruction := session.BuildGenerationInstruction(pageText, hint)

	for attempt := 1; attempt <= o.genAttempts; attempt++ {
		o.setState(StateGenerating)
		raw, err := o.sessions.Prompt(ctx, model.RoleMain, instruction)
		if err != nil {
			return "", model.CategoryMap{}, fmt.Errorf("generation: %w", err)
		}

		o.setState(StateValidating)
		res := validate.ParseCategoryMap(raw)
		if res.Valid {
			return raw, res.Map, nil
		}
		log.Warn("malformed model output",
			zap.Int("attempt", attempt), zap.String("reason", res.Reason))
	}

	return "", model.CategoryMap{}, ErrMalformedModelOutput
}

// resolve geocodes every entity in category order, skipping misses and
// dropping categories that end up empty.
func (o *Orchestrator) resolve(ctx context.Context, log *zap.Logger, cm model.CategoryMap) ([]model.CategoryResult, error) {
	o.mu.Lock()
	bias := o.box
	o.mu.Unlock()

	var results []model.CategoryResult
	for _, key := range cm.Keys {
		names := cm.Entries[key]
		if len(names) == 0 {
			continue
		}

		var places []model.PlaceRecord
		for _, name := range names {
			place, err := o.geocoder.Resolve(ctx, name, bias)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", name, err)
			}
			if place == nil {
				log.Debug("place not found", zap.String("name", name))
				continue
			}
			log.Debug("place found",
				zap.String("name", place.Name), zap.Int64("id", place.ID))
			places = append(places, *place)
		}

		if len(places) > 0 {
			results = append(results, model.CategoryResult{
				Title:  displayTitle(key),
				Places: places,
			})
		}
	}
	return results, nil
}

// Toggle flips the selected flag of the place with the given id in the
// retained results. Pure local mutation: no lookup is re-issued and siblings
// are untouched. Reports whether the id was found.
func (o *Orchestrator) Toggle(placeID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for ci := range o.results {
		for pi := range o.results[ci].Places {
			if o.results[ci].Places[pi].ID == placeID {
				o.results[ci].Places[pi].Selected = !o.results[ci].Places[pi].Selected
				return true
			}
		}
	}
	return false
}

// Reset destroys every session and discards results. Captured page text and
// the derived bounding box survive, so a fresh submission does not refetch.
func (o *Orchestrator) Reset() {
	o.sessions.ResetAll()
	o.mu.Lock()
	o.results = nil
	o.rendered = ""
	o.state = StateIdle
	o.mu.Unlock()
}

// Results returns a copy of the latest run's results.
func (o *Orchestrator) Results() []model.CategoryResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.CategoryResult, len(o.results))
	for i, cr := range o.results {
		out[i] = model.CategoryResult{
			Title:  cr.Title,
			Places: append([]model.PlaceRecord(nil), cr.Places...),
		}
	}
	return out
}

// Rendered returns the raw model reply of the latest run.
func (o *Orchestrator) Rendered() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rendered
}

// State returns the pipeline's current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Page returns the captured page text.
func (o *Orchestrator) Page() model.PageText {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.page
}

// BoundingBox returns the derived viewbox, zero when none was derived.
func (o *Orchestrator) BoundingBox() model.BoundingBox {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.box
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.log.Debug("pipeline state", zap.String("state", string(s)))
}

// displayTitle upcases the first letter of each word of a category label.
func displayTitle(key string) string {
	words := strings.Fields(key)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
