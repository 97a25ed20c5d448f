package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sid-lpcd/travel-chrome-extension/internal/backend"
	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
	"github.com/sid-lpcd/travel-chrome-extension/internal/pipeline"
	"github.com/sid-lpcd/travel-chrome-extension/internal/session"
	"github.com/sid-lpcd/travel-chrome-extension/internal/textsource"
)

type stubPrompter struct {
	mainReply string
}

func (s *stubPrompter) EnsureReady(ctx context.Context) error { return nil }

func (s *stubPrompter) Prompt(ctx context.Context, role model.Role, text string) (string, error) {
	switch role {
	case model.RoleMain:
		return s.mainReply, nil
	case model.RoleLocation:
		return "", nil
	default:
		return "museums", nil
	}
}

func (s *stubPrompter) ResetAll() {}

type stubGeocoder struct{}

func (stubGeocoder) Resolve(ctx context.Context, name string, bias model.BoundingBox) (*model.PlaceRecord, error) {
	if name == "Louvre" {
		return &model.PlaceRecord{ID: 7, Name: "Louvre", Address: "Paris, France", Selected: true}, nil
	}
	return nil, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, url string) (model.PageText, error) {
	return model.PageText{FullText: "The Louvre museum.", LocationExcerpt: "The Louvre museum."}, nil
}

type unavailableBackend struct{}

func (unavailableBackend) Capabilities(ctx context.Context) (model.Capabilities, error) {
	return model.Capabilities{Available: model.AvailabilityUnavailable}, nil
}

func (unavailableBackend) Download(ctx context.Context, progress func(int)) error { return nil }

func (unavailableBackend) NewSession(ctx context.Context, p backend.SessionParams) (backend.Session, error) {
	return nil, &backend.UnavailableError{State: model.AvailabilityUnavailable}
}

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	log := zap.NewNop()
	orch := pipeline.New(
		&stubPrompter{mainReply: `{"museums":["Louvre"]}`},
		stubGeocoder{}, stubFetcher{}, log, 3)

	s := &Server{
		Pipeline: orch,
		Sessions: session.NewManager(unavailableBackend{}, log, 0, 0),
		Source:   textsource.NewSource(1, 0, log),
		Log:      log,
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestHandleSubmit(t *testing.T) {
	_, srv := testServer(t)

	resp := postJSON(t, srv.URL+"/api/submit", `{"query":"art"}`)
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Results  []model.CategoryResult `json:"results"`
		Response string                 `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Title != "Museums" {
		t.Errorf("unexpected results: %+v", body.Results)
	}
	if body.Response == "" {
		t.Error("expected raw response for rendering")
	}
}

func TestHandleToggle(t *testing.T) {
	_, srv := testServer(t)

	resp := postJSON(t, srv.URL+"/api/submit", `{"query":"art"}`)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/toggle", `{"id":7}`)
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}

	var body struct {
		Results []model.CategoryResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body.Results[0].Places[0].Selected {
		t.Error("expected place to be deselected after toggle")
	}

	resp = postJSON(t, srv.URL+"/api/toggle", `{"id":424242}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleReset(t *testing.T) {
	s, srv := testServer(t)

	resp := postJSON(t, srv.URL+"/api/submit", `{"query":"art"}`)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/reset", `{}`)
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	if len(s.Pipeline.Results()) != 0 {
		t.Error("results should be cleared after reset")
	}
}

func TestHandleCapabilities_ReportsState(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/capabilities")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var caps model.Capabilities
	if err := json.NewDecoder(resp.Body).Decode(&caps); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if caps.Available != model.AvailabilityUnavailable {
		t.Errorf("available = %s, want unavailable", caps.Available)
	}
}

func TestHandleGetText_Protocol(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Hello from Berlin</p></body></html>`))
	}))
	defer page.Close()

	_, srv := testServer(t)

	resp := postJSON(t, srv.URL+"/api/gettext", `{"method":"getText","url":"`+page.URL+`"}`)
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Method       string `json:"method"`
		Data         string `json:"data"`
		LocationText string `json:"locationText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body.Method != "getText" {
		t.Errorf("method = %q", body.Method)
	}
	if !strings.Contains(body.Data, "Berlin") {
		t.Errorf("data = %q", body.Data)
	}
	if body.LocationText == "" {
		t.Error("expected locationText")
	}

	resp = postJSON(t, srv.URL+"/api/gettext", `{"method":"other","url":"x"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong method: status = %d, want 400", resp.StatusCode)
	}
}
