package geocode

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 1000, zap.NewNop())
}

func TestResolve_Found(t *testing.T) {
	var gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if r.URL.Query().Get("format") != "json" {
			t.Error("missing format=json")
		}
		if r.URL.Query().Get("addressdetails") != "1" {
			t.Error("missing addressdetails=1")
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Error("missing limit=1")
		}
		w.Write([]byte(`[{"place_id":12345,"name":"Tour Eiffel","lat":"48.8584","lon":"2.2945","address":{"city":"Paris","postcode":"75007","country":"France"}}]`))
	})

	place, err := c.Resolve(context.Background(), "Eiffel Tower", model.BoundingBox{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place == nil {
		t.Fatal("expected a place")
	}
	if gotQuery != "Eiffel Tower" {
		t.Errorf("query = %q", gotQuery)
	}
	if place.ID != 12345 {
		t.Errorf("id = %d", place.ID)
	}
	if place.Address != "Paris, 75007, France" {
		t.Errorf("address = %q", place.Address)
	}
	if !place.Selected {
		t.Error("expected selected=true by default")
	}
}

func TestResolve_ViewboxBias(t *testing.T) {
	var viewbox, bounded string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		viewbox = r.URL.Query().Get("viewbox")
		bounded = r.URL.Query().Get("bounded")
		w.Write([]byte(`[]`))
	})

	bias := model.BoundingBox{MinLat: 48, MaxLat: 49, MinLon: 2, MaxLon: 3}
	if _, err := c.Resolve(context.Background(), "Louvre", bias); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if viewbox != "2,48,3,49" {
		t.Errorf("viewbox = %q, want minLon,minLat,maxLon,maxLat", viewbox)
	}
	if bounded != "1" {
		t.Errorf("bounded = %q", bounded)
	}
}

func TestResolve_NoViewboxWithoutBias(t *testing.T) {
	var hasViewbox bool
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hasViewbox = r.URL.Query().Has("viewbox")
		w.Write([]byte(`[]`))
	})

	if _, err := c.Resolve(context.Background(), "Louvre", model.BoundingBox{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasViewbox {
		t.Error("zero-value box must not add a viewbox")
	}
}

func TestResolve_Miss(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	place, err := c.Resolve(context.Background(), "Nowhere Such Place", model.BoundingBox{})
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if place != nil {
		t.Errorf("expected nil place, got %+v", place)
	}
}

func TestResolve_ServiceFailureDegradesToMiss(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	place, err := c.Resolve(context.Background(), "Louvre", model.BoundingBox{})
	if err != nil || place != nil {
		t.Errorf("expected (nil, nil) on service failure, got (%v, %v)", place, err)
	}
}

func TestResolve_AddressSentinel(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"place_id":7,"name":"","lat":"1","lon":"2","address":{}}]`))
	})

	place, err := c.Resolve(context.Background(), "Somewhere", model.BoundingBox{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Address != "N/A" {
		t.Errorf("address = %q, want N/A", place.Address)
	}
	if place.Name != "Somewhere" {
		t.Errorf("name should fall back to the query, got %q", place.Name)
	}
}

func TestAround_ParisSpan(t *testing.T) {
	box := Around(48.8566, 2.3522, 100)

	latSpan := box.MaxLat - box.MinLat
	if math.Abs(latSpan-0.9) > 0.009 {
		t.Errorf("latitude span = %f, want within 1%% of 0.9", latSpan)
	}

	lonSpan := box.MaxLon - box.MinLon
	if lonSpan <= latSpan {
		t.Errorf("longitude span %f should exceed latitude span %f at 48.86N", lonSpan, latSpan)
	}
}

func TestAround_LonSpanWidensWithLatitude(t *testing.T) {
	prev := 0.0
	for _, lat := range []float64{0, 15, 30, 45, 60} {
		box := Around(lat, 0, 100)
		span := box.MaxLon - box.MinLon
		if span <= prev {
			t.Fatalf("longitude span must grow with |latitude|: %f at %f after %f", span, lat, prev)
		}
		prev = span
	}
}

func TestComposeAddress_Partial(t *testing.T) {
	if got := composeAddress("", "75007", "France"); got != "75007, France" {
		t.Errorf("got %q", got)
	}
	if got := composeAddress("Paris", "", ""); got != "Paris" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(composeAddress("Paris", "75007", "France"), ", ") {
		t.Error("expected comma separators")
	}
}
