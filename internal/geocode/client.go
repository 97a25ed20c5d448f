// Package geocode resolves entity names to real-world places via a
// Nominatim-compatible search endpoint. Resolution is best-effort enrichment:
// a lookup that finds nothing, times out, or errors is a miss, never a
// pipeline failure.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

// Client issues viewbox-aware place lookups.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	rl         *RateLimiter
	log        *zap.Logger
}

// NewClient creates a Client for the given Nominatim-compatible base URL.
func NewClient(baseURL string, rps float64, log *zap.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{},
		rl:         NewRateLimiter(rps),
		log:        log,
	}
}

// nominatimResult mirrors the fields we read from a search response entry.
type nominatimResult struct {
	PlaceID int64  `json:"place_id"`
	Name    string `json:"name"`
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		City     string `json:"city"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

// Resolve looks up name and returns at most one place, or nil on a miss.
// When bias is a valid box the query is constrained to that viewbox.
// Transport and service failures degrade to a miss; the only error returned
// is context cancellation.
func (c *Client) Resolve(ctx context.Context, name string, bias model.BoundingBox) (*model.PlaceRecord, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", name)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	if bias.Valid() {
		params.Set("viewbox", fmt.Sprintf("%s,%s,%s,%s",
			formatCoord(bias.MinLon), formatCoord(bias.MinLat),
			formatCoord(bias.MaxLon), formatCoord(bias.MaxLat)))
		params.Set("bounded", "1")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn("geocode request failed", zap.String("query", name), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		c.log.Warn("geocode returned non-200",
			zap.String("query", name), zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.log.Warn("geocode response not decodable", zap.String("query", name), zap.Error(err))
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	r := results[0]
	displayName := r.Name
	if displayName == "" {
		displayName = name
	}

	return &model.PlaceRecord{
		ID:      r.PlaceID,
		Name:    displayName,
		Address: composeAddress(r.Address.City, r.Address.Postcode, r.Address.Country),
		Coordinates: model.Coordinates{
			Lat: r.Lat,
			Lon: r.Lon,
		},
		Selected: true,
	}, nil
}

// composeAddress joins the present address parts with commas, falling back to
// the "N/A" sentinel when every part is absent.
func composeAddress(city, postcode, country string) string {
	var parts []string
	for _, p := range []string{city, postcode, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, ", ")
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
