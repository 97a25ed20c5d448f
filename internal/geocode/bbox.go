package geocode

import (
	"math"

	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

const earthRadiusKm = 6371.0

// Around computes a square bounding box of sizeKm per side centered on the
// given point, using an equirectangular approximation: the latitude span is
// (size/R)·(180/π) degrees, and the longitude span is additionally divided by
// cos(latitude) to correct for meridian convergence.
func Around(lat, lon, sizeKm float64) model.BoundingBox {
	latSpan := (sizeKm / earthRadiusKm) * (180 / math.Pi)
	lonSpan := latSpan / math.Cos(lat*math.Pi/180)

	return model.BoundingBox{
		CenterLat: lat,
		CenterLon: lon,
		MinLat:    lat - latSpan/2,
		MaxLat:    lat + latSpan/2,
		MinLon:    lon - lonSpan/2,
		MaxLon:    lon + lonSpan/2,
	}
}
