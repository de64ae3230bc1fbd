package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

// UnknownDistanceKM is returned when either side has no coordinates. It is
// large enough to fail any realistic distance filter.
const UnknownDistanceKM = 999

var ErrValidation = errors.New("validation error")

// DistanceKM computes the great-circle distance between two points in
// kilometers. Nil coordinates yield UnknownDistanceKM.
func DistanceKM(a, b *model.Coordinates) float64 {
	if a == nil || b == nil {
		return UnknownDistanceKM
	}
	return haversineKM(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func ValidateCoordinates(c model.Coordinates) error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("invalid coordinates: %w", ErrValidation)
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	return nil
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0

	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
