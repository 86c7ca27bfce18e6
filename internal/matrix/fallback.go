package matrix

import (
	"context"
	"math"

	"routeopt/internal/model"
)

// HaversineEstimator computes travel times from great-circle distance at a
// fixed average speed. It is deterministic and always yields a complete
// matrix, so the solver never blocks on missing data.
type HaversineEstimator struct {
	SpeedKmh float64
}

func NewHaversineEstimator(speedKmh float64) *HaversineEstimator {
	if speedKmh <= 0 {
		speedKmh = 40
	}
	return &HaversineEstimator{SpeedKmh: speedKmh}
}

func (e *HaversineEstimator) TravelTimes(_ context.Context, points []model.GeoPoint) ([][]int, error) {
	n := len(points)
	out := make([][]int, n)
	for i := range out {
		out[i] = make([]int, n)
		for j := range out[i] {
			if i == j {
				continue
			}
			km := haversineKm(points[i], points[j])
			out[i][j] = int(km / e.SpeedKmh * 60)
		}
	}
	return out, nil
}

func haversineKm(a, b model.GeoPoint) float64 {
	const earthRadiusKm = 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
