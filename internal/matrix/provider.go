// Package matrix produces square travel-time matrices (integer minutes) for
// ordered lists of geographic points. The OSRM table endpoint is the primary
// source; a deterministic haversine estimate covers outages.
package matrix

import (
	"context"

	"github.com/rs/zerolog"

	"routeopt/internal/metrics"
	"routeopt/internal/model"
)

// UnreachableSeconds is substituted for null table entries before the
// seconds-to-minutes conversion.
const UnreachableSeconds = 9999

// Provider returns an N×N matrix of directed travel times in minutes for the
// given points. Entry [i][j] is the time from points[i] to points[j];
// [i][i] is always zero.
type Provider interface {
	TravelTimes(ctx context.Context, points []model.GeoPoint) ([][]int, error)
}

// Chained queries Primary and falls back to Fallback on any error. The
// fallback never fails, so a Chained provider only errors when both do.
type Chained struct {
	Primary  Provider
	Fallback Provider
	Log      zerolog.Logger
}

func (c *Chained) TravelTimes(ctx context.Context, points []model.GeoPoint) ([][]int, error) {
	m, err := c.Primary.TravelTimes(ctx, points)
	if err == nil {
		metrics.MatrixRequests.WithLabelValues("osrm").Inc()
		return m, nil
	}
	c.Log.Warn().Err(err).Int("points", len(points)).Msg("matrix source failed, using fallback estimate")
	metrics.MatrixRequests.WithLabelValues("fallback").Inc()
	return c.Fallback.TravelTimes(ctx, points)
}
