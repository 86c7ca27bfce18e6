package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"routeopt/internal/metrics"
	"routeopt/internal/model"
)

// OSRMClient fetches duration matrices from an OSRM table endpoint. A failed
// or slow request returns an error; callers wrap the client in a Chained
// provider so the run degrades to the estimator instead of aborting.
type OSRMClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewOSRMClient(baseURL string, timeout time.Duration, requestsPerSecond float64) *OSRMClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &OSRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message,omitempty"`
	Durations [][]*float64 `json:"durations"`
}

func (c *OSRMClient) TravelTimes(ctx context.Context, points []model.GeoPoint) ([][]int, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("osrm: no points")
	}
	if len(points) == 1 {
		// Depot-only problem; no reason to hit the network.
		return [][]int{{0}}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// OSRM wants lng,lat pairs.
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%f,%f", p.Lng, p.Lat)
	}
	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=duration", c.baseURL, strings.Join(coords, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("osrm: create request: %w", err)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm: table request: %w", err)
	}
	defer resp.Body.Close()
	metrics.MatrixDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm: table request: status %d", resp.StatusCode)
	}
	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("osrm: decode response: %w", err)
	}
	if tr.Code != "Ok" {
		return nil, fmt.Errorf("osrm: %s: %s", tr.Code, tr.Message)
	}
	if len(tr.Durations) != len(points) {
		return nil, fmt.Errorf("osrm: expected %d rows, got %d", len(points), len(tr.Durations))
	}

	// Durations come back in seconds; convert to whole minutes, substituting
	// a large sentinel for unreachable (null) entries.
	out := make([][]int, len(points))
	for i, row := range tr.Durations {
		if len(row) != len(points) {
			return nil, fmt.Errorf("osrm: row %d has %d entries, want %d", i, len(row), len(points))
		}
		out[i] = make([]int, len(points))
		for j, d := range row {
			sec := float64(UnreachableSeconds)
			if d != nil {
				sec = *d
			}
			out[i][j] = int(sec / 60)
		}
	}
	return out, nil
}
