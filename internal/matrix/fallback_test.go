package matrix

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routeopt/internal/model"
)

func TestHaversineEstimator(t *testing.T) {
	e := NewHaversineEstimator(40)
	m, err := e.TravelTimes(context.Background(), testPoints)
	require.NoError(t, err)
	require.Len(t, m, 3)

	for i := range m {
		require.Len(t, m[i], 3)
		assert.Zero(t, m[i][i])
		for j := range m[i] {
			if i != j {
				assert.GreaterOrEqual(t, m[i][j], 0)
			}
		}
	}
	// Symmetric by construction.
	assert.Equal(t, m[0][1], m[1][0])

	// Same inputs, same matrix.
	again, err := e.TravelTimes(context.Background(), testPoints)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestHaversineEstimatorSpeedDefault(t *testing.T) {
	e := NewHaversineEstimator(0)
	assert.Equal(t, 40.0, e.SpeedKmh)
}

func newOKServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","durations":[[0,60],[60,0]]}`))
	}))
}

type failingProvider struct{}

func (failingProvider) TravelTimes(context.Context, []model.GeoPoint) ([][]int, error) {
	return nil, errors.New("boom")
}

func TestChainedFallsBack(t *testing.T) {
	c := &Chained{
		Primary:  failingProvider{},
		Fallback: NewHaversineEstimator(40),
		Log:      zerolog.Nop(),
	}
	m, err := c.TravelTimes(context.Background(), testPoints)
	require.NoError(t, err)
	assert.Len(t, m, 3)
}

func TestChainedPrefersPrimary(t *testing.T) {
	srv := newOKServer(t)
	defer srv.Close()

	c := &Chained{
		Primary:  NewOSRMClient(srv.URL, 0, 0),
		Fallback: failingProvider{},
		Log:      zerolog.Nop(),
	}
	m, err := c.TravelTimes(context.Background(), testPoints[:2])
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {1, 0}}, m)
}
