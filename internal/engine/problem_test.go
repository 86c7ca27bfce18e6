package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"routeopt/internal/model"
)

func TestNormalizeWindow(t *testing.T) {
	horizonStart := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	at := func(min int) *time.Time {
		ts := horizonStart.Add(time.Duration(min) * time.Minute)
		return &ts
	}

	tests := []struct {
		name  string
		order model.Order
		want  TimeWindow
	}{
		{"absent window widens to default", model.Order{}, TimeWindow{0, 720}},
		{"only start widens to default", model.Order{WindowStart: at(60)}, TimeWindow{0, 720}},
		{"inverted window widens to default", model.Order{WindowStart: at(300), WindowEnd: at(100)}, TimeWindow{0, 720}},
		{"start before horizon clamps to zero", model.Order{WindowStart: at(-90), WindowEnd: at(120)}, TimeWindow{0, 120}},
		{"short window stretches to 30 minutes", model.Order{WindowStart: at(100), WindowEnd: at(110)}, TimeWindow{100, 130}},
		{"well-formed window passes through", model.Order{WindowStart: at(60), WindowEnd: at(240)}, TimeWindow{60, 240}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeWindow(tt.order, horizonStart, 720))
		})
	}
}
