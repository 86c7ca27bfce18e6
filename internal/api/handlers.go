package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"routeopt/internal/model"
)

// parseDate accepts YYYY-MM-DD; an empty value defaults to today.
func parseDate(v string) (time.Time, error) {
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return d, nil
}

// OptimizeHandler handles POST /v1/optimize. The optional body carries the
// planned date; omitted means today.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PlannedDate string `json:"plannedDate"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
	}
	if req.PlannedDate == "" {
		req.PlannedDate = r.URL.Query().Get("date")
	}
	date, err := parseDate(req.PlannedDate)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}

	result := s.Optimizer.Optimize(r.Context(), date)
	if !result.Success && result.Reason == model.FailurePersistence {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	// Business failures (no demand, no capacity, …) are ordinary outcomes.
	writeJSON(w, http.StatusOK, result)
}

// RoutesHandler handles GET /v1/routes?date=YYYY-MM-DD.
func (s *Server) RoutesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	routes, err := s.Store.RoutesForDate(r.Context(), date)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List routes failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": model.DateOnly(date), "routes": routes})
}

// EventsHandler streams run events for a date over SSE:
// GET /v1/optimize/events?date=YYYY-MM-DD.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	topic := model.DateOnly(date)
	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			data, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		}
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Ready(ctx); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
