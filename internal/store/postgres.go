package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"routeopt/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) PendingOrders(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id::text, lat, lng, time_window_start, time_window_end, weight, volume, created_at
		FROM orders
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`, model.OrderPending, limit)
	if err != nil {
		return nil, fmt.Errorf("pending orders: %w", err)
	}
	defer rows.Close()
	out := []model.Order{}
	for rows.Next() {
		var o model.Order
		var ws, we sql.NullTime
		if err := rows.Scan(&o.ID, &o.Location.Lat, &o.Location.Lng, &ws, &we, &o.Weight, &o.Volume, &o.CreatedAt); err != nil {
			return nil, err
		}
		if ws.Valid {
			t := ws.Time
			o.WindowStart = &t
		}
		if we.Valid {
			t := we.Time
			o.WindowEnd = &t
		}
		o.Status = model.OrderPending
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *Postgres) EligibleVehicles(ctx context.Context, date time.Time) ([]model.Vehicle, error) {
	day := model.DateOnly(date)

	// A date inside a managed period restricts eligibility to that period's
	// assigned drivers.
	var periodID string
	err := p.db.QueryRowContext(ctx,
		`SELECT id::text FROM periods WHERE $1::date BETWEEN start_date AND end_date LIMIT 1`, day).Scan(&periodID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("period lookup: %w", err)
	}

	var rows *sql.Rows
	if periodID != "" {
		rows, err = p.db.QueryContext(ctx, `
			SELECT v.id::text, d.id::text, d.full_name, v.capacity_weight, v.capacity_volume, COALESCE(d.max_jobs_per_day, 0)
			FROM drivers d
			JOIN driver_period_assignments dpa ON d.id = dpa.driver_id
			JOIN vehicles v ON d.assigned_vehicle_id = v.id
			WHERE dpa.period_id = $1 AND d.is_active = TRUE AND v.is_active = TRUE`, periodID)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT v.id::text, d.id::text, d.full_name, v.capacity_weight, v.capacity_volume, COALESCE(d.max_jobs_per_day, 0)
			FROM drivers d
			JOIN vehicles v ON d.assigned_vehicle_id = v.id
			WHERE d.is_active = TRUE AND v.is_active = TRUE`)
	}
	if err != nil {
		return nil, fmt.Errorf("eligible vehicles: %w", err)
	}
	defer rows.Close()
	out := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.DriverID, &v.DriverName, &v.CapacityWeight, &v.CapacityVolume, &v.MaxJobs); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) DefaultDepot(ctx context.Context) (model.Depot, error) {
	var d model.Depot
	err := p.db.QueryRowContext(ctx,
		`SELECT name, lat, lng FROM warehouse WHERE is_default = TRUE LIMIT 1`).
		Scan(&d.Name, &d.Location.Lat, &d.Location.Lng)
	if err == sql.ErrNoRows {
		return model.Depot{}, ErrNotFound
	}
	if err != nil {
		return model.Depot{}, fmt.Errorf("default depot: %w", err)
	}
	return d, nil
}

// ReplaceRoutesForDate swaps the plan for a date in one transaction. The
// delete-then-insert runs under the default isolation level; the engine
// additionally serializes same-date runs with a lock, so two commits for a
// date never interleave.
func (p *Postgres) ReplaceRoutesForDate(ctx context.Context, date time.Time, routes []model.Route) error {
	day := model.DateOnly(date)
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace routes: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Orders on the outgoing plan go back to pending before the new plan
	// claims its own set.
	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id IN (
			SELECT rs.order_id FROM route_stops rs
			JOIN routes r ON rs.route_id = r.id
			WHERE r.planned_date = $2::date
		)`, model.OrderPending, day)
	if err != nil {
		return fmt.Errorf("replace routes: reset orders: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM routes WHERE planned_date = $1::date`, day); err != nil {
		return fmt.Errorf("replace routes: delete: %w", err)
	}

	for _, rt := range routes {
		routeID := rt.ID
		if routeID == "" {
			routeID = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO routes (id, driver_id, vehicle_id, planned_date, status)
			VALUES ($1, $2, $3, $4::date, $5)`,
			routeID, rt.DriverID, rt.VehicleID, day, model.RoutePlanned)
		if err != nil {
			return fmt.Errorf("replace routes: insert route: %w", err)
		}
		for _, s := range rt.Stops {
			stopID := s.ID
			if stopID == "" {
				stopID = uuid.New().String()
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO route_stops (id, route_id, order_id, sequence_number, estimated_arrival_time, status)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				stopID, routeID, s.OrderID, s.SequenceNumber, s.EstimatedArrival, model.StopAssigned)
			if err != nil {
				return fmt.Errorf("replace routes: insert stop: %w", err)
			}
			if _, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, model.OrderAssigned, s.OrderID); err != nil {
				return fmt.Errorf("replace routes: assign order: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace routes: commit: %w", err)
	}
	return nil
}

func (p *Postgres) RoutesForDate(ctx context.Context, date time.Time) ([]model.Route, error) {
	day := model.DateOnly(date)
	rows, err := p.db.QueryContext(ctx, `
		SELECT r.id::text, r.driver_id::text, r.vehicle_id::text, r.planned_date, r.status,
		       rs.id::text, rs.order_id::text, rs.sequence_number, rs.estimated_arrival_time, rs.status
		FROM routes r
		LEFT JOIN route_stops rs ON rs.route_id = r.id
		WHERE r.planned_date = $1::date
		ORDER BY r.id, rs.sequence_number`, day)
	if err != nil {
		return nil, fmt.Errorf("routes for date: %w", err)
	}
	defer rows.Close()

	byID := map[string]*model.Route{}
	order := []string{}
	for rows.Next() {
		var rt model.Route
		var stopID, orderID, stopStatus sql.NullString
		var seq sql.NullInt64
		var eta sql.NullTime
		if err := rows.Scan(&rt.ID, &rt.DriverID, &rt.VehicleID, &rt.PlannedDate, &rt.Status,
			&stopID, &orderID, &seq, &eta, &stopStatus); err != nil {
			return nil, err
		}
		cur, ok := byID[rt.ID]
		if !ok {
			cur = &model.Route{ID: rt.ID, DriverID: rt.DriverID, VehicleID: rt.VehicleID, PlannedDate: rt.PlannedDate, Status: rt.Status}
			byID[rt.ID] = cur
			order = append(order, rt.ID)
		}
		if stopID.Valid {
			cur.Stops = append(cur.Stops, model.Stop{
				ID:               stopID.String,
				RouteID:          rt.ID,
				OrderID:          orderID.String,
				SequenceNumber:   int(seq.Int64),
				EstimatedArrival: eta.Time,
				Status:           stopStatus.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Route, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// MigrateDir applies *.sql files in lexical order, tracking applied files in
// schema_migrations.
func (p *Postgres) MigrateDir(dir string) error {
	if _, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		var done int
		if err := p.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE filename = $1`, name).Scan(&done); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if done > 0 {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if _, err := p.db.Exec(string(body)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if _, err := p.db.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}
