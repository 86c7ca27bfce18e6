package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"routeopt/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	migrationsDir := flag.String("migrations", "db/migrations", "directory with *.sql migration files")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	cmd := flag.Arg(0)
	switch cmd {
	case "migrate":
		pg, err := store.NewPostgres(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		log.Println("Applying migrations...")
		if err := pg.MigrateDir(*migrationsDir); err != nil {
			log.Fatalf("migrate failed: %v", err)
		}
		log.Println("Schema ready.")
	case "seed":
		db, err := sql.Open("pgx", databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		log.Println("Seeding demo data...")
		if err := seed(db); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		log.Println("Seeding complete.")
	default:
		fmt.Fprintln(os.Stderr, "usage: dbtool [-migrations dir] migrate|seed")
		os.Exit(2)
	}
}

// seed inserts a demo warehouse, two drivers with vehicles, and a handful of
// pending orders spread around the depot. Safe to re-run.
func seed(db *sql.DB) error {
	if _, err := db.Exec(`
		INSERT INTO warehouse (name, lat, lng, is_default)
		SELECT 'Central Depot', 1.2897, 103.8501, TRUE
		WHERE NOT EXISTS (SELECT 1 FROM warehouse WHERE is_default)`); err != nil {
		return fmt.Errorf("seed warehouse: %w", err)
	}

	vehicles := []struct {
		plate      string
		wcap, vcap float64
		driver     string
	}{
		{"SGX-1001", 800, 6, "Alice Tan"},
		{"SGX-1002", 1200, 9, "Bob Lim"},
	}
	for _, v := range vehicles {
		var exists bool
		if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM vehicles WHERE plate = $1)`, v.plate).Scan(&exists); err != nil {
			return fmt.Errorf("check vehicle %s: %w", v.plate, err)
		}
		if exists {
			continue
		}
		var vehicleID string
		err := db.QueryRow(`
			INSERT INTO vehicles (plate, capacity_weight, capacity_volume, is_active)
			VALUES ($1, $2, $3, TRUE)
			RETURNING id::text`, v.plate, v.wcap, v.vcap).Scan(&vehicleID)
		if err != nil {
			return fmt.Errorf("seed vehicle %s: %w", v.plate, err)
		}
		if _, err := db.Exec(`
			INSERT INTO drivers (full_name, assigned_vehicle_id, is_active)
			VALUES ($1, $2, TRUE)`, v.driver, vehicleID); err != nil {
			return fmt.Errorf("seed driver %s: %w", v.driver, err)
		}
	}

	orders := []struct {
		lat, lng   float64
		weight     float64
		volume     float64
		start, end int // minutes past horizon start, negative start means no window
	}{
		{1.3000, 103.8400, 50, 0.4, 0, 240},
		{1.3100, 103.8600, 30, 0.2, 60, 300},
		{1.2800, 103.8300, 80, 0.7, -1, 0},
		{1.3200, 103.8700, 20, 0.1, 120, 480},
		{1.2950, 103.8550, 45, 0.3, -1, 0},
		{1.3050, 103.8450, 60, 0.5, 0, 720},
	}
	var orderCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		return fmt.Errorf("count orders: %w", err)
	}
	if orderCount > 0 {
		return nil
	}
	now := time.Now()
	base := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
	for i, o := range orders {
		var ws, we any
		if o.start >= 0 {
			ws = base.Add(time.Duration(o.start) * time.Minute)
			we = base.Add(time.Duration(o.end) * time.Minute)
		}
		if _, err := db.Exec(`
			INSERT INTO orders (lat, lng, weight, volume, time_window_start, time_window_end, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'PENDING', now() - ($7 || ' minutes')::interval)`,
			o.lat, o.lng, o.weight, o.volume, ws, we, i); err != nil {
			return fmt.Errorf("seed order %d: %w", i, err)
		}
	}
	return nil
}
