package model

import "time"

// Order / route statuses as stored in Postgres.
const (
	OrderPending  = "PENDING"
	OrderAssigned = "ASSIGNED"

	RoutePlanned = "PLANNED"

	StopAssigned = "ASSIGNED"
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Order is a pending delivery demand. WindowStart/WindowEnd are optional;
// the engine normalizes absent or inverted windows before solving.
type Order struct {
	ID          string     `json:"id"`
	Location    GeoPoint   `json:"location"`
	WindowStart *time.Time `json:"windowStart,omitempty"`
	WindowEnd   *time.Time `json:"windowEnd,omitempty"`
	Weight      float64    `json:"weight"`
	Volume      float64    `json:"volume"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Vehicle is an eligible unit of capacity: an in-service vehicle joined to
// its active driver. MaxJobs <= 0 means no per-day job cap.
type Vehicle struct {
	ID             string  `json:"id"`
	DriverID       string  `json:"driverId"`
	DriverName     string  `json:"driverName,omitempty"`
	CapacityWeight float64 `json:"capacityWeight"`
	CapacityVolume float64 `json:"capacityVolume"`
	MaxJobs        int     `json:"maxJobs,omitempty"`
}

type Depot struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// Route is one vehicle's committed plan for a date.
type Route struct {
	ID          string    `json:"id"`
	DriverID    string    `json:"driverId"`
	VehicleID   string    `json:"vehicleId"`
	PlannedDate time.Time `json:"plannedDate"`
	Status      string    `json:"status"`
	Stops       []Stop    `json:"stops"`
}

type Stop struct {
	ID               string    `json:"id"`
	RouteID          string    `json:"routeId,omitempty"`
	OrderID          string    `json:"orderId"`
	SequenceNumber   int       `json:"sequenceNumber"`
	EstimatedArrival time.Time `json:"estimatedArrivalTime"`
	Status           string    `json:"status"`
}

// FailureReason discriminates non-success optimization outcomes.
type FailureReason string

const (
	FailureEmptyDemand       FailureReason = "EMPTY_DEMAND"
	FailureNoCapacity        FailureReason = "NO_CAPACITY"
	FailureSolverInfeasible  FailureReason = "SOLVER_INFEASIBLE"
	FailureMatrixUnavailable FailureReason = "MATRIX_UNAVAILABLE"
	FailurePersistence       FailureReason = "PERSISTENCE_ERROR"
)

// OptimizationResult is the single outcome of an engine run. Success carries
// the commit counts; failures carry a reason and nothing was persisted.
type OptimizationResult struct {
	Success         bool          `json:"success"`
	Reason          FailureReason `json:"reason,omitempty"`
	Detail          string        `json:"detail,omitempty"`
	PlannedDate     string        `json:"plannedDate"`
	RoutesGenerated int           `json:"routesGenerated"`
	StopsAssigned   int           `json:"stopsAssigned"`
	OrdersSkipped   int           `json:"ordersSkipped"`
	ElapsedMs       int64         `json:"elapsedMs"`
}

// DateOnly formats a planned date the way it is stored and queried.
func DateOnly(t time.Time) string { return t.Format("2006-01-02") }
