package health

import (
	"context"
	"database/sql"
	"time"

	"contract-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// RunCounter reports how many contract runs are queued or running.
type RunCounter interface {
	Pending() int
}

// Service encapsulates health-related checks.
type Service struct {
	DB   *sql.DB
	Runs RunCounter
}

// NewService constructs a new health service. sqlDB may be nil when the
// in-memory repository is in use.
func NewService(sqlDB *sql.DB, runs RunCounter) *Service {
	return &Service{DB: sqlDB, Runs: runs}
}

// Report is the health payload.
type Report struct {
	OK          bool           `json:"ok"`
	Database    string         `json:"database"`
	PendingRuns int            `json:"pending_runs"`
	DBPool      map[string]any `json:"db_pool,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Status checks the database and reads the run backlog.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Database: "memory"}
	if s.Runs != nil {
		r.PendingRuns = s.Runs.Pending()
	}
	if s.DB == nil {
		return r
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(pctx); err != nil {
		r.OK = false
		r.Database = "down"
		r.Error = err.Error()
		return r
	}
	r.Database = "up"
	r.DBPool = db.PoolStats(s.DB)
	return r
}
