// Package history records render runs in a SQL database (postgres or
// sqlite) or in memory when no database is configured.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DefaultRecentLimit applies when Recent is called with a limit <= 0.
const DefaultRecentLimit = 10

var (
	ErrNotFound          = errors.New("render run not found")
	ErrUnsupportedDriver = errors.New("unsupported history driver")
)

// Run is one pipeline execution.
type Run struct {
	ID          string
	Scene       string
	FEN         string
	EPD         string
	BoardFEN    string
	Compressed  string
	Nodes       int
	Steps       int
	OutputPath  string
	Cached      bool
	DeliveredTo string
	CreatedAt   time.Time
}

// NewRun stamps a fresh id and creation time.
func NewRun(scene, fen string) *Run {
	return &Run{ID: uuid.NewString(), Scene: scene, FEN: fen, CreatedAt: time.Now().UTC()}
}

type Repository interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	Recent(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}

// Open picks a repository for driver. An empty dsn with the sqlite driver
// keeps the history in a private in-memory database.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case DriverMemory:
		return NewMemoryRepository(), nil
	case DriverSQLite:
		if strings.TrimSpace(dsn) == "" {
			dsn = ":memory:"
		}
	case DriverPostgres:
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("postgres history requires a dsn")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	repo := NewRepository(db, driver)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}
