package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/schoolter/internal/config"
	"github.com/stwalsh4118/schoolter/internal/database"
)

// Store is an opened SchoolRepository together with the connection that
// backs it.
type Store struct {
	Schools SchoolRepository
	Driver  string
	close   func()
}

// Close releases the underlying connection.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the database selected by cfg.Driver and returns the
// matching repository. The schema is created if it does not exist.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{
			Schools: NewSQLiteSchoolRepository(db),
			Driver:  cfg.Driver,
			close:   func() { _ = db.Close() },
		}, nil
	case config.DriverPostgres:
		db, err := database.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{
			Schools: NewPostgresSchoolRepository(db),
			Driver:  cfg.Driver,
			close:   db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
