package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stwalsh4118/schoolter/internal/database"
	"github.com/stwalsh4118/schoolter/internal/models"
)

// sqliteSchoolRepository implements SchoolRepository on SQLite. Timestamps
// are stored as RFC 3339 text.
type sqliteSchoolRepository struct {
	db *database.SQLite
	mu sync.RWMutex
}

// NewSQLiteSchoolRepository creates a SchoolRepository backed by db.
func NewSQLiteSchoolRepository(db *database.SQLite) SchoolRepository {
	return &sqliteSchoolRepository{db: db}
}

func (r *sqliteSchoolRepository) ReplaceSnapshot(ctx context.Context, snap *models.Snapshot, schools []*models.School) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sources, err := json.Marshal(snap.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal source mix: %w", err)
	}

	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schools`); err != nil {
		return fmt.Errorf("failed to clear previous schools: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, mode, record_count, sources, generated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.RunID.String(), snap.Mode, snap.Records, string(sources),
		snap.GeneratedAt.UTC().Format(time.RFC3339Nano), snap.PublishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snap.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schools (urn, id, run_id, name, borough, phase, sector, ofsted_rating, pupils, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare school insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range schools {
		_, err := stmt.ExecContext(ctx,
			s.URN, s.ID, snap.RunID.String(), s.Name, s.Borough, s.Phase, s.Sector, s.OfstedRating, s.Pupils,
			models.SchoolPayload{School: s},
		)
		if err != nil {
			return fmt.Errorf("failed to insert school %s: %w", s.URN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot %s: %w", snap.RunID, err)
	}
	return nil
}

func (r *sqliteSchoolRepository) List(ctx context.Context, f Filter) ([]*models.School, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	where, args := f.where(question)

	var total int
	if err := r.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM schools`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count schools: %w", err)
	}

	schools, err := r.query(ctx, `SELECT payload FROM schools`+where+` ORDER BY name, urn LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, total, nil
}

func (r *sqliteSchoolRepository) FindByURN(ctx context.Context, urn string) (*models.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var p models.SchoolPayload
	err := r.db.DB.QueryRowContext(ctx, `SELECT payload FROM schools WHERE urn = ?`, urn).Scan(&p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query school %s: %w", urn, err)
	}
	return p.School, nil
}

func (r *sqliteSchoolRepository) FindByURNs(ctx context.Context, urns []string) ([]*models.School, error) {
	if len(urns) == 0 {
		return []*models.School{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	marks := strings.TrimSuffix(strings.Repeat("?,", len(urns)), ",")
	args := make([]interface{}, len(urns))
	for i, u := range urns {
		args[i] = u
	}

	found, err := r.query(ctx, `SELECT payload FROM schools WHERE urn IN (`+marks+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schools %v: %w", urns, err)
	}
	return inOrder(urns, found), nil
}

func (r *sqliteSchoolRepository) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		snap                   models.Snapshot
		runID, sources         string
		generatedAt, published string
	)
	err := r.db.DB.QueryRowContext(ctx, `
		SELECT run_id, mode, record_count, sources, generated_at, published_at
		FROM snapshots
		ORDER BY published_at DESC
		LIMIT 1`,
	).Scan(&runID, &snap.Mode, &snap.Records, &sources, &generatedAt, &published)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	if snap.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot run id %q: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(sources), &snap.Sources); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot sources: %w", err)
	}
	if snap.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse generated_at: %w", err)
	}
	if snap.PublishedAt, err = time.Parse(time.RFC3339Nano, published); err != nil {
		return nil, fmt.Errorf("failed to parse published_at: %w", err)
	}
	return &snap, nil
}

func (r *sqliteSchoolRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *sqliteSchoolRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.School, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []*models.School{}
	for rows.Next() {
		var p models.SchoolPayload
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan school row: %w", err)
		}
		schools = append(schools, p.School)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating school rows: %w", err)
	}
	return schools, nil
}
