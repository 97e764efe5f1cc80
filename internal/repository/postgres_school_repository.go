package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/schoolter/internal/database"
	"github.com/stwalsh4118/schoolter/internal/models"
)

// postgresSchoolRepository implements SchoolRepository on PostgreSQL.
type postgresSchoolRepository struct {
	db *database.Database
}

// NewPostgresSchoolRepository creates a SchoolRepository backed by db.
func NewPostgresSchoolRepository(db *database.Database) SchoolRepository {
	return &postgresSchoolRepository{db: db}
}

// ReplaceSnapshot deletes the stored snapshot (its schools cascade) and
// inserts the new one in a single transaction, batching the school rows.
func (r *postgresSchoolRepository) ReplaceSnapshot(ctx context.Context, snap *models.Snapshot, schools []*models.School) error {
	sources, err := json.Marshal(snap.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal source mix: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO snapshots (run_id, mode, record_count, sources, generated_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.RunID.String(), snap.Mode, snap.Records, string(sources), snap.GeneratedAt, snap.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snap.RunID, err)
	}

	batch := &pgx.Batch{}
	for _, s := range schools {
		batch.Queue(`
			INSERT INTO schools (urn, id, run_id, name, borough, phase, sector, ofsted_rating, pupils, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			s.URN, s.ID, snap.RunID.String(), s.Name, s.Borough, s.Phase, s.Sector, s.OfstedRating, s.Pupils,
			models.SchoolPayload{School: s},
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert schools: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot %s: %w", snap.RunID, err)
	}
	return nil
}

func (r *postgresSchoolRepository) List(ctx context.Context, f Filter) ([]*models.School, int, error) {
	where, args := f.where(dollar)

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM schools`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count schools: %w", err)
	}

	query := fmt.Sprintf(`SELECT payload FROM schools%s ORDER BY name, urn LIMIT %s OFFSET %s`,
		where, dollar(len(args)+1), dollar(len(args)+2))
	schools, err := r.query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, total, nil
}

func (r *postgresSchoolRepository) FindByURN(ctx context.Context, urn string) (*models.School, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT payload FROM schools WHERE urn = $1`, urn).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query school %s: %w", urn, err)
	}

	var p models.SchoolPayload
	if err := p.Scan(raw); err != nil {
		return nil, fmt.Errorf("failed to decode school %s: %w", urn, err)
	}
	return p.School, nil
}

func (r *postgresSchoolRepository) FindByURNs(ctx context.Context, urns []string) ([]*models.School, error) {
	if len(urns) == 0 {
		return []*models.School{}, nil
	}
	found, err := r.query(ctx, `SELECT payload FROM schools WHERE urn = ANY($1)`, urns)
	if err != nil {
		return nil, fmt.Errorf("failed to query schools %v: %w", urns, err)
	}
	return inOrder(urns, found), nil
}

func (r *postgresSchoolRepository) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var (
		snap    models.Snapshot
		runID   string
		sources []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT run_id, mode, record_count, sources, generated_at, published_at
		FROM snapshots
		ORDER BY published_at DESC
		LIMIT 1`,
	).Scan(&runID, &snap.Mode, &snap.Records, &sources, &snap.GeneratedAt, &snap.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	if snap.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot run id %q: %w", runID, err)
	}
	if err := json.Unmarshal(sources, &snap.Sources); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot sources: %w", err)
	}
	snap.GeneratedAt = snap.GeneratedAt.UTC()
	snap.PublishedAt = snap.PublishedAt.UTC()
	return &snap, nil
}

func (r *postgresSchoolRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *postgresSchoolRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.School, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []*models.School{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan school row: %w", err)
		}
		var p models.SchoolPayload
		if err := p.Scan(raw); err != nil {
			return nil, err
		}
		schools = append(schools, p.School)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating school rows: %w", err)
	}
	return schools, nil
}
