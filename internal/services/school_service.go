package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/stwalsh4118/schoolter/internal/logger"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/repository"
)

// Paging limits
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Comparison size limits
const (
	MinCompare = 2
	MaxCompare = 4
)

// Service-level errors
var (
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrSchoolNotFound    = errors.New("school not found")
	ErrInvalidComparison = errors.New("invalid comparison")
	ErrNoSnapshot        = errors.New("no snapshot published")
)

// ListQuery is a school listing request as received from a caller.
type ListQuery struct {
	Borough   string
	Phase     string
	Sector    string
	Rating    string
	Name      string
	MinPupils int
	MaxPupils int
	Limit     int
	Offset    int
}

// ListResult is one page of a listing.
type ListResult struct {
	Schools []*models.School `json:"schools"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// SchoolService defines the read and publish operations on school data.
type SchoolService interface {
	// List returns one page of schools matching q.
	// Returns ErrInvalidFilter if a field is out of range or not a known value.
	List(ctx context.Context, q ListQuery) (*ListResult, error)

	// Get returns one school.
	// Returns ErrSchoolNotFound if no school has urn.
	Get(ctx context.Context, urn string) (*models.School, error)

	// Compare returns 2 to 4 schools in the order requested.
	// Returns ErrInvalidComparison for a bad URN list and ErrSchoolNotFound
	// if any URN is unknown.
	Compare(ctx context.Context, urns []string) ([]*models.School, error)

	// Snapshot describes the published run.
	// Returns ErrNoSnapshot before the first publish.
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	// Publish replaces the stored snapshot with schools.
	Publish(ctx context.Context, snap *models.Snapshot, schools []*models.School) error
}

// schoolService is the concrete implementation of SchoolService.
type schoolService struct {
	repo repository.SchoolRepository
	log  *logger.Logger
}

// NewSchoolService creates a new instance of SchoolService.
func NewSchoolService(repo repository.SchoolRepository, log *logger.Logger) SchoolService {
	return &schoolService{
		repo: repo,
		log:  log,
	}
}

func (s *schoolService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	f, err := q.filter()
	if err != nil {
		s.log.Warn("Invalid school filter", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	schools, total, err := s.repo.List(ctx, f)
	if err != nil {
		s.log.Error("Failed to list schools", err, nil)
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}

	s.log.Debug("Listed schools", map[string]interface{}{
		"total":  total,
		"count":  len(schools),
		"limit":  f.Limit,
		"offset": f.Offset,
	})

	return &ListResult{Schools: schools, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *schoolService) Get(ctx context.Context, urn string) (*models.School, error) {
	urn = strings.TrimSpace(urn)
	if urn == "" {
		return nil, fmt.Errorf("%w: urn is required", ErrInvalidFilter)
	}

	school, err := s.repo.FindByURN(ctx, urn)
	if err != nil {
		s.log.Error("Failed to query school", err, map[string]interface{}{
			"urn": urn,
		})
		return nil, fmt.Errorf("failed to query school: %w", err)
	}
	if school == nil {
		return nil, fmt.Errorf("%w: %s", ErrSchoolNotFound, urn)
	}
	return school, nil
}

func (s *schoolService) Compare(ctx context.Context, urns []string) ([]*models.School, error) {
	cleaned := make([]string, 0, len(urns))
	for _, u := range urns {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if slices.Contains(cleaned, u) {
			return nil, fmt.Errorf("%w: urn %s is listed twice", ErrInvalidComparison, u)
		}
		cleaned = append(cleaned, u)
	}
	if len(cleaned) < MinCompare || len(cleaned) > MaxCompare {
		return nil, fmt.Errorf("%w: between %d and %d urns required, got %d",
			ErrInvalidComparison, MinCompare, MaxCompare, len(cleaned))
	}

	schools, err := s.repo.FindByURNs(ctx, cleaned)
	if err != nil {
		s.log.Error("Failed to query schools for comparison", err, map[string]interface{}{
			"urns": cleaned,
		})
		return nil, fmt.Errorf("failed to query schools: %w", err)
	}

	if len(schools) != len(cleaned) {
		for i, urn := range cleaned {
			if i >= len(schools) || schools[i].URN != urn {
				return nil, fmt.Errorf("%w: %s", ErrSchoolNotFound, urn)
			}
		}
	}
	return schools, nil
}

func (s *schoolService) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.repo.LatestSnapshot(ctx)
	if err != nil {
		s.log.Error("Failed to query snapshot", err, nil)
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

func (s *schoolService) Publish(ctx context.Context, snap *models.Snapshot, schools []*models.School) error {
	if snap.Records != len(schools) {
		return fmt.Errorf("snapshot %s declares %d records but %d were given", snap.RunID, snap.Records, len(schools))
	}

	if err := s.repo.ReplaceSnapshot(ctx, snap, schools); err != nil {
		s.log.Error("Failed to publish snapshot", err, map[string]interface{}{
			"run_id":  snap.RunID.String(),
			"records": snap.Records,
		})
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	s.log.Info("Snapshot published", map[string]interface{}{
		"run_id":  snap.RunID.String(),
		"mode":    snap.Mode,
		"records": snap.Records,
	})
	return nil
}

// filter validates q and resolves its defaults.
func (q ListQuery) filter() (repository.Filter, error) {
	if q.Phase != "" && !slices.Contains(models.Phases, q.Phase) {
		return repository.Filter{}, fmt.Errorf("%w: unknown phase %q", ErrInvalidFilter, q.Phase)
	}
	if q.Sector != "" && q.Sector != models.SectorState && q.Sector != models.SectorPrivate {
		return repository.Filter{}, fmt.Errorf("%w: unknown sector %q", ErrInvalidFilter, q.Sector)
	}
	if q.Rating != "" && !slices.Contains(models.Ratings, q.Rating) {
		return repository.Filter{}, fmt.Errorf("%w: unknown rating %q", ErrInvalidFilter, q.Rating)
	}
	if q.MinPupils < 0 || q.MaxPupils < 0 {
		return repository.Filter{}, fmt.Errorf("%w: pupil bounds must not be negative", ErrInvalidFilter)
	}
	if q.MinPupils > 0 && q.MaxPupils > 0 && q.MinPupils > q.MaxPupils {
		return repository.Filter{}, fmt.Errorf("%w: minPupils %d exceeds maxPupils %d", ErrInvalidFilter, q.MinPupils, q.MaxPupils)
	}
	if q.Offset < 0 {
		return repository.Filter{}, fmt.Errorf("%w: offset must not be negative", ErrInvalidFilter)
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return repository.Filter{}, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidFilter, MaxLimit, limit)
	}

	return repository.Filter{
		Borough:   strings.TrimSpace(q.Borough),
		Phase:     q.Phase,
		Sector:    q.Sector,
		Rating:    q.Rating,
		Name:      strings.TrimSpace(q.Name),
		MinPupils: q.MinPupils,
		MaxPupils: q.MaxPupils,
		Limit:     limit,
		Offset:    q.Offset,
	}, nil
}
