package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/stwalsh4118/schoolter/internal/models"
)

// Filter narrows a school listing. Zero values mean "no constraint";
// Limit must already be resolved by the caller.
type Filter struct {
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

// SchoolRepository stores the published snapshot.
type SchoolRepository interface {
	// ReplaceSnapshot atomically swaps the stored snapshot for snap and schools.
	ReplaceSnapshot(ctx context.Context, snap *models.Snapshot, schools []*models.School) error

	// List returns one page of schools ordered by name and the total number
	// of matches.
	List(ctx context.Context, f Filter) ([]*models.School, int, error)

	// FindByURN returns nil, nil when no school has urn.
	FindByURN(ctx context.Context, urn string) (*models.School, error)

	// FindByURNs returns the schools found, in the order requested.
	FindByURNs(ctx context.Context, urns []string) ([]*models.School, error)

	// LatestSnapshot returns nil, nil before anything is published.
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

// placeholder renders the n-th (1-based) bind parameter for a dialect.
type placeholder func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// where builds the WHERE clause for f. Borough and name match without
// regard to case.
func (f Filter) where(ph placeholder) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, ph(len(args))))
	}

	if f.Borough != "" {
		add("LOWER(borough) = %s", strings.ToLower(f.Borough))
	}
	if f.Phase != "" {
		add("phase = %s", f.Phase)
	}
	if f.Sector != "" {
		add("sector = %s", f.Sector)
	}
	if f.Rating != "" {
		add("ofsted_rating = %s", f.Rating)
	}
	if f.Name != "" {
		add(`LOWER(name) LIKE %s ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(f.Name))+"%")
	}
	if f.MinPupils > 0 {
		add("pupils >= %s", f.MinPupils)
	}
	if f.MaxPupils > 0 {
		add("pupils <= %s", f.MaxPupils)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// inOrder arranges found schools in the order of urns, skipping misses.
func inOrder(urns []string, found []*models.School) []*models.School {
	byURN := make(map[string]*models.School, len(found))
	for _, s := range found {
		byURN[s.URN] = s
	}
	ordered := make([]*models.School, 0, len(urns))
	for _, urn := range urns {
		if s, ok := byURN[urn]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered
}
