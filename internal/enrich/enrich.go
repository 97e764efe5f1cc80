// Package enrich attaches sub-records to extracted schools, preferring
// real published facts where a source has them and synthetic values
// everywhere else.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/generators"
	"github.com/stwalsh4118/schoolter/internal/logger"
	"github.com/stwalsh4118/schoolter/internal/metrics"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

// Mode selects how much real data a run tries to fetch.
type Mode string

const (
	// ModeQuick never touches the network.
	ModeQuick Mode = "quick"
	// ModeEnrich fetches Ofsted and performance facts.
	ModeEnrich Mode = "enrich"
	// ModeFull also scrapes school websites for contact details.
	ModeFull Mode = "full"
)

// ParseMode validates a mode name.
func ParseMode(v string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(v))); m {
	case ModeQuick, ModeEnrich, ModeFull:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q: must be one of quick, enrich, full", v)
}

// RealDataSource supplies published facts. Any error means "not
// available" and the synthetic value is kept.
type RealDataSource interface {
	FetchOfsted(ctx context.Context, urn string) (*models.OfstedFacts, error)
	FetchPerformance(ctx context.Context, urn string) (*models.Performance, error)
	FetchContact(ctx context.Context, s *models.School) (*models.ContactFacts, error)
}

// Options configures an Enricher.
type Options struct {
	Mode  Mode
	Env   generators.Env
	Delay time.Duration
}

// Report summarises a run.
type Report struct {
	Records int
	Fetched int
	Sources models.SourceMix
}

// Enricher runs the per-school pipeline over a record set.
type Enricher struct {
	tables  *covariates.Tables
	source  RealDataSource
	opts    Options
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates an Enricher. source may be nil in quick mode; m may be nil.
func New(tables *covariates.Tables, source RealDataSource, opts Options, log *logger.Logger, m *metrics.Metrics) (*Enricher, error) {
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Mode != ModeQuick && source == nil {
		return nil, fmt.Errorf("mode %s needs a real data source", opts.Mode)
	}
	if opts.Env.ReferenceYear == 0 {
		opts.Env = generators.DefaultEnv()
	}
	return &Enricher{
		tables:  tables,
		source:  source,
		opts:    opts,
		log:     log,
		metrics: m,
	}, nil
}

// Run enriches schools in place, in order. Ids are reassigned 1..N in
// input order before seeding. Schools are processed one at a time; the
// configured delay separates records that attempted a real fetch.
// Cancelling ctx stops the run between records.
func (e *Enricher) Run(ctx context.Context, schools []*models.School) (*Report, error) {
	report := &Report{Sources: models.NewSourceMix()}

	for i, s := range schools {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("enrichment cancelled after %d of %d records: %w", i, len(schools), err)
		}

		s.ID = i + 1
		prov, fetched := e.Enrich(ctx, s)
		report.Sources.Add(prov)
		report.Records++
		if fetched {
			report.Fetched++
		}
		if e.metrics != nil {
			for _, g := range models.FieldGroups {
				e.metrics.RecordSource(g, string(prov[g]))
			}
		}

		if fetched && e.opts.Delay > 0 && i < len(schools)-1 {
			if err := sleep(ctx, e.opts.Delay); err != nil {
				return report, fmt.Errorf("enrichment cancelled after %d of %d records: %w", i+1, len(schools), err)
			}
		}
	}

	e.log.Info("Enrichment complete", map[string]interface{}{
		"mode":    string(e.opts.Mode),
		"records": report.Records,
		"fetched": report.Fetched,
		"sources": report.Sources.Summary(),
	})
	return report, nil
}

// Enrich runs one school through the pipeline: fetch the real inspection
// outcome where the mode allows, synthesize every group from the school's
// own stream, overlay the remaining real facts and attach the result. A
// fetched rating replaces the school's rating before synthesis so every
// rating-correlated group agrees with it. Enrich reports each group's
// source and whether a real fetch was attempted.
func (e *Enricher) Enrich(ctx context.Context, s *models.School) (models.Provenance, bool) {
	prov := make(models.Provenance, len(models.FieldGroups))
	for _, g := range models.FieldGroups {
		prov[g] = models.SourceSynthetic
	}

	fetched := e.opts.Mode != ModeQuick
	var inspection *models.OfstedFacts
	if fetched {
		inspection = e.fetchOfsted(ctx, s)
		if inspection != nil {
			s.OfstedRating = inspection.Rating
		}
	}

	r := prng.New(prng.SeedFor(s.URN, s.ID))
	b := generators.Synthesize(s, e.tables, e.opts.Env, r)

	if inspection != nil {
		if inspection.InspectionDate != "" {
			b.Ofsted.InspectionDate = inspection.InspectionDate
		}
		if inspection.ReportURL != "" {
			b.Ofsted.ReportURL = inspection.ReportURL
		}
		prov[models.GroupOfsted] = models.SourceReal
	}
	if fetched {
		if e.overlayPerformance(ctx, s, &b) {
			prov[models.GroupPerformance] = models.SourceReal
		}
		if e.opts.Mode == ModeFull && e.overlayContact(ctx, s, &b) {
			prov[models.GroupContact] = models.SourceReal
		}
	}

	s.Performance = b.Performance
	s.Admissions = b.Admissions
	s.Demographics = b.Demographics
	s.Ofsted = b.Ofsted
	s.Contact = b.Contact
	s.Finances = b.Finances
	return prov, fetched
}

// fetchOfsted returns the published inspection outcome with its rating in
// canonical spelling, or nil when none is usable. Private schools are not
// inspected by Ofsted and are never fetched.
func (e *Enricher) fetchOfsted(ctx context.Context, s *models.School) *models.OfstedFacts {
	if s.IsPrivate() {
		return nil
	}
	facts, err := e.source.FetchOfsted(ctx, s.URN)
	if err != nil {
		e.fallback(s, models.GroupOfsted, err)
		return nil
	}
	rating, ok := normalizeRating(facts.Rating)
	if !ok {
		e.fallback(s, models.GroupOfsted, fmt.Errorf("unusable rating %q", facts.Rating))
		return nil
	}
	return &models.OfstedFacts{
		Rating:         rating,
		InspectionDate: facts.InspectionDate,
		ReportURL:      facts.ReportURL,
	}
}

func (e *Enricher) overlayPerformance(ctx context.Context, s *models.School, b *generators.Bundle) bool {
	perf, err := e.source.FetchPerformance(ctx, s.URN)
	if err != nil {
		e.fallback(s, models.GroupPerformance, err)
		return false
	}
	perf.Gate(s.Gates())
	if perf.KS2 == nil && perf.KS4 == nil && perf.KS5 == nil {
		e.fallback(s, models.GroupPerformance, fmt.Errorf("no blocks for phase %s", s.Phase))
		return false
	}
	b.Performance = perf
	return true
}

func (e *Enricher) overlayContact(ctx context.Context, s *models.School, b *generators.Bundle) bool {
	facts, err := e.source.FetchContact(ctx, s)
	if err != nil {
		e.fallback(s, models.GroupContact, err)
		return false
	}
	if facts.Phone != "" {
		b.Contact.Phone = facts.Phone
	}
	if facts.Email != "" {
		b.Contact.Email = facts.Email
	}
	if facts.Headteacher != "" {
		b.Contact.Headteacher = facts.Headteacher
	}
	return true
}

func (e *Enricher) fallback(s *models.School, group string, err error) {
	e.log.Debug("Real data unavailable, keeping synthetic values", map[string]interface{}{
		"urn":    s.URN,
		"group":  group,
		"reason": err.Error(),
	})
}

// normalizeRating maps a published rating onto the canonical spelling.
// N/A is not a usable inspection outcome.
func normalizeRating(v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, r := range models.Ratings {
		if r != models.RatingNotApplicable && strings.EqualFold(r, v) {
			return r, true
		}
	}
	return "", false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
