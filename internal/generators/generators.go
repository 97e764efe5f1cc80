// Package generators derives synthetic sub-records for a school.
//
// Every generator is a pure function of the school, the covariate tables,
// the environment and the state of the random stream it is handed. The
// stream is shared: each generator consumes draws in a documented order,
// so changing the order of calls, or of draws inside a generator, changes
// every value that follows. Tests pin that order.
package generators

import (
	"math"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

// DefaultReferenceYear anchors synthetic dates when none is configured.
const DefaultReferenceYear = 2025

// Env carries run-level inputs that are not part of the school record.
// Dates are derived from ReferenceYear, never from the wall clock.
type Env struct {
	ReferenceYear int
}

// DefaultEnv returns the environment used when nothing is configured.
func DefaultEnv() Env {
	return Env{ReferenceYear: DefaultReferenceYear}
}

// Bundle holds one school's synthetic sub-records.
type Bundle struct {
	Performance  *models.Performance
	Admissions   *models.Admissions
	Demographics *models.Demographics
	Ofsted       *models.OfstedHistory
	Contact      *models.Contact
	Finances     *models.Finances
}

// Synthesize runs every generator against r in the fixed order
// performance, admissions, demographics, ofsted, contact, finance.
func Synthesize(s *models.School, t *covariates.Tables, env Env, r *prng.Rand) Bundle {
	var b Bundle
	b.Performance = Performance(s, t, env, r)
	b.Admissions = Admissions(s, t, env, r)
	b.Demographics = Demographics(s, t, env, r)
	b.Ofsted = Ofsted(s, t, env, r)
	b.Contact = Contact(s, t, env, r)
	b.Finances = Finances(s, t, env, r)
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// pct rounds v and clamps it into [0, 100].
func pct(v float64) int {
	return clampInt(int(math.Round(v)), 0, 100)
}

// adjust applies the tier bonus and rating multiplier to a base draw.
func adjust(base float64, bonus int, mult float64) float64 {
	return (base + float64(bonus)) * mult
}
