package generators

import (
	"fmt"
	"math"
	"sort"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

const (
	minCapacity          = 10
	oversubscribedFactor = 1.05
	kentRadiusFactor     = 1.8
	catchmentHistory     = 3
)

// yearGroups is the number of year groups a phase's roll is spread over.
var yearGroups = map[string]int{
	models.PhaseNursery:     1,
	models.PhasePrimary:     7,
	models.PhaseSecondary:   5,
	models.PhaseAllThrough:  14,
	models.PhaseSpecial:     12,
	models.PhaseSixteenPlus: 2,
}

var baseCriteria = []models.Criterion{
	{Name: "Looked-after children", Description: "Children in care or previously in care."},
	{Name: "Exceptional need", Description: "Documented medical or social need for this school."},
	{Name: "Siblings", Description: "A sibling attends the school at the time of admission."},
	{Name: "Children of staff", Description: "A parent has been employed at the school for two years or more."},
	{Name: "Distance", Description: "Straight-line distance from home to the school gate."},
}

var (
	aptitudeCriterion = models.Criterion{Name: "Academic aptitude", Description: "Ranked by score in the selection test."}
	faithCriterion    = models.Criterion{Name: "Faith", Description: "Regular practice of the school's faith, evidenced by a supplementary form."}
)

var openDayMonths = []int{9, 10, 11}

// Capacity returns the annual intake implied by the roll.
func Capacity(phase string, pupils int, hasSixthForm bool) int {
	div, ok := yearGroups[phase]
	if !ok {
		div = yearGroups[models.PhasePrimary]
	}
	if phase == models.PhaseSecondary && hasSixthForm {
		div = 7
	}
	return max(pupils/div, minCapacity)
}

func primaryLike(phase string) bool {
	switch phase {
	case models.PhaseNursery, models.PhasePrimary, models.PhaseSpecial:
		return true
	}
	return false
}

// Admissions models one intake year. Draw order: demand, first and second
// preference shares, official radius, effective-radius jitter (only when
// oversubscribed), catchment history, appeals, open days. A nursery draws a
// last-distance value instead of a catchment.
func Admissions(s *models.School, t *covariates.Tables, env Env, r *prng.Rand) *models.Admissions {
	area := t.Area(s.Borough)
	mult := t.Multiplier(s.OfstedRating)
	demand := mult * (1 + float64(area.Tier-1)*0.12)

	capacity := Capacity(s.Phase, s.Pupils, s.HasSixthForm)
	lo, hi := 1.0, 3.2
	if primaryLike(s.Phase) {
		lo, hi = 0.8, 2.2
	}
	total := int(math.Round(float64(capacity) * r.Float(lo, hi, 2) * demand))

	first := int(math.Round(float64(total) * r.Float(0.35, 0.55, 2)))
	second := int(math.Round(float64(total) * r.Float(0.20, 0.35, 2)))
	first = min(first, total)
	second = min(second, total-first)

	a := &models.Admissions{
		Capacity: capacity,
		Applications: models.Applications{
			Total:  total,
			First:  first,
			Second: second,
			Third:  total - first - second,
		},
		Oversubscribed:       float64(total) > float64(capacity)*oversubscribedFactor,
		PlacesOffered:        min(total, capacity),
		ApplicationsPerPlace: prng.Round(float64(total)/float64(capacity), 2),
		Criteria:             []models.Criterion{},
	}

	if s.Phase == models.PhaseNursery {
		if a.Oversubscribed {
			d := r.Float(0.2, 0.8, 2)
			a.LastDistanceOffered = &d
		}
	} else {
		a.Catchment = catchment(area, capacity, total, a.Oversubscribed, s.Phase, env, r)
		if a.Oversubscribed {
			d := a.Catchment.EffectiveRadius
			a.LastDistanceOffered = &d
		}
		a.Criteria = criteria(s)
	}

	lodged := r.Int(0, max(1, capacity/8))
	heard := r.Int(0, lodged)
	a.Appeals = models.Appeals{Lodged: lodged, Heard: heard, Upheld: r.Int(0, heard)}
	a.OpenDays = openDays(env, r)
	return a
}

func catchment(area covariates.Area, capacity, total int, oversubscribed bool, phase string, env Env, r *prng.Rand) *models.Catchment {
	var official float64
	if primaryLike(phase) {
		official = r.Float(0.4, 1.2, 2)
	} else {
		official = r.Float(1.0, 3.5, 2)
	}
	if area.Region == covariates.RegionKent {
		official = prng.Round(official*kentRadiusFactor, 2)
	}

	effective := official
	if oversubscribed {
		share := math.Max(0.25, float64(capacity)*oversubscribedFactor/float64(total))
		effective = min(prng.Round(official*share*r.Float(0.85, 1.0, 2), 2), official)
	}

	c := &models.Catchment{OfficialRadius: official, EffectiveRadius: effective}
	for i := catchmentHistory; i >= 1; i-- {
		c.History = append(c.History, models.CatchmentYear{
			Year:   env.ReferenceYear - i,
			Radius: prng.Round(effective*r.Float(0.85, 1.15, 2), 2),
		})
	}
	return c
}

// criteria returns the oversubscription rules in priority order. Aptitude is
// inserted at position 1 before faith is inserted at the same position, so a
// faith grammar school ranks faith above aptitude.
func criteria(s *models.School) []models.Criterion {
	list := append([]models.Criterion(nil), baseCriteria...)
	if s.IsGrammar() {
		list = insertAt(list, 1, aptitudeCriterion)
	}
	if s.HasReligiousCharacter() {
		list = insertAt(list, 1, faithCriterion)
	}
	for i := range list {
		list[i].Priority = i + 1
	}
	return list
}

func insertAt(list []models.Criterion, i int, c models.Criterion) []models.Criterion {
	list = append(list, models.Criterion{})
	copy(list[i+1:], list[i:])
	list[i] = c
	return list
}

func openDays(env Env, r *prng.Rand) []string {
	n := r.Int(2, 3)
	days := make([]string, 0, n)
	for range n {
		month := openDayMonths[r.PickIndex(len(openDayMonths))]
		day := r.Int(1, 28)
		days = append(days, fmt.Sprintf("%04d-%02d-%02d", env.ReferenceYear, month, day))
	}
	sort.Strings(days)
	return days
}
