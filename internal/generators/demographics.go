package generators

import (
	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

type span struct{ lo, hi int }

func (sp span) draw(r *prng.Rand) int { return r.Int(sp.lo, sp.hi) }

// ethnicityProfile is the per-category draw table. The four named bucket
// maxima sum to at most 100-floor, so the residual never goes negative
// before the floor is applied.
type ethnicityProfile struct {
	white, asian, black, mixed, other span
	floor                             int
}

var ethnicityProfiles = map[covariates.AreaCategory]ethnicityProfile{
	covariates.InnerLondon: {white: span{20, 38}, asian: span{15, 28}, black: span{12, 22}, mixed: span{5, 10}, other: span{1, 5}, floor: 2},
	covariates.OuterLondon: {white: span{45, 62}, asian: span{8, 18}, black: span{5, 12}, mixed: span{4, 7}, other: span{1, 5}, floor: 1},
	covariates.KentUrban:   {white: span{70, 82}, asian: span{3, 8}, black: span{2, 5}, mixed: span{2, 4}, other: span{1, 5}, floor: 1},
	covariates.KentRural:   {white: span{82, 92}, asian: span{1, 4}, black: span{0, 2}, mixed: span{1, 2}, other: span{1, 5}, floor: 0},
	covariates.Generic:     {white: span{55, 70}, asian: span{6, 14}, black: span{3, 9}, mixed: span{3, 6}, other: span{1, 5}, floor: 1},
}

var ealRanges = map[covariates.AreaCategory]span{
	covariates.InnerLondon: {30, 60},
	covariates.OuterLondon: {15, 35},
	covariates.KentUrban:   {8, 20},
	covariates.KentRural:   {2, 10},
	covariates.Generic:     {10, 30},
}

var fsmByTier = map[int]span{
	1: {30, 50},
	2: {18, 35},
	3: {8, 20},
	4: {4, 14},
}

// Demographics draws FSM (state only), EAL, SEN (not for special schools)
// and then the five ethnicity buckets in order.
func Demographics(s *models.School, t *covariates.Tables, _ Env, r *prng.Rand) *models.Demographics {
	area := t.Area(s.Borough)
	d := &models.Demographics{}

	if !s.IsPrivate() {
		fsm, ok := fsmByTier[area.Tier]
		if !ok {
			fsm = fsmByTier[covariates.DefaultTier]
		}
		d.FSM = fsm.draw(r)
	}

	eal, ok := ealRanges[area.Category]
	if !ok {
		eal = ealRanges[covariates.Generic]
	}
	d.EAL = eal.draw(r)
	d.EnglishFirstLanguage = 100 - d.EAL

	switch {
	case s.Phase == models.PhaseSpecial:
		d.SEN = 100
	case s.IsPrivate():
		d.SEN = r.Int(5, 14)
	default:
		d.SEN = r.Int(8, 18)
	}

	d.Ethnicity = ethnicity(area.Category, r)
	return d
}

func ethnicity(cat covariates.AreaCategory, r *prng.Rand) models.Ethnicity {
	p, ok := ethnicityProfiles[cat]
	if !ok {
		p = ethnicityProfiles[covariates.Generic]
	}
	e := models.Ethnicity{
		White: p.white.draw(r),
		Asian: p.asian.draw(r),
		Black: p.black.draw(r),
		Mixed: p.mixed.draw(r),
		Other: p.other.draw(r),
	}
	e.Other += 100 - e.Sum()
	if e.Other < p.floor {
		e.White -= p.floor - e.Other
		e.Other = p.floor
	}
	return e
}
