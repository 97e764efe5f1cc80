package generators

import (
	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

// Performance builds the key-stage blocks the school's phase qualifies for.
// Blocks are generated KS2, KS4, KS5; a block that is gated off consumes no
// draws.
func Performance(s *models.School, t *covariates.Tables, _ Env, r *prng.Rand) *models.Performance {
	gates := s.Gates()
	bonus := covariates.TierBonus(t.Tier(s.Borough))
	mult := t.Multiplier(s.OfstedRating)

	p := &models.Performance{}
	if gates.KS2 {
		p.KS2 = ks2(s, bonus, mult, r)
	}
	if gates.KS4 {
		p.KS4 = ks4(s, bonus, mult, r)
	}
	if gates.KS5 {
		p.KS5 = ks5(s, bonus, mult, r)
	}
	return p
}

func ks2(s *models.School, bonus int, mult float64, r *prng.Rand) *models.KS2 {
	expected := r.Int(50, 75)
	higher := r.Int(5, 20)
	reading := r.Float(101, 106, 1)
	maths := r.Float(101, 106, 1)
	gps := r.Float(101, 107, 1)
	readingProgress := r.Float(-1.5, 1.5, 1)
	writingProgress := r.Float(-1.5, 1.5, 1)
	mathsProgress := r.Float(-1.5, 1.5, 1)

	boost := 0
	if s.IsPrivate() {
		boost = r.Int(5, 12)
	}

	k := &models.KS2{
		ExpectedStandard: pct(adjust(float64(expected), bonus, mult) + float64(boost)),
		ReadingScore:     scaledScore(reading, bonus, mult),
		MathsScore:       scaledScore(maths, bonus, mult),
		GPSScore:         scaledScore(gps, bonus, mult),
		ReadingProgress:  progressScore(readingProgress, bonus, mult),
		WritingProgress:  progressScore(writingProgress, bonus, mult),
		MathsProgress:    progressScore(mathsProgress, bonus, mult),
	}
	k.HigherStandard = min(pct(adjust(float64(higher), bonus, mult)+float64(boost)), k.ExpectedStandard)
	return k
}

// scaledScore adjusts the part of a KS2 scaled score above the 100 baseline.
func scaledScore(base float64, bonus int, mult float64) float64 {
	v := 100 + (base-100+float64(bonus)*0.5)*mult
	return prng.Round(clampFloat(v, 80, 120), 1)
}

func progressScore(base float64, bonus int, mult float64) float64 {
	v := base + (mult-1)*4 + float64(bonus)*0.1
	return prng.Round(clampFloat(v, -5, 5), 1)
}

func ks4(s *models.School, bonus int, mult float64, r *prng.Rand) *models.KS4 {
	a8 := r.Float(40, 52, 1)
	p8 := r.Float(-0.5, 0.5, 2)
	grade5 := r.Int(35, 55)
	grade4 := r.Int(55, 75)
	ebaccEntry := r.Int(20, 50)
	ebaccAPS := r.Float(3.5, 4.5, 2)
	staying := r.Int(88, 96)

	subjects := models.KS4Subjects{
		English:   r.Float(4.5, 5.5, 1),
		Maths:     r.Float(4.2, 5.4, 1),
		Science:   r.Float(4.3, 5.3, 1),
		History:   r.Float(4.4, 5.6, 1),
		Geography: r.Float(4.4, 5.5, 1),
		Languages: r.Float(4.6, 5.8, 1),
		Art:       r.Float(5.0, 6.0, 1),
		Computing: r.Float(4.5, 5.7, 1),
	}

	boost := 0
	if s.IsPrivate() {
		boost = r.Int(6, 14)
	}
	b := float64(boost)

	k := &models.KS4{
		Attainment8:        prng.Round(clampFloat(adjust(a8, bonus, mult)+b, 0, 90), 1),
		Progress8:          prng.Round(clampFloat(p8+(mult-1)*2+float64(bonus)*0.05, -3, 3), 2),
		Grade5EngMaths:     pct(adjust(float64(grade5), bonus, mult) + b),
		EBaccEntry:         pct(adjust(float64(ebaccEntry), bonus, mult) + b),
		EBaccAPS:           prng.Round(clampFloat((ebaccAPS+float64(bonus)*0.1)*mult+b*0.05, 0, 9), 2),
		StayingInEducation: pct((float64(staying) + float64(bonus)*0.3) * mult),
	}
	k.Grade4EngMaths = max(pct(adjust(float64(grade4), bonus, mult)+b), k.Grade5EngMaths)

	grade := func(base float64) float64 {
		return prng.Round(clampFloat((base+float64(bonus)*0.1)*mult+b*0.05, 1, 9), 1)
	}
	k.Subjects = models.KS4Subjects{
		English:   grade(subjects.English),
		Maths:     grade(subjects.Maths),
		Science:   grade(subjects.Science),
		History:   grade(subjects.History),
		Geography: grade(subjects.Geography),
		Languages: grade(subjects.Languages),
		Art:       grade(subjects.Art),
		Computing: grade(subjects.Computing),
	}
	return k
}

func ks5(s *models.School, bonus int, mult float64, r *prng.Rand) *models.KS5 {
	aps := r.Float(28, 38, 1)
	aab := r.Int(10, 30)

	subjects := models.KS5Subjects{
		Maths:             r.Float(30, 40, 1),
		Biology:           r.Float(28, 38, 1),
		Chemistry:         r.Float(28, 38, 1),
		Physics:           r.Float(28, 38, 1),
		EnglishLiterature: r.Float(30, 39, 1),
		History:           r.Float(30, 39, 1),
		Psychology:        r.Float(27, 36, 1),
		Economics:         r.Float(29, 39, 1),
	}

	university := r.Int(55, 75)
	russellGroup := r.Int(15, 30)
	var oxbridge int
	if s.IsGrammar() || s.IsPrivate() {
		oxbridge = r.Int(2, 8)
	} else {
		oxbridge = r.Int(0, 2)
	}
	apprenticeship := r.Int(3, 10)
	employment := r.Int(5, 15)

	boost := 0
	if s.IsPrivate() {
		boost = r.Int(4, 10)
	}
	b := float64(boost)

	points := prng.Round(clampFloat(adjust(aps, bonus, mult)+b, 0, 60), 1)
	k := &models.KS5{
		AveragePoints: points,
		AverageGrade:  gradeForPoints(points),
		AABPercent:    pct(adjust(float64(aab), bonus, mult) + b),
	}

	subject := func(base float64) float64 {
		return prng.Round(clampFloat((base+float64(bonus)*0.5)*mult+b*0.5, 0, 60), 1)
	}
	k.Subjects = models.KS5Subjects{
		Maths:             subject(subjects.Maths),
		Biology:           subject(subjects.Biology),
		Chemistry:         subject(subjects.Chemistry),
		Physics:           subject(subjects.Physics),
		EnglishLiterature: subject(subjects.EnglishLiterature),
		History:           subject(subjects.History),
		Psychology:        subject(subjects.Psychology),
		Economics:         subject(subjects.Economics),
	}

	d := models.Destinations{
		University:     pct(adjust(float64(university), bonus, mult)),
		Apprenticeship: pct(float64(apprenticeship)),
		Employment:     pct(float64(employment)),
	}
	d.RussellGroup = min(pct(adjust(float64(russellGroup), bonus, mult)+b), d.University)
	d.Oxbridge = min(pct(float64(oxbridge)*mult), d.RussellGroup)
	if d.University+d.Apprenticeship > 100 {
		d.Apprenticeship = 100 - d.University
	}
	if d.University+d.Apprenticeship+d.Employment > 100 {
		d.Employment = 100 - d.University - d.Apprenticeship
	}
	k.Destinations = d
	return k
}

// gradeForPoints maps an average point score to the nearest A-level grade.
func gradeForPoints(points float64) string {
	switch {
	case points >= 55:
		return "A*"
	case points >= 45:
		return "A"
	case points >= 35:
		return "B"
	case points >= 25:
		return "C"
	case points >= 15:
		return "D"
	default:
		return "E"
	}
}
