package generators

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

const (
	tierFundingStep = 250
	minTeachers     = 3
)

type floatSpan struct{ lo, hi float64 }

type fundingKey struct{ phase, sector string }

// fundingRanges are per-pupil funding base ranges in pounds, before the
// tier adjustment.
var fundingRanges = map[fundingKey]span{
	{models.PhaseNursery, models.SectorState}:       {4000, 5200},
	{models.PhasePrimary, models.SectorState}:       {5200, 6200},
	{models.PhaseSecondary, models.SectorState}:     {6200, 7400},
	{models.PhaseAllThrough, models.SectorState}:    {5800, 7000},
	{models.PhaseSpecial, models.SectorState}:       {18000, 28000},
	{models.PhaseSixteenPlus, models.SectorState}:   {5000, 6500},
	{models.PhaseNursery, models.SectorPrivate}:     {9000, 14000},
	{models.PhasePrimary, models.SectorPrivate}:     {14000, 20000},
	{models.PhaseSecondary, models.SectorPrivate}:   {18000, 26000},
	{models.PhaseAllThrough, models.SectorPrivate}:  {16000, 24000},
	{models.PhaseSpecial, models.SectorPrivate}:     {30000, 50000},
	{models.PhaseSixteenPlus, models.SectorPrivate}: {17000, 25000},
}

var ratioRanges = map[fundingKey]floatSpan{
	{models.PhaseNursery, models.SectorState}:       {8, 13},
	{models.PhasePrimary, models.SectorState}:       {19, 24},
	{models.PhaseSecondary, models.SectorState}:     {14, 18},
	{models.PhaseAllThrough, models.SectorState}:    {16, 20},
	{models.PhaseSpecial, models.SectorState}:       {5, 8},
	{models.PhaseSixteenPlus, models.SectorState}:   {14, 19},
	{models.PhaseNursery, models.SectorPrivate}:     {6, 9},
	{models.PhasePrimary, models.SectorPrivate}:     {9, 13},
	{models.PhaseSecondary, models.SectorPrivate}:   {8, 11},
	{models.PhaseAllThrough, models.SectorPrivate}:  {8, 12},
	{models.PhaseSpecial, models.SectorPrivate}:     {3, 6},
	{models.PhaseSixteenPlus, models.SectorPrivate}: {7, 11},
}

// FundingRange returns the per-pupil base range for a phase and sector,
// falling back to state primary.
func FundingRange(phase, sector string) (lo, hi int) {
	sp, ok := fundingRanges[fundingKey{phase, sector}]
	if !ok {
		sp = fundingRanges[fundingKey{models.PhasePrimary, models.SectorState}]
	}
	return sp.lo, sp.hi
}

// Finances draws per-pupil funding, the pupil:teacher ratio, the spend
// split and the expenditure factor, in that order.
func Finances(s *models.School, t *covariates.Tables, _ Env, r *prng.Rand) *models.Finances {
	key := fundingKey{s.Phase, s.Sector}
	lo, hi := FundingRange(s.Phase, s.Sector)
	base := r.Int(lo, hi) + (t.Tier(s.Borough)-covariates.DefaultTier)*tierFundingStep
	perPupil := int(math.Round(float64(base)/10) * 10)

	rr, ok := ratioRanges[key]
	if !ok {
		rr = ratioRanges[fundingKey{models.PhasePrimary, models.SectorState}]
	}
	ratio := r.Float(rr.lo, rr.hi, 1)
	teachers := max(int(math.Round(float64(s.Pupils)/ratio)), minTeachers)

	staff := r.Int(70, 80)
	premises := r.Int(5, 10)
	resources := r.Int(4, 9)

	income := decimal.NewFromInt(int64(perPupil)).Mul(decimal.NewFromInt(int64(s.Pupils)))
	expenditure := income.Mul(decimal.NewFromFloat(r.Float(0.96, 1.04, 2))).Round(0)

	return &models.Finances{
		PerPupilFunding:   perPupil,
		TotalIncome:       income.IntPart(),
		TotalExpenditure:  expenditure.IntPart(),
		InYearBalance:     income.Sub(expenditure).IntPart(),
		PupilTeacherRatio: prng.Round(float64(s.Pupils)/float64(teachers), 1),
		TeacherCount:      teachers,
		Spend: models.SpendBreakdown{
			StaffPct:     staff,
			PremisesPct:  premises,
			ResourcesPct: resources,
			OtherPct:     100 - staff - premises - resources,
		},
	}
}
