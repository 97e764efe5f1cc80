package generators

import (
	"math"
	"time"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

const (
	dateLayout    = "2006-01-02"
	reportURLBase = "https://reports.ofsted.gov.uk/provider/21/"
)

// ordinals run Outstanding=1 to Inadequate=4; index 0 is unused.
var ordinals = []string{"", models.RatingOutstanding, models.RatingGood, models.RatingRequiresImprovement, models.RatingInadequate}

var (
	historyShifts    = []int{0, 1, -1, 2}
	historyWeights   = []int{60, 20, 15, 5}
	judgementShifts  = []int{0, -1, 1}
	judgementWeights = []int{70, 15, 15}
)

var parentViewQuestions = []string{
	"My child is happy at this school",
	"My child feels safe at this school",
	"The school makes sure its pupils are well behaved",
	"My child is taught well",
	"The school lets me know how my child is doing",
	"The school is well led and managed",
	"The school responds well to any concerns I raise",
	"I would recommend this school to another parent",
}

func ordinalOf(rating string) int {
	for i, r := range ordinals {
		if i > 0 && r == rating {
			return i
		}
	}
	return 0
}

func shifted(ord int, shifts, weights []int, r *prng.Rand) string {
	return ordinals[clampInt(ord+shifts[r.Weighted(weights)], 1, 4)]
}

// Ofsted builds the inspection history. Private schools and state schools
// not yet inspected are not applicable and consume no draws.
func Ofsted(s *models.School, t *covariates.Tables, env Env, r *prng.Rand) *models.OfstedHistory {
	current := ordinalOf(s.OfstedRating)
	if s.IsPrivate() || current == 0 {
		return &models.OfstedHistory{CurrentRating: models.RatingNotApplicable}
	}

	previous := shifted(current, historyShifts, historyWeights, r)

	year := env.ReferenceYear - r.Int(0, 3)
	month := time.Month(r.Int(1, 12))
	day := r.Int(1, 28)
	inspected := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	years := r.Int(2, 4)
	days := r.Int(0, 300)
	before := inspected.AddDate(-years, 0, -days)

	h := &models.OfstedHistory{
		CurrentRating:          s.OfstedRating,
		Applicable:             true,
		InspectionDate:         inspected.Format(dateLayout),
		PreviousRating:         &previous,
		PreviousInspectionDate: before.Format(dateLayout),
		ReportURL:              reportURLBase + s.URN,
	}

	h.Judgements = &models.Judgements{
		QualityOfEducation:  shifted(current, judgementShifts, judgementWeights, r),
		Behaviour:           shifted(current, judgementShifts, judgementWeights, r),
		PersonalDevelopment: shifted(current, judgementShifts, judgementWeights, r),
		Leadership:          shifted(current, judgementShifts, judgementWeights, r),
	}

	h.ParentView = parentView(s, t.Multiplier(s.OfstedRating), r)
	return h
}

func parentView(s *models.School, mult float64, r *prng.Rand) *models.ParentView {
	n := r.Int(5, len(parentViewQuestions))
	pv := &models.ParentView{Questions: make([]models.ParentViewQuestion, 0, n)}
	for _, q := range parentViewQuestions[:n] {
		agree := int(math.Round(float64(r.Int(70, 92)) * mult))
		pv.Questions = append(pv.Questions, models.ParentViewQuestion{
			Question: q,
			Agree:    clampInt(agree, 40, 99),
		})
	}
	pv.Responses = r.Int(20, max(21, s.Pupils/4))
	return pv
}
