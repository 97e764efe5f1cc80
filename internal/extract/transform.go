package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/logger"
	"github.com/stwalsh4118/schoolter/internal/models"
)

// Establishment CSV columns.
const (
	ColURN        = "URN"
	ColName       = "EstablishmentName"
	ColLA         = "LA (name)"
	ColDistrict   = "DistrictAdministrative (name)"
	ColPhase      = "PhaseOfEducation (name)"
	ColType       = "TypeOfEstablishment (name)"
	ColTypeGroup  = "EstablishmentTypeGroup (name)"
	ColStatus     = "EstablishmentStatus (name)"
	ColPupils     = "NumberOfPupils"
	ColSixthForm  = "OfficialSixthForm (name)"
	ColGender     = "Gender (name)"
	ColReligion   = "ReligiousCharacter (name)"
	ColLowAge     = "StatutoryLowAge"
	ColHighAge    = "StatutoryHighAge"
	ColPostcode   = "Postcode"
	ColStreet     = "Street"
	ColLocality   = "Locality"
	ColTown       = "Town"
	ColWebsite    = "SchoolWebsite"
	ColAdmissions = "AdmissionsPolicy (name)"
	ColOfsted     = "OfstedRating (name)"
	ColLatitude   = "Latitude"
	ColLongitude  = "Longitude"
)

const (
	independentGroup   = "Independent schools"
	selectiveAdmission = "Selective"
	sixthFormPresent   = "Has a sixth form"
)

// fundingTypes maps establishment type groups to funding labels.
var fundingTypes = map[string]string{
	"Academies":                          "Academy",
	"Free Schools":                       "Free School",
	"Local authority maintained schools": "Maintained",
	"Special schools":                    "Special",
	"Colleges":                           "College",
	"Independent schools":                models.FundingIndependent,
}

var noReligion = map[string]bool{
	"":               true,
	"None":           true,
	"Does not apply": true,
	"Not applicable": true,
}

// Stats counts what Transform did with each row.
type Stats struct {
	Rows      int `json:"rows"`
	Kept      int `json:"kept"`
	Closed    int `json:"closed"`
	OutOfArea int `json:"outOfArea"`
	Invalid   int `json:"invalid"`
}

// Transformer maps CSV rows onto canonical schools.
type Transformer struct {
	tables   *covariates.Tables
	targets  map[string]bool
	validate *validator.Validate
	log      *logger.Logger
}

// NewTransformer keeps rows whose authority or district is in areas. An
// empty areas list targets every area in the covariate tables.
func NewTransformer(tables *covariates.Tables, areas []string, log *logger.Logger) *Transformer {
	if len(areas) == 0 {
		areas = tables.Areas()
	}
	targets := make(map[string]bool, len(areas))
	for _, a := range areas {
		targets[strings.ToLower(strings.TrimSpace(a))] = true
	}
	return &Transformer{
		tables:   tables,
		targets:  targets,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Transform maps rows to schools in input order, dropping closed,
// out-of-area and invalid establishments.
func (t *Transformer) Transform(rows []map[string]string) ([]*models.School, Stats) {
	stats := Stats{Rows: len(rows)}
	schools := make([]*models.School, 0, len(rows))

	for _, row := range rows {
		if !isOpen(row[ColStatus]) {
			stats.Closed++
			continue
		}
		borough := t.borough(row)
		if !t.targets[strings.ToLower(borough)] && !t.targets[strings.ToLower(row[ColLA])] {
			stats.OutOfArea++
			continue
		}

		s := t.school(row, borough)
		if err := t.validate.Struct(s); err != nil {
			stats.Invalid++
			t.log.Debug("Dropping invalid establishment", map[string]interface{}{
				"urn":    row[ColURN],
				"name":   row[ColName],
				"reason": describe(err),
			})
			continue
		}
		schools = append(schools, s)
	}

	stats.Kept = len(schools)
	return schools, stats
}

func (t *Transformer) borough(row map[string]string) string {
	la := row[ColLA]
	if district := row[ColDistrict]; district != "" && t.tables.Region(la) == covariates.RegionKent && t.tables.Known(district) {
		return district
	}
	return la
}

func (t *Transformer) school(row map[string]string, borough string) *models.School {
	private := row[ColTypeGroup] == independentGroup

	s := &models.School{
		URN:                row[ColURN],
		Name:               row[ColName],
		Borough:            borough,
		Region:             t.tables.Region(borough),
		Phase:              phase(row),
		Gender:             gender(row[ColGender]),
		ReligiousCharacter: religion(row[ColReligion]),
		Sector:             models.SectorState,
		FundingType:        funding(row),
		Pupils:             atoi(row[ColPupils]),
		HasSixthForm:       row[ColSixthForm] == sixthFormPresent,
		AgeRange:           ageRange(row[ColLowAge], row[ColHighAge]),
		Postcode:           row[ColPostcode],
		Address:            joinNonEmpty(", ", row[ColStreet], row[ColLocality], row[ColTown]),
		Lat:                parseCoord(row[ColLatitude]),
		Lng:                parseCoord(row[ColLongitude]),
		OfstedRating:       rating(row[ColOfsted]),
		Website:            website(row[ColWebsite]),
	}
	if private {
		s.Sector = models.SectorPrivate
		s.OfstedRating = models.RatingNotApplicable
	}
	return s
}

func isOpen(status string) bool {
	return strings.HasPrefix(status, "Open")
}

// phase maps the source phase, falling back to the establishment type and
// statutory ages when the phase is "Not applicable".
func phase(row map[string]string) string {
	if strings.Contains(strings.ToLower(row[ColType]), "special") {
		return models.PhaseSpecial
	}
	switch strings.ToLower(row[ColPhase]) {
	case "nursery":
		return models.PhaseNursery
	case "primary", "middle deemed primary":
		return models.PhasePrimary
	case "secondary", "middle deemed secondary":
		return models.PhaseSecondary
	case "all-through", "all through":
		return models.PhaseAllThrough
	case "16 plus", "16-plus":
		return models.PhaseSixteenPlus
	}

	low, high := atoi(row[ColLowAge]), atoi(row[ColHighAge])
	switch {
	case low == 0 && high == 0:
		return ""
	case low >= 16:
		return models.PhaseSixteenPlus
	case high <= 5:
		return models.PhaseNursery
	case high <= 11:
		return models.PhasePrimary
	case low <= 7 && high >= 16:
		return models.PhaseAllThrough
	default:
		return models.PhaseSecondary
	}
}

func gender(v string) string {
	switch v {
	case "Boys", "Girls":
		return v
	default:
		return models.GenderMixed
	}
}

func religion(v string) string {
	if noReligion[v] {
		return models.ReligiousCharacterNone
	}
	return v
}

func funding(row map[string]string) string {
	if row[ColTypeGroup] != independentGroup && row[ColAdmissions] == selectiveAdmission {
		return models.FundingGrammar
	}
	if f, ok := fundingTypes[row[ColTypeGroup]]; ok {
		return f
	}
	return row[ColTypeGroup]
}

func rating(v string) string {
	switch strings.ToLower(v) {
	case "outstanding":
		return models.RatingOutstanding
	case "good":
		return models.RatingGood
	case "requires improvement":
		return models.RatingRequiresImprovement
	case "inadequate", "serious weaknesses", "special measures":
		return models.RatingInadequate
	default:
		return models.RatingNotApplicable
	}
}

func website(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		return "https://" + v
	}
	return v
}

func ageRange(low, high string) string {
	if low == "" || high == "" {
		return ""
	}
	return low + "-" + high
}

func atoi(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func parseCoord(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
