package models

// Phase values.
const (
	PhaseNursery     = "Nursery"
	PhasePrimary     = "Primary"
	PhaseSecondary   = "Secondary"
	PhaseAllThrough  = "All-Through"
	PhaseSpecial     = "Special"
	PhaseSixteenPlus = "16-Plus"
)

// Sector values.
const (
	SectorState   = "State"
	SectorPrivate = "Private"
)

// Ofsted ratings.
const (
	RatingOutstanding         = "Outstanding"
	RatingGood                = "Good"
	RatingRequiresImprovement = "Requires Improvement"
	RatingInadequate          = "Inadequate"
	RatingNotApplicable       = "N/A"
)

const (
	FundingGrammar         = "Grammar"
	FundingIndependent     = "Independent"
	ReligiousCharacterNone = "None"
	GenderMixed            = "Mixed"
)

// Phases lists the phase enumeration in display order.
var Phases = []string{PhaseNursery, PhasePrimary, PhaseSecondary, PhaseAllThrough, PhaseSpecial, PhaseSixteenPlus}

// Ratings lists the Ofsted ratings from best to worst, followed by N/A.
var Ratings = []string{RatingOutstanding, RatingGood, RatingRequiresImprovement, RatingInadequate, RatingNotApplicable}

// School is the canonical record for one establishment.
// Sub-records are nil until enrichment attaches them and marshal as null.
type School struct {
	ID                 int      `json:"id"`
	URN                string   `json:"urn" validate:"required,numeric"`
	Name               string   `json:"name" validate:"required"`
	Borough            string   `json:"borough" validate:"required"`
	Region             string   `json:"region"`
	Phase              string   `json:"phase" validate:"required,oneof=Nursery Primary Secondary All-Through Special 16-Plus"`
	Gender             string   `json:"gender" validate:"omitempty,oneof=Mixed Boys Girls"`
	ReligiousCharacter string   `json:"religiousCharacter"`
	Sector             string   `json:"sector" validate:"required,oneof=State Private"`
	FundingType        string   `json:"fundingType"`
	Pupils             int      `json:"pupils" validate:"gt=0"`
	HasSixthForm       bool     `json:"hasSixthForm"`
	AgeRange           string   `json:"ageRange"`
	Postcode           string   `json:"postcode"`
	Address            string   `json:"address"`
	Lat                *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng                *float64 `json:"lng" validate:"omitempty,longitude"`
	OfstedRating       string   `json:"ofstedRating" validate:"required,oneof=Outstanding Good 'Requires Improvement' Inadequate N/A"`
	Website            string   `json:"website,omitempty"`

	Performance  *Performance   `json:"performance"`
	Admissions   *Admissions    `json:"admissions"`
	Demographics *Demographics  `json:"demographics"`
	Ofsted       *OfstedHistory `json:"ofsted"`
	Contact      *Contact       `json:"contact"`
	Finances     *Finances      `json:"finances"`
}

// IsPrivate reports whether the school is in the private sector.
func (s *School) IsPrivate() bool {
	return s.Sector == SectorPrivate
}

// IsGrammar reports whether the school selects by academic aptitude.
func (s *School) IsGrammar() bool {
	return s.FundingType == FundingGrammar
}

// HasReligiousCharacter reports whether a faith designation applies.
func (s *School) HasReligiousCharacter() bool {
	return s.ReligiousCharacter != "" && s.ReligiousCharacter != ReligiousCharacterNone
}

// StripEnrichment clears every sub-record, leaving the base record.
func (s *School) StripEnrichment() {
	s.Performance = nil
	s.Admissions = nil
	s.Demographics = nil
	s.Ofsted = nil
	s.Contact = nil
	s.Finances = nil
}

// Gates says which performance blocks a school may carry.
type Gates struct {
	KS2 bool
	KS4 bool
	KS5 bool
}

// PhaseGates is the single statement of the key-stage gating rule.
func PhaseGates(phase string, hasSixthForm bool) Gates {
	var g Gates
	switch phase {
	case PhasePrimary, PhaseSpecial:
		g.KS2 = true
	case PhaseAllThrough:
		g.KS2 = true
		g.KS4 = true
	case PhaseSecondary, PhaseSixteenPlus:
		g.KS4 = true
	}
	g.KS5 = hasSixthForm && g.KS4
	return g
}

// Gates returns the key-stage gates for the school.
func (s *School) Gates() Gates {
	return PhaseGates(s.Phase, s.HasSixthForm)
}
