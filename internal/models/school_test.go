package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestPhaseGates(t *testing.T) {
	tests := []struct {
		phase     string
		sixthForm bool
		want      Gates
	}{
		{PhaseNursery, false, Gates{}},
		{PhasePrimary, false, Gates{KS2: true}},
		{PhasePrimary, true, Gates{KS2: true}},
		{PhaseSpecial, false, Gates{KS2: true}},
		{PhaseSecondary, false, Gates{KS4: true}},
		{PhaseSecondary, true, Gates{KS4: true, KS5: true}},
		{PhaseAllThrough, true, Gates{KS2: true, KS4: true, KS5: true}},
		{PhaseSixteenPlus, true, Gates{KS4: true, KS5: true}},
		{"Unknown", true, Gates{}},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			assert.Equal(t, tt.want, PhaseGates(tt.phase, tt.sixthForm))
		})
	}
}

func TestPerformanceGate(t *testing.T) {
	p := &Performance{KS2: &KS2{}, KS4: &KS4{}, KS5: &KS5{}}
	p.Gate(Gates{KS2: true})

	assert.NotNil(t, p.KS2)
	assert.Nil(t, p.KS4)
	assert.Nil(t, p.KS5)
}

func TestSchoolPredicates(t *testing.T) {
	s := &School{Sector: SectorPrivate, FundingType: FundingGrammar, ReligiousCharacter: "Church of England"}
	assert.True(t, s.IsPrivate())
	assert.True(t, s.IsGrammar())
	assert.True(t, s.HasReligiousCharacter())

	s = &School{Sector: SectorState, ReligiousCharacter: ReligiousCharacterNone}
	assert.False(t, s.IsPrivate())
	assert.False(t, s.IsGrammar())
	assert.False(t, s.HasReligiousCharacter())
}

func TestStripEnrichment(t *testing.T) {
	s := &School{URN: "1", Performance: &Performance{}, Finances: &Finances{}, Contact: &Contact{}}
	s.StripEnrichment()

	assert.Equal(t, "1", s.URN)
	assert.Nil(t, s.Performance)
	assert.Nil(t, s.Finances)
	assert.Nil(t, s.Contact)
}

func TestSchoolValidation(t *testing.T) {
	validate := validator.New()

	valid := School{
		URN:          "101600",
		Name:         "Hillside Primary",
		Borough:      "Bromley",
		Phase:        PhasePrimary,
		Gender:       GenderMixed,
		Sector:       SectorState,
		Pupils:       450,
		OfstedRating: RatingRequiresImprovement,
	}
	assert.NoError(t, validate.Struct(valid))

	tests := []struct {
		name   string
		mutate func(s *School)
	}{
		{"non-numeric urn", func(s *School) { s.URN = "ABC" }},
		{"unknown phase", func(s *School) { s.Phase = "Middle" }},
		{"zero pupils", func(s *School) { s.Pupils = 0 }},
		{"unknown sector", func(s *School) { s.Sector = "Charity" }},
		{"unknown rating", func(s *School) { s.OfstedRating = "Serious Weaknesses" }},
		{"missing name", func(s *School) { s.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.Error(t, validate.Struct(s))
		})
	}
}
