package models

import (
	"fmt"
	"strings"
)

// Source says where a field group's values came from.
type Source string

const (
	SourceReal      Source = "real"
	SourceSynthetic Source = "synthetic"
)

// Field groups in the order they are generated and reported.
const (
	GroupPerformance  = "performance"
	GroupAdmissions   = "admissions"
	GroupDemographics = "demographics"
	GroupOfsted       = "ofsted"
	GroupContact      = "contact"
	GroupFinances     = "finances"
)

// FieldGroups lists every field group in generation order.
var FieldGroups = []string{GroupPerformance, GroupAdmissions, GroupDemographics, GroupOfsted, GroupContact, GroupFinances}

// Provenance records the source of each field group for one school. It is
// reported in aggregate and never written into the record itself.
type Provenance map[string]Source

// SourceCount tallies field groups by source.
type SourceCount struct {
	Real      int `json:"real"`
	Synthetic int `json:"synthetic"`
}

// SourceMix aggregates provenance over a run, keyed by field group.
type SourceMix map[string]SourceCount

// NewSourceMix returns a mix with a zero entry for every field group.
func NewSourceMix() SourceMix {
	m := make(SourceMix, len(FieldGroups))
	for _, g := range FieldGroups {
		m[g] = SourceCount{}
	}
	return m
}

// Add folds one school's provenance into the mix.
func (m SourceMix) Add(p Provenance) {
	for group, src := range p {
		c := m[group]
		switch src {
		case SourceReal:
			c.Real++
		case SourceSynthetic:
			c.Synthetic++
		}
		m[group] = c
	}
}

// Summary renders the mix on one line in field-group order.
func (m SourceMix) Summary() string {
	parts := make([]string, 0, len(FieldGroups))
	for _, g := range FieldGroups {
		c := m[g]
		parts = append(parts, fmt.Sprintf("%s real=%d synthetic=%d", g, c.Real, c.Synthetic))
	}
	return strings.Join(parts, "; ")
}
