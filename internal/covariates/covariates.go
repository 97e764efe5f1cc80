// Package covariates holds the static lookup tables that bias synthetic
// school statistics: area affluence tiers and Ofsted rating multipliers.
//
// Tables is built once by Default and only ever read afterwards. Generators
// receive it as a parameter; nothing in this package is mutable at package
// level.
package covariates

import "sort"

// AreaCategory groups areas with similar demographic profiles.
type AreaCategory string

const (
	InnerLondon AreaCategory = "inner-london"
	OuterLondon AreaCategory = "outer-london"
	KentUrban   AreaCategory = "kent-urban"
	KentRural   AreaCategory = "kent-rural"
	Generic     AreaCategory = "generic"
)

// Macro regions.
const (
	RegionLondon = "London"
	RegionKent   = "Kent"
	RegionOther  = "Other"
)

const (
	DefaultTier       = 2
	DefaultMultiplier = 1.0
)

// Area describes one local authority or district.
type Area struct {
	Tier     int
	Region   string
	Category AreaCategory
}

// Tables is the read-only covariate context passed into every generator.
type Tables struct {
	areas       map[string]Area
	multipliers map[string]float64
}

// Default returns the covariate tables used by the pipeline.
func Default() *Tables {
	areas := make(map[string]Area, 64)
	add := func(region string, cat AreaCategory, tier int, names ...string) {
		for _, n := range names {
			areas[n] = Area{Tier: tier, Region: region, Category: cat}
		}
	}

	add(RegionLondon, InnerLondon, 4, "Kensington and Chelsea", "Westminster", "Camden", "City of London")
	add(RegionLondon, InnerLondon, 3, "Hammersmith and Fulham", "Islington", "Wandsworth")
	add(RegionLondon, InnerLondon, 2, "Hackney", "Haringey", "Lambeth", "Lewisham", "Southwark", "Greenwich", "Brent")
	add(RegionLondon, InnerLondon, 1, "Tower Hamlets", "Newham")
	add(RegionLondon, OuterLondon, 4, "Richmond upon Thames", "Kingston upon Thames")
	add(RegionLondon, OuterLondon, 3, "Bromley", "Barnet", "Sutton", "Merton", "Harrow")
	add(RegionLondon, OuterLondon, 2, "Bexley", "Croydon", "Ealing", "Enfield", "Havering", "Hillingdon",
		"Hounslow", "Redbridge", "Waltham Forest")
	add(RegionLondon, OuterLondon, 1, "Barking and Dagenham")
	add(RegionKent, KentRural, 4, "Sevenoaks", "Tunbridge Wells")
	add(RegionKent, KentRural, 3, "Tonbridge and Malling")
	add(RegionKent, KentRural, 2, "Ashford", "Dover", "Folkestone and Hythe", "Swale")
	add(RegionKent, KentRural, 1, "Thanet")
	add(RegionKent, KentUrban, 3, "Canterbury", "Maidstone")
	add(RegionKent, KentUrban, 2, "Dartford", "Gravesham", "Medway")
	// "Kent" is the county-level LA name used for most Kent establishments.
	add(RegionKent, KentUrban, 3, "Kent")

	return &Tables{
		areas: areas,
		multipliers: map[string]float64{
			"Outstanding":          1.15,
			"Good":                 1.05,
			"N/A":                  1.00,
			"Requires Improvement": 0.90,
			"Inadequate":           0.80,
		},
	}
}

// Area returns the entry for name, or a generic tier-2 area when unmapped.
func (t *Tables) Area(name string) Area {
	if a, ok := t.areas[name]; ok {
		return a
	}
	return Area{Tier: DefaultTier, Region: RegionOther, Category: Generic}
}

// Known reports whether name is in the area table.
func (t *Tables) Known(name string) bool {
	_, ok := t.areas[name]
	return ok
}

// Tier returns the affluence tier for an area.
func (t *Tables) Tier(name string) int {
	return t.Area(name).Tier
}

// Region returns the macro region for an area.
func (t *Tables) Region(name string) string {
	return t.Area(name).Region
}

// Multiplier returns the quality multiplier for an Ofsted rating.
func (t *Tables) Multiplier(rating string) float64 {
	if m, ok := t.multipliers[rating]; ok {
		return m
	}
	return DefaultMultiplier
}

// Areas lists every mapped area name, sorted.
func (t *Tables) Areas() []string {
	names := make([]string, 0, len(t.areas))
	for n := range t.areas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TierBonus is the additive score adjustment for an affluence tier.
func TierBonus(tier int) int {
	return (tier - 2) * 3
}
