package generators

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/prng"
)

const maxSlugLen = 24

var (
	londonExchanges = []string{"7", "8"}
	kentAreaCodes   = []string{"01227", "01233", "01304", "01622", "01732", "01795", "01843", "01892"}
	otherAreaCodes  = []string{"01204", "01372", "01483", "01604", "01733", "01908"}
)

var (
	titles         = []string{"Mr", "Mrs", "Ms", "Miss", "Dr"}
	maleFirstNames = []string{"James", "David", "Michael", "Richard", "Andrew", "Daniel", "Thomas", "Simon", "Paul", "Matthew"}
	femaleNames    = []string{"Sarah", "Catherine", "Helen", "Rachel", "Emma", "Joanne", "Claire", "Louise", "Rebecca", "Amanda"}
	lastNames      = []string{"Smith", "Jones", "Taylor", "Brown", "Williams", "Wilson", "Johnson", "Davies", "Robinson", "Wright", "Thompson", "Evans", "Walker", "Hughes", "Patel", "Khan", "Okafor", "Green"}
)

// fillerWords are dropped from a name before it becomes a slug.
var fillerWords = map[string]bool{
	"the": true, "school": true, "primary": true, "secondary": true, "academy": true,
	"infant": true, "infants": true, "junior": true, "and": true, "of": true, "for": true,
	"c": true, "e": true, "ce": true, "rc": true, "cofe": true, "church": true, "england": true,
}

// Contact draws a phone number and a headteacher. The email is derived from
// the name and the website is kept when the record already has one.
func Contact(s *models.School, t *covariates.Tables, _ Env, r *prng.Rand) *models.Contact {
	c := &models.Contact{
		Phone:       phone(t.Region(s.Borough), r),
		Headteacher: headteacher(r),
	}

	slug := Slug(s.Name, s.URN)
	if s.IsPrivate() {
		c.Email = "admissions@" + slug + ".org.uk"
	} else {
		c.Email = fmt.Sprintf("office@%s.%s.sch.uk", slug, alnum(s.Borough))
	}

	c.Website = s.Website
	if c.Website == "" {
		suffix := "sch.uk"
		if s.IsPrivate() {
			suffix = "org.uk"
		}
		c.Website = fmt.Sprintf("https://www.%s.%s", slug, suffix)
	}
	return c
}

func phone(region string, r *prng.Rand) string {
	switch region {
	case covariates.RegionLondon:
		return fmt.Sprintf("020 %s%03d %04d", r.Pick(londonExchanges), r.Int(0, 999), r.Int(0, 9999))
	case covariates.RegionKent:
		return fmt.Sprintf("%s %06d", r.Pick(kentAreaCodes), r.Int(200000, 999999))
	default:
		return fmt.Sprintf("%s %06d", r.Pick(otherAreaCodes), r.Int(200000, 999999))
	}
}

func headteacher(r *prng.Rand) string {
	title := r.Pick(titles)
	var first string
	switch title {
	case "Mr":
		first = r.Pick(maleFirstNames)
	case "Dr":
		if r.Int(0, 1) == 0 {
			first = r.Pick(maleFirstNames)
		} else {
			first = r.Pick(femaleNames)
		}
	default:
		first = r.Pick(femaleNames)
	}
	return fmt.Sprintf("%s %s %s", title, first, r.Pick(lastNames))
}

// Slug reduces a school name to lower-case alphanumerics without filler
// words, at most 24 characters. A name with nothing left falls back to
// "school" plus the urn.
func Slug(name, urn string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if fillerWords[word] {
			continue
		}
		b.WriteString(alnum(word))
	}
	slug := b.String()
	if slug == "" {
		slug = "school" + alnum(urn)
	}
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}

// alnum keeps only ASCII letters and digits, lower-cased.
func alnum(v string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(v) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
