package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/logger"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/output"
)

const header = `URN,EstablishmentName,LA (name),DistrictAdministrative (name),PhaseOfEducation (name),` +
	`TypeOfEstablishment (name),EstablishmentTypeGroup (name),EstablishmentStatus (name),NumberOfPupils,` +
	`OfficialSixthForm (name),Gender (name),ReligiousCharacter (name),StatutoryLowAge,StatutoryHighAge,` +
	`Postcode,Street,Locality,Town,SchoolWebsite,AdmissionsPolicy (name),OfstedRating (name),Latitude,Longitude`

var sampleCSV = header + "\n" +
	`101600,Bickley Park Primary School,Bromley,Bickley,Primary,Community school,Local authority maintained schools,Open,450,Does not have a sixth form,Mixed,Does not apply,4,11,BR1 2DS,"24 Page Heath Lane",,Bromley,www.bickleypark.example,Not applicable,Good,51.40,0.04` + "\n" +
	`118000,Simon Langton Grammar School for Boys,Kent,Canterbury,Secondary,Academy converter,Academies,Open,1200,Has a sixth form,Boys,None,11,18,CT4 7AS,Langton Lane,Nackington,Canterbury,,Selective,Outstanding,,` + "\n" +
	`118001,St Lawrence College,Kent,Thanet,Not applicable,Other independent school,Independent schools,"Open, but proposed to close",650,Has a sixth form,Mixed,Church of England,3,18,CT11 7AE,College Road,,Ramsgate,,Non-selective,,,` + "\n" +
	`118002,Closed Academy,Kent,Dover,Secondary,Academy converter,Academies,Closed,500,,Mixed,,11,16,,,,,,,Good,,` + "\n" +
	`330000,Birmingham School,Birmingham,,Primary,Community school,Local authority maintained schools,Open,300,,Mixed,,4,11,,,,,,,Good,,` + "\n" +
	`abc,Bad URN School,Bromley,,Primary,Community school,Local authority maintained schools,Open,300,,Mixed,,4,11,,,,,,,Good,,` + "\n" +
	`101601,Empty Roll School,Bromley,,Primary,Community school,Local authority maintained schools,Open,,,Mixed,,4,11,,,,,,,Good,,` + "\n" +
	`101602,Oak Lodge School,Bromley,,Not applicable,Community special school,Local authority maintained schools,Open,120,,Mixed,,11,19,,,,,,,Requires improvement,,` + "\n"

func newTransformer(areas ...string) *Transformer {
	return NewTransformer(covariates.Default(), areas, logger.Nop())
}

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), "utf-8")
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, "101600", rows[0]["URN"])
	assert.Equal(t, "24 Page Heath Lane", rows[0]["Street"])
	assert.Equal(t, "Open, but proposed to close", rows[2]["EstablishmentStatus (name)"])
}

func TestReadCSV_BOMAndShortRows(t *testing.T) {
	in := "\xEF\xBB\xBFURN,EstablishmentName,Town\n1,\"Quoted, Name\"\n"
	rows, err := ReadCSV(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["URN"])
	assert.Equal(t, "Quoted, Name", rows[0]["EstablishmentName"])
	assert.Equal(t, "", rows[0]["Town"])
}

func TestReadCSV_Windows1252(t *testing.T) {
	// 0xE9 is é and 0x92 is a right single quote in Windows-1252
	in := "URN,EstablishmentName\n1,Caf\xE9 St Mary\x92s\n"
	rows, err := ReadCSV(strings.NewReader(in), "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "Café St Mary’s", rows[0]["EstablishmentName"])
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "utf-8")
	assert.ErrorIs(t, err, ErrInputData)
}

func TestTransform(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), "utf-8")
	require.NoError(t, err)

	schools, stats := newTransformer().Transform(rows)

	assert.Equal(t, Stats{Rows: 8, Kept: 4, Closed: 1, OutOfArea: 1, Invalid: 2}, stats)
	require.Len(t, schools, 4)

	bickley := schools[0]
	assert.Equal(t, "101600", bickley.URN)
	assert.Equal(t, "Bromley", bickley.Borough)
	assert.Equal(t, covariates.RegionLondon, bickley.Region)
	assert.Equal(t, models.PhasePrimary, bickley.Phase)
	assert.Equal(t, models.SectorState, bickley.Sector)
	assert.Equal(t, "Maintained", bickley.FundingType)
	assert.Equal(t, models.ReligiousCharacterNone, bickley.ReligiousCharacter)
	assert.Equal(t, "4-11", bickley.AgeRange)
	assert.Equal(t, "24 Page Heath Lane, Bromley", bickley.Address)
	assert.Equal(t, "https://www.bickleypark.example", bickley.Website)
	require.NotNil(t, bickley.Lat)
	assert.Equal(t, 51.40, *bickley.Lat)
	assert.Nil(t, bickley.Performance)

	langton := schools[1]
	assert.Equal(t, "Canterbury", langton.Borough, "Kent district replaces the county")
	assert.Equal(t, models.FundingGrammar, langton.FundingType)
	assert.True(t, langton.HasSixthForm)
	assert.Equal(t, "Boys", langton.Gender)
	assert.Equal(t, models.RatingOutstanding, langton.OfstedRating)
	assert.Nil(t, langton.Lat)

	college := schools[2]
	assert.Equal(t, "Thanet", college.Borough)
	assert.Equal(t, models.SectorPrivate, college.Sector)
	assert.Equal(t, models.FundingIndependent, college.FundingType)
	assert.Equal(t, models.PhaseAllThrough, college.Phase)
	assert.Equal(t, models.RatingNotApplicable, college.OfstedRating)
	assert.Equal(t, "Church of England", college.ReligiousCharacter)

	special := schools[3]
	assert.Equal(t, models.PhaseSpecial, special.Phase)
	assert.Equal(t, models.RatingRequiresImprovement, special.OfstedRating)
}

func TestTransform_AreaFilter(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV), "utf-8")
	require.NoError(t, err)

	schools, stats := newTransformer("kent").Transform(rows)
	assert.Len(t, schools, 2)
	assert.Equal(t, 5, stats.OutOfArea)

	schools, _ = newTransformer("Thanet").Transform(rows)
	require.Len(t, schools, 1)
	assert.Equal(t, "118001", schools[0].URN)
}

func TestPhase(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]string
		want string
	}{
		{"nursery", map[string]string{ColPhase: "Nursery"}, models.PhaseNursery},
		{"middle primary", map[string]string{ColPhase: "Middle deemed primary"}, models.PhasePrimary},
		{"16 plus", map[string]string{ColPhase: "16 plus"}, models.PhaseSixteenPlus},
		{"special type wins", map[string]string{ColPhase: "Secondary", ColType: "Foundation special school"}, models.PhaseSpecial},
		{"ages primary", map[string]string{ColPhase: "Not applicable", ColLowAge: "3", ColHighAge: "11"}, models.PhasePrimary},
		{"ages secondary", map[string]string{ColPhase: "Not applicable", ColLowAge: "11", ColHighAge: "18"}, models.PhaseSecondary},
		{"ages sixth form college", map[string]string{ColPhase: "Not applicable", ColLowAge: "16", ColHighAge: "19"}, models.PhaseSixteenPlus},
		{"ages nursery", map[string]string{ColPhase: "Not applicable", ColLowAge: "2", ColHighAge: "5"}, models.PhaseNursery},
		{"unknown", map[string]string{ColPhase: "Not applicable"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, phase(tt.row))
		})
	}
}

func TestRating(t *testing.T) {
	assert.Equal(t, models.RatingRequiresImprovement, rating("Requires improvement"))
	assert.Equal(t, models.RatingInadequate, rating("Serious Weaknesses"))
	assert.Equal(t, models.RatingNotApplicable, rating(""))
}

func TestLoad_CSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "edubase.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	res, err := Load(Input{CSVPath: csvPath}, newTransformer(), logger.Nop())
	require.NoError(t, err)
	assert.False(t, res.FromFallback)
	assert.Len(t, res.Schools, 4)
}

func TestLoad_Fallback(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "schools.js")
	prior := []*models.School{{
		ID: 7, URN: "101600", Name: "Bickley Park Primary School", Borough: "Bromley",
		Phase: models.PhasePrimary, Sector: models.SectorState, Pupils: 450,
		OfstedRating: models.RatingGood, Finances: &models.Finances{PerPupilFunding: 5000},
	}}
	require.NoError(t, output.Write(fallback, prior, output.Header{}))

	res, err := Load(Input{CSVPath: filepath.Join(dir, "missing.csv"), FallbackPath: fallback}, newTransformer(), logger.Nop())
	require.NoError(t, err)
	assert.True(t, res.FromFallback)
	require.Len(t, res.Schools, 1)
	assert.Equal(t, "101600", res.Schools[0].URN)
	assert.Nil(t, res.Schools[0].Finances, "sub-records are stripped for re-enrichment")
}

func TestLoad_MissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(Input{CSVPath: filepath.Join(dir, "missing.csv")}, newTransformer(), logger.Nop())
	assert.ErrorIs(t, err, ErrInputData)

	_, err = Load(Input{
		CSVPath:      filepath.Join(dir, "missing.csv"),
		FallbackPath: filepath.Join(dir, "missing.js"),
	}, newTransformer(), logger.Nop())
	assert.ErrorIs(t, err, ErrInputData)
}
