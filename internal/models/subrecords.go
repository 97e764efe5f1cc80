package models

// Performance holds the key-stage blocks. A block a school's phase does not
// qualify for is nil.
type Performance struct {
	KS2 *KS2 `json:"ks2"`
	KS4 *KS4 `json:"ks4"`
	KS5 *KS5 `json:"ks5"`
}

// Gate drops every block the gates forbid.
func (p *Performance) Gate(g Gates) {
	if !g.KS2 {
		p.KS2 = nil
	}
	if !g.KS4 {
		p.KS4 = nil
	}
	if !g.KS5 {
		p.KS5 = nil
	}
}

// KS2 is primary-leaving attainment. Scaled scores run 80-120.
type KS2 struct {
	ExpectedStandard int     `json:"expectedStandard"`
	HigherStandard   int     `json:"higherStandard"`
	ReadingScore     float64 `json:"readingScore"`
	MathsScore       float64 `json:"mathsScore"`
	GPSScore         float64 `json:"gpsScore"`
	ReadingProgress  float64 `json:"readingProgress"`
	WritingProgress  float64 `json:"writingProgress"`
	MathsProgress    float64 `json:"mathsProgress"`
}

// KS4 is GCSE-equivalent attainment.
type KS4 struct {
	Attainment8        float64     `json:"attainment8"`
	Progress8          float64     `json:"progress8"`
	Grade5EngMaths     int         `json:"grade5EngMaths"`
	Grade4EngMaths     int         `json:"grade4EngMaths"`
	EBaccEntry         int         `json:"ebaccEntry"`
	EBaccAPS           float64     `json:"ebaccAps"`
	StayingInEducation int         `json:"stayingInEducation"`
	Subjects           KS4Subjects `json:"subjects"`
}

// KS4Subjects are average grades on the 1-9 scale.
type KS4Subjects struct {
	English   float64 `json:"english"`
	Maths     float64 `json:"maths"`
	Science   float64 `json:"science"`
	History   float64 `json:"history"`
	Geography float64 `json:"geography"`
	Languages float64 `json:"languages"`
	Art       float64 `json:"art"`
	Computing float64 `json:"computing"`
}

// KS5 is post-16 attainment and destinations.
type KS5 struct {
	AveragePoints float64      `json:"averagePoints"`
	AverageGrade  string       `json:"averageGrade"`
	AABPercent    int          `json:"aabPercent"`
	Subjects      KS5Subjects  `json:"subjects"`
	Destinations  Destinations `json:"destinations"`
}

// KS5Subjects are average A-level points (E=10 ... A*=60).
type KS5Subjects struct {
	Maths             float64 `json:"maths"`
	Biology           float64 `json:"biology"`
	Chemistry         float64 `json:"chemistry"`
	Physics           float64 `json:"physics"`
	EnglishLiterature float64 `json:"englishLiterature"`
	History           float64 `json:"history"`
	Psychology        float64 `json:"psychology"`
	Economics         float64 `json:"economics"`
}

// Destinations are percentages of leavers.
type Destinations struct {
	University     int `json:"university"`
	RussellGroup   int `json:"russellGroup"`
	Oxbridge       int `json:"oxbridge"`
	Apprenticeship int `json:"apprenticeship"`
	Employment     int `json:"employment"`
}

// Admissions models one year's intake.
type Admissions struct {
	Capacity             int          `json:"capacity"`
	Applications         Applications `json:"applications"`
	Oversubscribed       bool         `json:"oversubscribed"`
	PlacesOffered        int          `json:"placesOffered"`
	ApplicationsPerPlace float64      `json:"applicationsPerPlace"`
	LastDistanceOffered  *float64     `json:"lastDistanceOffered"`
	Catchment            *Catchment   `json:"catchment"`
	Criteria             []Criterion  `json:"criteria"`
	Appeals              Appeals      `json:"appeals"`
	OpenDays             []string     `json:"openDays"`
}

// Applications split by preference. First+Second+Third == Total.
type Applications struct {
	Total  int `json:"total"`
	First  int `json:"first"`
	Second int `json:"second"`
	Third  int `json:"third"`
}

// Catchment radii are in kilometres.
type Catchment struct {
	OfficialRadius  float64         `json:"officialRadius"`
	EffectiveRadius float64         `json:"effectiveRadius"`
	History         []CatchmentYear `json:"history"`
}

// CatchmentYear is the furthest distance offered in a past intake year.
type CatchmentYear struct {
	Year   int     `json:"year"`
	Radius float64 `json:"radius"`
}

// Criterion is one oversubscription rule. Priority 1 is applied first.
type Criterion struct {
	Priority    int    `json:"priority"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Appeals counts for the last intake.
type Appeals struct {
	Lodged int `json:"lodged"`
	Heard  int `json:"heard"`
	Upheld int `json:"upheld"`
}

// Demographics are percentages of the roll.
type Demographics struct {
	FSM                  int       `json:"fsm"`
	EAL                  int       `json:"eal"`
	EnglishFirstLanguage int       `json:"englishFirstLanguage"`
	SEN                  int       `json:"sen"`
	Ethnicity            Ethnicity `json:"ethnicity"`
}

// Ethnicity buckets always sum to 100.
type Ethnicity struct {
	White int `json:"white"`
	Asian int `json:"asian"`
	Black int `json:"black"`
	Mixed int `json:"mixed"`
	Other int `json:"other"`
}

// Sum returns the total of all buckets.
func (e Ethnicity) Sum() int {
	return e.White + e.Asian + e.Black + e.Mixed + e.Other
}

// OfstedHistory is the inspection record and parent survey.
type OfstedHistory struct {
	CurrentRating          string      `json:"currentRating"`
	Applicable             bool        `json:"applicable"`
	InspectionDate         string      `json:"inspectionDate,omitempty"`
	PreviousRating         *string     `json:"previousRating"`
	PreviousInspectionDate string      `json:"previousInspectionDate,omitempty"`
	Judgements             *Judgements `json:"judgements"`
	ParentView             *ParentView `json:"parentView"`
	ReportURL              string      `json:"reportUrl,omitempty"`
}

// Judgements are the key judgement grades of the current inspection.
type Judgements struct {
	QualityOfEducation  string `json:"qualityOfEducation"`
	Behaviour           string `json:"behaviour"`
	PersonalDevelopment string `json:"personalDevelopment"`
	Leadership          string `json:"leadership"`
}

// ParentView is the Ofsted parent survey.
type ParentView struct {
	Responses int                  `json:"responses"`
	Questions []ParentViewQuestion `json:"questions"`
}

// ParentViewQuestion is the agreement percentage for one survey question.
type ParentViewQuestion struct {
	Question string `json:"question"`
	Agree    int    `json:"agree"`
}

// Contact details.
type Contact struct {
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Headteacher string `json:"headteacher"`
	Website     string `json:"website"`
}

// Finances are annual figures in whole pounds.
type Finances struct {
	PerPupilFunding   int            `json:"perPupilFunding"`
	TotalIncome       int64          `json:"totalIncome"`
	TotalExpenditure  int64          `json:"totalExpenditure"`
	InYearBalance     int64          `json:"inYearBalance"`
	PupilTeacherRatio float64        `json:"pupilTeacherRatio"`
	TeacherCount      int            `json:"teacherCount"`
	Spend             SpendBreakdown `json:"spend"`
}

// SpendBreakdown splits expenditure into percentages summing to 100.
type SpendBreakdown struct {
	StaffPct     int `json:"staffPct"`
	PremisesPct  int `json:"premisesPct"`
	ResourcesPct int `json:"resourcesPct"`
	OtherPct     int `json:"otherPct"`
}

// OfstedFacts is what a real-data source knows about an inspection.
type OfstedFacts struct {
	Rating         string `json:"rating"`
	InspectionDate string `json:"inspectionDate"`
	ReportURL      string `json:"reportUrl"`
}

// ContactFacts is what a real-data source knows about contact details.
// Empty fields are unknown.
type ContactFacts struct {
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Headteacher string `json:"headteacher"`
}
