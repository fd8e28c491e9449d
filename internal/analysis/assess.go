package analysis

import (
	"math"

	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
)

// Options configure one assessment run. Zero values select defaults.
type Options struct {
	ReportType string             // overrides Input.ReportType when set
	Industry   string             // overrides the organization industry when set
	Perturber  Perturber          // nil disables perturbation
	Thresholds PriorityThresholds // zero value selects DefaultThresholds
	Catalog    *catalog.Catalog   // nil selects catalog.For(industry)
}

// DomainScore is the canonical per-domain result every view derives from.
type DomainScore struct {
	DomainID         string  `json:"domainId" yaml:"domainId"`
	Domain           string  `json:"domain" yaml:"domain"`
	EarnedPercentage float64 `json:"earnedPercentage" yaml:"earnedPercentage"`
	Weight           float64 `json:"weight" yaml:"weight"`
	MaturityGPA      float64 `json:"maturityGpa" yaml:"maturityGpa"`
	Gaps             []Gap   `json:"gaps" yaml:"gaps"`
}

// MatrixControl is one cell of the legacy matrix view.
type MatrixControl struct {
	ControlID   string       `json:"controlId" yaml:"controlId"`
	Name        string       `json:"name" yaml:"name"`
	Reported    catalog.Tier `json:"reported" yaml:"reported"`
	Expert      catalog.Tier `json:"expert" yaml:"expert"`
	Implemented bool         `json:"implemented" yaml:"implemented"`
	Gap         bool         `json:"gap" yaml:"gap"`
}

// MatrixRow is one domain row of the legacy matrix view.
type MatrixRow struct {
	DomainID         string          `json:"domainId" yaml:"domainId"`
	Domain           string          `json:"domain" yaml:"domain"`
	EarnedPercentage float64         `json:"earnedPercentage" yaml:"earnedPercentage"`
	Controls         []MatrixControl `json:"controls" yaml:"controls"`
}

// ScorecardItem is one row of the legacy scorecard view.
type ScorecardItem struct {
	Parameter string  `json:"parameter" yaml:"parameter"`
	Weight    float64 `json:"weight" yaml:"weight"`
	Score     float64 `json:"score" yaml:"score"`
	Grade     string  `json:"grade" yaml:"grade"`
}

// RasbitaScore is the legacy six-category view.
type RasbitaScore struct {
	Govern   float64                      `json:"govern" yaml:"govern"`
	Identify float64                      `json:"identify" yaml:"identify"`
	Protect  float64                      `json:"protect" yaml:"protect"`
	Detect   float64                      `json:"detect" yaml:"detect"`
	Respond  float64                      `json:"respond" yaml:"respond"`
	Recover  float64                      `json:"recover" yaml:"recover"`
	Overall  float64                      `json:"overall" yaml:"overall"`
	Grade    string                       `json:"grade" yaml:"grade"`
	Weights  map[catalog.Category]float64 `json:"weights" yaml:"weights"`
}

// GapParameter is one domain row of the legacy gap-analysis view.
type GapParameter struct {
	Domain           string  `json:"domain" yaml:"domain"`
	Name             string  `json:"name" yaml:"name"`
	EarnedPercentage float64 `json:"earnedPercentage" yaml:"earnedPercentage"`
	Weight           float64 `json:"weight" yaml:"weight"`
	GapCount         int     `json:"gapCount" yaml:"gapCount"`
}

// GapAnalysis is the legacy gap-analysis view.
type GapAnalysis struct {
	OverallPercentage float64        `json:"overallPercentage" yaml:"overallPercentage"`
	Grade             string         `json:"grade" yaml:"grade"`
	Parameters        []GapParameter `json:"parameters" yaml:"parameters"`
	CriticalCount     int            `json:"criticalCount" yaml:"criticalCount"`
	HighCount         int            `json:"highCount" yaml:"highCount"`
	MediumCount       int            `json:"mediumCount" yaml:"mediumCount"`
	LowCount          int            `json:"lowCount" yaml:"lowCount"`
}

// Report is the complete result of scoring one assessment.
type Report struct {
	ReportType                 string                       `json:"reportType" yaml:"reportType"`
	Industry                   string                       `json:"industry" yaml:"industry"`
	Organization               assessment.Organization      `json:"organization" yaml:"organization"`
	OverallScore               OverallScore                 `json:"overallScore" yaml:"overallScore"`
	DomainScores               []DomainScore                `json:"domainScores" yaml:"domainScores"`
	ParameterScores            map[string]float64           `json:"parameterScores" yaml:"parameterScores"`
	CategoryScores             map[catalog.Category]float64 `json:"categoryScores" yaml:"categoryScores"`
	Gaps                       []Gap                        `json:"gaps" yaml:"gaps"`
	PrioritizedRecommendations []Recommendation             `json:"prioritizedRecommendations" yaml:"prioritizedRecommendations"`

	MatrixData   []MatrixRow     `json:"matrixData" yaml:"matrixData"`
	Scorecard    []ScorecardItem `json:"scorecard" yaml:"scorecard"`
	RasbitaScore RasbitaScore    `json:"rasbitaScore" yaml:"rasbitaScore"`
	GapAnalysis  GapAnalysis     `json:"gapAnalysis" yaml:"gapAnalysis"`
}

// PriorityCount returns how many recommendations fall in band p.
func (r *Report) PriorityCount(p Priority) int {
	n := 0
	for _, rec := range r.PrioritizedRecommendations {
		if rec.Priority == p {
			n++
		}
	}
	return n
}

// HasCritical reports whether any recommendation is Critical.
func (r *Report) HasCritical() bool {
	return r.PriorityCount(PriorityCritical) > 0
}

// Assess scores in and assembles the report. It never fails: missing
// answers count as tier 0 and an empty catalog scores 0%.
func Assess(in *assessment.Input, opts Options) *Report {
	reportType := opts.ReportType
	if reportType == "" {
		reportType = in.ReportType
	}
	if reportType != assessment.ReportComprehensive {
		reportType = assessment.ReportPreliminary
	}

	industry := opts.Industry
	if industry == "" {
		industry = in.Organization.Industry
	}
	industry = catalog.NormalizeIndustry(industry)

	cat := opts.Catalog
	if cat == nil {
		cat = catalog.For(industry)
	}

	thresholds := opts.Thresholds
	if thresholds == (PriorityThresholds{}) {
		thresholds = DefaultThresholds()
	}

	eval := &Evaluator{Catalog: cat, ReportType: reportType, Perturber: opts.Perturber}
	weights := UniformWeights(len(cat.Domains))

	// Canonical domain scores, rounded once so every view agrees.
	scores := make([]float64, len(cat.Domains))
	byID := make(map[string]float64, len(cat.Domains))
	names := make(map[string]string, len(cat.Domains))
	for i, d := range cat.Domains {
		scores[i] = round2(eval.Evaluate(in, d.ID))
		byID[d.ID] = scores[i]
		names[d.ID] = d.Name
	}

	gaps := FindGaps(cat, in, weights)
	for i := range gaps {
		gaps[i].PercentageImpact = round2(gaps[i].PercentageImpact)
	}
	recs := Prioritize(gaps, thresholds, names)

	overall := Aggregate(scores, weights)
	overall.Percentage = round2(overall.Percentage)
	overall.Grade = GradeFor(overall.Percentage)

	r := &Report{
		ReportType:                 reportType,
		Industry:                   industry,
		Organization:               in.Organization,
		OverallScore:               overall,
		ParameterScores:            byID,
		Gaps:                       gaps,
		PrioritizedRecommendations: recs,
	}
	r.Organization.Industry = industry

	domainGaps := make(map[string][]Gap)
	for _, g := range gaps {
		domainGaps[g.Domain] = append(domainGaps[g.Domain], g)
	}

	for i, d := range cat.Domains {
		w := round2(weights[i])
		r.DomainScores = append(r.DomainScores, DomainScore{
			DomainID:         d.ID,
			Domain:           d.Name,
			EarnedPercentage: scores[i],
			Weight:           w,
			MaturityGPA:      round2(scores[i] / 100 * 4),
			Gaps:             domainGaps[d.ID],
		})
		r.Scorecard = append(r.Scorecard, ScorecardItem{
			Parameter: d.Name,
			Weight:    w,
			Score:     scores[i],
			Grade:     LetterGrade(scores[i]),
		})
		r.MatrixData = append(r.MatrixData, matrixRow(in, &cat.Domains[i], scores[i]))
	}

	r.CategoryScores = CategoryScores(cat, byID)
	for c, v := range r.CategoryScores {
		r.CategoryScores[c] = round2(v)
	}
	r.RasbitaScore = rasbitaView(r.CategoryScores, industry)
	r.GapAnalysis = gapAnalysisView(r)
	return r
}

func matrixRow(in *assessment.Input, d *catalog.Domain, score float64) MatrixRow {
	ev, _ := in.Domain(d.ID)
	row := MatrixRow{DomainID: d.ID, Domain: d.Name, EarnedPercentage: score}
	for _, c := range d.Controls {
		reported := ev.Reported(c.ID)
		row.Controls = append(row.Controls, MatrixControl{
			ControlID:   c.ID,
			Name:        c.Name,
			Reported:    reported,
			Expert:      c.ExpertLevel,
			Implemented: reported > catalog.TierNotImplemented,
			Gap:         reported < c.ExpertLevel,
		})
	}
	return row
}

func rasbitaView(scores map[catalog.Category]float64, industry string) RasbitaScore {
	weights := RasbitaWeights(scores, industry)
	for c, w := range weights {
		weights[c] = round2(w)
	}
	overall := RasbitaOverall(scores, industry)
	pct := round2(overall.Percentage)
	return RasbitaScore{
		Govern:   scores[catalog.Govern],
		Identify: scores[catalog.Identify],
		Protect:  scores[catalog.Protect],
		Detect:   scores[catalog.Detect],
		Respond:  scores[catalog.Respond],
		Recover:  scores[catalog.Recover],
		Overall:  pct,
		Grade:    GradeFor(pct),
		Weights:  weights,
	}
}

func gapAnalysisView(r *Report) GapAnalysis {
	ga := GapAnalysis{
		OverallPercentage: r.OverallScore.Percentage,
		Grade:             r.OverallScore.Grade,
		CriticalCount:     r.PriorityCount(PriorityCritical),
		HighCount:         r.PriorityCount(PriorityHigh),
		MediumCount:       r.PriorityCount(PriorityMedium),
		LowCount:          r.PriorityCount(PriorityLow),
	}
	for _, ds := range r.DomainScores {
		ga.Parameters = append(ga.Parameters, GapParameter{
			Domain:           ds.DomainID,
			Name:             ds.Domain,
			EarnedPercentage: ds.EarnedPercentage,
			Weight:           ds.Weight,
			GapCount:         len(ds.Gaps),
		})
	}
	return ga
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
