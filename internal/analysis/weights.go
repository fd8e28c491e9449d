package analysis

// Grade bands on the overall percentage, inclusive lower bounds.
const (
	GoodThreshold             = 80.0
	NeedsImprovementThreshold = 60.0
	AtRiskThreshold           = 40.0
)

// Grade labels.
const (
	GradeGood             = "Good"
	GradeNeedsImprovement = "Needs Improvement"
	GradeAtRisk           = "At Risk"
	GradeCritical         = "Critical"
)

// Letter grade bands used by the legacy scorecard view.
const (
	letterA = 90.0
	letterB = 80.0
	letterC = 70.0
	letterD = 60.0
)

// OverallScore is the aggregate percentage and its grade.
type OverallScore struct {
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Grade      string  `json:"grade" yaml:"grade"`
}

// GradeFor maps a percentage onto a grade band.
func GradeFor(pct float64) string {
	switch {
	case pct >= GoodThreshold:
		return GradeGood
	case pct >= NeedsImprovementThreshold:
		return GradeNeedsImprovement
	case pct >= AtRiskThreshold:
		return GradeAtRisk
	default:
		return GradeCritical
	}
}

// LetterGrade maps a percentage onto A-F.
func LetterGrade(pct float64) string {
	switch {
	case pct >= letterA:
		return "A"
	case pct >= letterB:
		return "B"
	case pct >= letterC:
		return "C"
	case pct >= letterD:
		return "D"
	default:
		return "F"
	}
}

// UniformWeights gives each of n domains an equal share of 100.
func UniformWeights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 100 / float64(n)
	}
	return w
}

// Aggregate returns the weighted average of scores. Weights are percentages
// and need not be normalized; zero total weight yields 0.
func Aggregate(scores, weights []float64) OverallScore {
	var sum, total float64
	for i, s := range scores {
		if i >= len(weights) {
			break
		}
		sum += clamp(s, 0, 100) * weights[i]
		total += weights[i]
	}
	if total <= 0 {
		return OverallScore{Percentage: 0, Grade: GradeFor(0)}
	}
	pct := clamp(sum/total, 0, 100)
	return OverallScore{Percentage: pct, Grade: GradeFor(pct)}
}
