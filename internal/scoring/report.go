package scoring

// Decision is the outcome of a content check.
type Decision string

const (
	DecisionApproved      Decision = "APPROVED"
	DecisionNeedsRevision Decision = "NEEDS_REVISION"
	DecisionRejected      Decision = "REJECTED"
)

// Check names as they appear in reports and approval emails.
const (
	CheckFactualAccuracy   = "factual_accuracy"
	CheckSEOCompliance     = "seo_compliance"
	CheckResearchAlignment = "research_alignment"
	CheckUniqueness        = "uniqueness"
	CheckQuality           = "quality"
)

// CheckResult is the outcome of a single quality check.
type CheckResult struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Weight   float64 `json:"weight"`
	Passed   bool    `json:"passed"`
	Critical bool    `json:"critical_failure"`
	Detail   string  `json:"detail,omitempty"`
}

// Report is the full scoring outcome.
type Report struct {
	OverallScore int           `json:"overall_score"`
	Decision     Decision      `json:"decision"`
	Checks       []CheckResult `json:"checks"`
	Strengths    []string      `json:"strengths"`
	Concerns     []string      `json:"concerns"`
}

// Decision thresholds.
const (
	approveThreshold  = 85
	revisionThreshold = 70
)

// DecisionFor maps an overall score and critical-failure flag to a decision.
// A critical failure rejects regardless of the weighted total.
func DecisionFor(score int, critical bool) Decision {
	switch {
	case critical:
		return DecisionRejected
	case score >= approveThreshold:
		return DecisionApproved
	case score >= revisionThreshold:
		return DecisionNeedsRevision
	default:
		return DecisionRejected
	}
}
