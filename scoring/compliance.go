package scoring

import (
	"fmt"

	"esg-compliance-service/models"
	"esg-compliance-service/validation"
)

// ScoreCompliance scores a generic checklist-style assessment (GRI and
// similar standards) on the 0-100 scale: the percentage of applicable checks
// at compliant level or better.
func ScoreCompliance(assessment *models.ComplianceAssessment, sector string) *models.ScoreResult {
	var applicable, satisfied int
	var recs []string

	for _, check := range assessment.Checks {
		if check.Status == models.ComplianceNotApplicable {
			continue
		}
		applicable++
		switch check.Status {
		case models.ComplianceCompliant, models.ComplianceExceeds:
			satisfied++
		case models.ComplianceInProgress:
			recs = append(recs, fmt.Sprintf("Complete the in-progress work on %s", check.Standard))
		default:
			recs = append(recs, fmt.Sprintf("Start addressing %s", check.Standard))
		}
	}

	var score float64
	if applicable > 0 {
		score = float64(satisfied) / float64(applicable) * 100
	} else {
		recs = append(recs, "No applicable compliance checks were assessed; review the framework scope")
	}

	recs = append(recs, SectorRecommendations(sector)...)

	return &models.ScoreResult{
		Framework:       models.FrameworkCompliance,
		OverallScore:    score,
		Scale:           "0-100",
		PillarScores:    map[string]float64{"checks_satisfied": float64(satisfied), "checks_applicable": float64(applicable)},
		Recommendations: validation.Dedup(recs),
	}
}
