package scoring

import (
	"fmt"
	"sort"

	"esg-compliance-service/models"
	"esg-compliance-service/validation"
)

// ISSB weighs IFRS S1 (general requirements) and IFRS S2 (climate) equally:
// five sub-items per pillar at 10 points each.
const issbItemPoints = 10.0

// Readiness bands for per-standard implementation progress.
var readinessBands = []float64{0, 25, 50, 75, 100}

// ScoreISSB scores an ISSB assessment on the 0-100 scale and computes the
// per-standard readiness breakdown.
func ScoreISSB(assessment *models.ISSBAssessment, sector string) *models.ScoreResult {
	pillars := make(map[string]float64, 2)
	var recs []string

	s1 := scoreISSBGeneral(assessment.S1)
	pillars["ifrs_s1"] = s1
	if assessment.S1 == nil {
		recs = append(recs, "Begin IFRS S1 implementation: no general sustainability disclosures are in place")
	} else if s1 < 50 {
		recs = append(recs, "Expand IFRS S1 disclosures to cover governance, strategy, risk management and metrics")
	}

	s2 := scoreISSBClimate(assessment.S2)
	pillars["ifrs_s2"] = s2
	if assessment.S2 == nil {
		recs = append(recs, "Begin IFRS S2 implementation: no climate-related disclosures are in place")
	} else if s2 < 50 {
		recs = append(recs, "Expand IFRS S2 disclosures, prioritising Scope 1-3 GHG metrics and climate targets")
	}

	recs = append(recs, SectorRecommendations(sector)...)

	return &models.ScoreResult{
		Framework:       models.FrameworkISSB,
		OverallScore:    s1 + s2,
		Scale:           "0-100",
		PillarScores:    pillars,
		Recommendations: validation.Dedup(recs),
		Readiness:       issbReadiness(assessment.Standards),
	}
}

func scoreISSBGeneral(s1 *models.ISSBGeneral) float64 {
	if s1 == nil {
		return 0
	}
	var score float64
	for _, item := range []string{s1.Governance, s1.Strategy, s1.RiskManagement, s1.MetricsTargets, s1.GeneralRequirements} {
		if present(item) {
			score += issbItemPoints
		}
	}
	return score
}

func scoreISSBClimate(s2 *models.ISSBClimate) float64 {
	if s2 == nil {
		return 0
	}
	var score float64
	for _, item := range []string{s2.ClimateGovernance, s2.ClimateStrategy, s2.ClimateRiskProcesses, s2.GHGMetrics, s2.ClimateTargets} {
		if present(item) {
			score += issbItemPoints
		}
	}
	return score
}

// issbReadiness bands each of the seven sub-standards S1-S7 independently and
// averages them into an overall readiness percentage. Standards with no
// reported progress band at zero.
func issbReadiness(progress map[string]models.ISSBStandardProgress) *models.ReadinessResult {
	standards := make([]models.StandardReadiness, 0, 7)
	var total float64
	timeline := models.ReadinessTimeline{}

	for i := 1; i <= 7; i++ {
		name := fmt.Sprintf("S%d", i)
		p := progress[name]
		score := readinessBand(p)

		sr := models.StandardReadiness{Standard: name, Score: score}
		if score < 100 {
			remaining := p.TotalItems - p.CompletedItems
			if p.TotalItems == 0 {
				sr.Gaps = append(sr.Gaps, fmt.Sprintf("No implementation activity recorded for %s", name))
			} else if remaining > 0 {
				sr.Gaps = append(sr.Gaps, fmt.Sprintf("%d of %d %s requirements remain open", remaining, p.TotalItems, name))
			}
		}
		standards = append(standards, sr)
		total += score

		action := fmt.Sprintf("Progress %s implementation", name)
		switch {
		case score == 0:
			timeline.Immediate = append(timeline.Immediate, action)
		case score < 75:
			timeline.ShortTerm = append(timeline.ShortTerm, action)
		case score < 100:
			timeline.LongTerm = append(timeline.LongTerm, action)
		}
	}

	sort.Slice(standards, func(i, j int) bool { return standards[i].Standard < standards[j].Standard })

	return &models.ReadinessResult{
		OverallReadiness: total / 7,
		Standards:        standards,
		Timeline:         timeline,
	}
}

// readinessBand maps a completed/total ratio onto the 0/25/50/75/100 bands.
func readinessBand(p models.ISSBStandardProgress) float64 {
	if p.TotalItems <= 0 || p.CompletedItems <= 0 {
		return readinessBands[0]
	}
	ratio := float64(p.CompletedItems) / float64(p.TotalItems)
	switch {
	case ratio <= 0.25:
		return readinessBands[1]
	case ratio <= 0.5:
		return readinessBands[2]
	case ratio <= 0.75:
		return readinessBands[3]
	default:
		return readinessBands[4]
	}
}
