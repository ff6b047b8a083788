package scoring

import (
	"fmt"

	"esg-compliance-service/models"
	"esg-compliance-service/validation"
)

// TCFD pillar point budgets. They partition 100 points:
// Governance 25, Strategy 30, Risk Management 25, Metrics & Targets 20.
const (
	tcfdGovernanceMax     = 25.0
	tcfdStrategyMax       = 30.0
	tcfdRiskManagementMax = 25.0
	tcfdMetricsTargetsMax = 20.0

	// A pillar scoring below this share of its budget earns a recommendation.
	tcfdWeakPillarShare = 0.65

	// Bonus for a substantive pillar narrative.
	tcfdNarrativeBonus  = 3.0
	tcfdNarrativeMinLen = 100
)

// ScoreTCFD scores a TCFD assessment on the 0-100 scale.
func ScoreTCFD(assessment *models.TCFDAssessment, sector string) *models.ScoreResult {
	var score float64
	pillars := make(map[string]float64, 4)
	var recs []string

	gov := scoreTCFDGovernance(assessment.Governance)
	pillars["governance"] = gov
	score += gov
	recs = append(recs, pillarRecommendation("Governance", gov, tcfdGovernanceMax, assessment.Governance == nil)...)

	strat := scoreTCFDStrategy(assessment.Strategy)
	pillars["strategy"] = strat
	score += strat
	recs = append(recs, pillarRecommendation("Strategy", strat, tcfdStrategyMax, assessment.Strategy == nil)...)

	risk := scoreTCFDRiskManagement(assessment.RiskManagement)
	pillars["risk_management"] = risk
	score += risk
	recs = append(recs, pillarRecommendation("Risk Management", risk, tcfdRiskManagementMax, assessment.RiskManagement == nil)...)

	metrics := scoreTCFDMetricsTargets(assessment.MetricsTargets)
	pillars["metrics_targets"] = metrics
	score += metrics
	recs = append(recs, pillarRecommendation("Metrics and Targets", metrics, tcfdMetricsTargetsMax, assessment.MetricsTargets == nil)...)

	recs = append(recs, SectorRecommendations(sector)...)

	return &models.ScoreResult{
		Framework:       models.FrameworkTCFD,
		OverallScore:    score,
		Scale:           "0-100",
		PillarScores:    pillars,
		Recommendations: validation.Dedup(recs),
	}
}

func scoreTCFDGovernance(g *models.TCFDGovernance) float64 {
	if g == nil {
		return 0
	}
	var score float64
	if present(g.BoardOversight) {
		score += 8
	}
	if present(g.ManagementResponsibility) {
		score += 8
	}
	if present(g.ClimateCompetency) {
		score += 6
	}
	if len(g.BoardOversight)+len(g.ManagementResponsibility)+len(g.ClimateCompetency) > tcfdNarrativeMinLen {
		score += tcfdNarrativeBonus
	}
	return score
}

func scoreTCFDStrategy(s *models.TCFDStrategy) float64 {
	if s == nil {
		return 0
	}
	var score float64
	if present(s.ClimateRisks) {
		score += 8
	}
	if present(s.Opportunities) {
		score += 7
	}
	if present(s.ScenarioAnalysis) {
		score += 8
	}
	if present(s.TimeHorizons) {
		score += 4
	}
	if len(s.ClimateRisks)+len(s.Opportunities)+len(s.ScenarioAnalysis)+len(s.TimeHorizons) > tcfdNarrativeMinLen {
		score += tcfdNarrativeBonus
	}
	return score
}

func scoreTCFDRiskManagement(r *models.TCFDRiskManagement) float64 {
	if r == nil {
		return 0
	}
	var score float64
	if present(r.IdentificationProcess) {
		score += 8
	}
	if present(r.ManagementProcess) {
		score += 8
	}
	if present(r.ERMIntegration) {
		score += 6
	}
	if len(r.IdentificationProcess)+len(r.ManagementProcess)+len(r.ERMIntegration) > tcfdNarrativeMinLen {
		score += tcfdNarrativeBonus
	}
	return score
}

func scoreTCFDMetricsTargets(m *models.TCFDMetricsTargets) float64 {
	if m == nil {
		return 0
	}
	var score float64
	if present(m.MetricsDisclosed) {
		score += 7
	}
	if present(m.ScopeEmissions) {
		score += 6
	}
	if present(m.Targets) {
		score += 4
	}
	if len(m.MetricsDisclosed)+len(m.ScopeEmissions)+len(m.Targets) > tcfdNarrativeMinLen {
		score += tcfdNarrativeBonus
	}
	return score
}

// pillarRecommendation emits a recommendation for a weak or absent pillar.
// An absent pillar gets an "implement" recommendation instead of a low-score one.
func pillarRecommendation(name string, score, max float64, absent bool) []string {
	if absent {
		return []string{fmt.Sprintf("Implement %s disclosures: no information has been provided for this pillar", name)}
	}
	if score < max*tcfdWeakPillarShare {
		return []string{fmt.Sprintf("Strengthen %s disclosures to cover all recommended elements", name)}
	}
	return nil
}
