package scoring

import (
	"fmt"
	"sort"
	"time"

	"esg-compliance-service/models"
	"esg-compliance-service/validation"
)

// CSRD section point budgets. They partition 100 points:
// Double Materiality 25, ESRS Reporting 35, Sector Specific 20,
// Due Diligence 15, Datapoints 5.
const (
	csrdDoubleMaterialityMax = 25.0
	csrdESRSMax              = 35.0
	csrdSectorMax            = 20.0
	csrdDueDiligenceMax      = 15.0
	csrdDatapointsMax        = 5.0

	// Datapoint coverage is measured on an internal 0-10 scale, 2 points per
	// supplied datapoint, then scaled into the 5-point budget.
	csrdDatapointStep  = 2.0
	csrdDatapointScale = 10.0
)

// The ten ESRS standards a CSRD report is expected to cover.
var esrsStandards = []string{"E1", "E2", "E3", "E4", "E5", "S1", "S2", "S3", "S4", "G1"}

// ScoreCSRD scores a CSRD assessment on the 0-100 scale and produces the
// structured gap analysis.
func ScoreCSRD(assessment *models.CSRDAssessment, sector string) *models.ScoreResult {
	var score float64
	pillars := make(map[string]float64, 5)
	var recs []string
	var criticalGaps []string

	dm := scoreCSRDDoubleMateriality(assessment.DoubleMateriality)
	pillars["double_materiality"] = dm
	score += dm
	if assessment.DoubleMateriality == nil {
		criticalGaps = append(criticalGaps, "No double materiality assessment has been performed")
		recs = append(recs, "Conduct a double materiality assessment covering impact and financial materiality")
	} else if dm < csrdDoubleMaterialityMax {
		recs = append(recs, "Complete the double materiality assessment across all three dimensions")
	}

	esrs := scoreCSRDESRS(assessment.ESRSReporting)
	pillars["esrs_reporting"] = esrs
	score += esrs
	if assessment.ESRSReporting == nil || len(assessment.ESRSReporting.Disclosures) == 0 {
		criticalGaps = append(criticalGaps, "No ESRS standard disclosures have been prepared")
		recs = append(recs, "Prepare disclosures for the applicable ESRS standards (E1-E5, S1-S4, G1)")
	} else {
		for _, std := range esrsStandards {
			if !present(assessment.ESRSReporting.Disclosures[std]) {
				recs = append(recs, fmt.Sprintf("Prepare the ESRS %s disclosure", std))
			}
		}
	}

	sec := scoreCSRDSector(assessment.SectorSpecific)
	pillars["sector_specific"] = sec
	score += sec
	if assessment.SectorSpecific == nil {
		criticalGaps = append(criticalGaps, "Sector-specific reporting requirements have not been identified")
		recs = append(recs, "Identify the applicable sector and prepare sector-specific disclosures")
	}

	dd := scoreCSRDDueDiligence(assessment.DueDiligence)
	pillars["due_diligence"] = dd
	score += dd
	if assessment.DueDiligence == nil {
		criticalGaps = append(criticalGaps, "No sustainability due diligence process is documented")
		recs = append(recs, "Document the sustainability due diligence process including value-chain coverage")
	}

	dp := scoreCSRDDatapoints(assessment.Datapoints)
	pillars["datapoints"] = dp
	score += dp
	if len(assessment.Datapoints) == 0 {
		criticalGaps = append(criticalGaps, "No quantitative ESRS datapoints have been collected")
		recs = append(recs, "Start collecting the quantitative datapoints required by the applicable ESRS standards")
	}

	recs = append(recs, SectorRecommendations(sector)...)
	recs = validation.Dedup(recs)

	return &models.ScoreResult{
		Framework:       models.FrameworkCSRD,
		OverallScore:    score,
		Scale:           "0-100",
		PillarScores:    pillars,
		Recommendations: recs,
		GapAnalysis: &models.GapAnalysis{
			CriticalGaps:           criticalGaps,
			Recommendations:        recs,
			ImplementationTimeline: csrdTimeline(criticalGaps),
		},
	}
}

func scoreCSRDDoubleMateriality(dm *models.CSRDDoubleMateriality) float64 {
	if dm == nil {
		return 0
	}
	var score float64
	if present(dm.ImpactMateriality) {
		score += 9
	}
	if present(dm.FinancialMateriality) {
		score += 9
	}
	if present(dm.StakeholderEngagement) {
		score += 7
	}
	return score
}

func scoreCSRDESRS(esrs *models.CSRDESRSReporting) float64 {
	if esrs == nil {
		return 0
	}
	perStandard := csrdESRSMax / float64(len(esrsStandards))
	var score float64
	for _, std := range esrsStandards {
		if present(esrs.Disclosures[std]) {
			score += perStandard
		}
	}
	return score
}

func scoreCSRDSector(s *models.CSRDSectorSpecific) float64 {
	if s == nil {
		return 0
	}
	var score float64
	if present(s.Sector) {
		score += 8
	}
	if present(s.Disclosures) {
		score += 12
	}
	return score
}

func scoreCSRDDueDiligence(dd *models.CSRDDueDiligence) float64 {
	if dd == nil {
		return 0
	}
	var score float64
	if present(dd.Process) {
		score += 9
	}
	if present(dd.ValueChainCoverage) {
		score += 6
	}
	return score
}

func scoreCSRDDatapoints(datapoints []models.CSRDDatapoint) float64 {
	raw := float64(len(datapoints)) * csrdDatapointStep
	if raw > csrdDatapointScale {
		raw = csrdDatapointScale
	}
	return raw / csrdDatapointScale * csrdDatapointsMax
}

// csrdTimeline builds a dated milestone plan from the critical gaps, sorted
// ascending by target date.
func csrdTimeline(criticalGaps []string) []models.Milestone {
	now := time.Now().UTC()
	milestones := []models.Milestone{
		{Date: now.AddDate(0, 3, 0), Description: "Complete the double materiality assessment and stakeholder mapping"},
		{Date: now.AddDate(0, 6, 0), Description: "Draft disclosures for the material ESRS standards"},
		{Date: now.AddDate(0, 9, 0), Description: "Implement quantitative datapoint collection processes"},
		{Date: now.AddDate(1, 0, 0), Description: "Complete an audit-ready CSRD disclosure dry run"},
	}
	if len(criticalGaps) > 3 {
		milestones = append(milestones, models.Milestone{
			Date:        now.AddDate(0, 1, 0),
			Description: "Establish CSRD programme governance and assign section owners",
		})
	}
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].Date.Before(milestones[j].Date) })
	return milestones
}
