package validation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"esg-compliance-service/models"

	"github.com/apex/log"
)

// Heuristic thresholds for cross-record checks. Tunable constants carried
// over from the source platform, not load-bearing business rules.
const (
	emissionDominanceFactor = 2.0
	yoyChangeThresholdPct   = 50.0
	penaltyConsistency      = 0.1
)

// SiblingReader is the read-only view of stored data points the consistency
// checker needs. The full repository satisfies it.
type SiblingReader interface {
	// ListSiblings returns data points in the same project, year and category,
	// excluding the given id.
	ListSiblings(ctx context.Context, projectID string, year int, category models.Category, excludeID string) ([]models.DataPoint, error)
	// FindPriorYear returns the same-metric data point from year-1, or nil.
	FindPriorYear(ctx context.Context, projectID, metricCode string, year int) (*models.DataPoint, error)
}

// ConsistencyChecker cross-references a data point against sibling records.
type ConsistencyChecker struct {
	store SiblingReader
}

func NewConsistencyChecker(store SiblingReader) *ConsistencyChecker {
	return &ConsistencyChecker{store: store}
}

// Check returns the consistency rule outcomes for dp. Storage failures are
// swallowed: consistency checking degrades to "no issues found" rather than
// blocking validation.
func (c *ConsistencyChecker) Check(ctx context.Context, dp *models.DataPoint) []models.ValidationRule {
	if dp.Value == nil {
		return nil
	}

	var rules []models.ValidationRule

	siblings, err := c.store.ListSiblings(ctx, dp.ProjectID, dp.Year, dp.Category, dp.ID)
	if err != nil {
		log.Warnf("Consistency check skipped for %s: sibling lookup failed: %v", dp.ID, err)
	} else if rule := emissionDominanceRule(dp, siblings); rule != nil {
		rules = append(rules, *rule)
	}

	prior, err := c.store.FindPriorYear(ctx, dp.ProjectID, dp.MetricCode, dp.Year)
	if err != nil {
		log.Warnf("Consistency check skipped for %s: prior-year lookup failed: %v", dp.ID, err)
	} else if rule := yearOverYearRule(dp, prior); rule != nil {
		rules = append(rules, *rule)
	}

	return rules
}

// emissionDominanceRule flags an emission-coded value that exceeds twice the
// sum of all other emission-coded values in the same category and year.
func emissionDominanceRule(dp *models.DataPoint, siblings []models.DataPoint) *models.ValidationRule {
	if !isEmissionCode(strings.ToLower(dp.MetricCode)) {
		return nil
	}

	var sum float64
	var counted int
	for _, s := range siblings {
		if s.Value == nil || !isEmissionCode(strings.ToLower(s.MetricCode)) {
			continue
		}
		sum += *s.Value
		counted++
	}
	if counted == 0 {
		return nil
	}

	rule := models.ValidationRule{
		Type:        models.RuleConsistency,
		Description: "Emission value should be consistent with other emission records in the same category and year",
		Severity:    models.SeverityMedium,
		Penalty:     penaltyConsistency,
		Passed:      *dp.Value <= emissionDominanceFactor*sum,
	}
	if !rule.Passed {
		rule.Message = fmt.Sprintf("Value %g exceeds %gx the sum of related emission values (%g)", *dp.Value, emissionDominanceFactor, sum)
	}
	return &rule
}

// yearOverYearRule flags a change of more than 50% against the prior year's
// value for the identical metric code.
func yearOverYearRule(dp *models.DataPoint, prior *models.DataPoint) *models.ValidationRule {
	if prior == nil || prior.Value == nil || *prior.Value == 0 {
		return nil
	}

	changePct := math.Abs((*dp.Value-*prior.Value)/(*prior.Value)) * 100
	rule := models.ValidationRule{
		Type:        models.RuleConsistency,
		Description: "Year-over-year change should stay within expected bounds",
		Severity:    models.SeverityMedium,
		Penalty:     penaltyConsistency,
		Passed:      changePct <= yoyChangeThresholdPct,
	}
	if !rule.Passed {
		rule.Message = fmt.Sprintf("Value changed %.1f%% versus %d, above the %.0f%% threshold", changePct, dp.Year-1, yoyChangeThresholdPct)
	}
	return &rule
}
