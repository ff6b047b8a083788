package validation

import (
	"context"
	"time"

	"esg-compliance-service/models"
)

// Status thresholds on the clamped 0-1 score.
const (
	rejectBelow = 0.4
	reviewBelow = 0.7
)

const (
	penaltyMissingSource = 0.05
	penaltyMissingUnit   = 0.1
	penaltyMissingPeriod = 0.05
)

// Validator orchestrates rule evaluation, consistency checks and completeness
// checks into one validation result.
type Validator struct {
	consistency *ConsistencyChecker
}

func NewValidator(store SiblingReader) *Validator {
	return &Validator{consistency: NewConsistencyChecker(store)}
}

// Validate runs the full auto-validation pipeline against one data point.
func (v *Validator) Validate(ctx context.Context, dp *models.DataPoint) *models.ValidationResult {
	rules := EvaluateRules(dp)
	rules = append(rules, v.consistency.Check(ctx, dp)...)
	rules = append(rules, completenessRules(dp)...)

	score := 1.0
	var recommendations []string
	for _, rule := range rules {
		if rule.Passed {
			continue
		}
		score -= rule.Penalty
		recommendations = append(recommendations, recommendationFor(rule))
	}
	score = clamp01(score)

	return &models.ValidationResult{
		DataPointID:     dp.ID,
		Rules:           rules,
		OverallScore:    score,
		Confidence:      score,
		Recommendations: Dedup(recommendations),
		Status:          statusFor(score),
		ValidatedAt:     time.Now().UTC(),
	}
}

func completenessRules(dp *models.DataPoint) []models.ValidationRule {
	checks := []struct {
		missing     bool
		description string
		message     string
		severity    models.Severity
		penalty     float64
	}{
		{dp.DataSource == "", "A data source should be recorded", "No data source recorded", models.SeverityLow, penaltyMissingSource},
		{dp.Unit == "", "A unit of measure should be recorded", "No unit recorded", models.SeverityMedium, penaltyMissingUnit},
		{dp.Period == "", "A reporting period should be recorded", "No reporting period recorded", models.SeverityLow, penaltyMissingPeriod},
	}

	rules := make([]models.ValidationRule, 0, len(checks))
	for _, check := range checks {
		rule := models.ValidationRule{
			Type:        models.RuleCompleteness,
			Description: check.description,
			Severity:    check.severity,
			Penalty:     check.penalty,
			Passed:      !check.missing,
		}
		if check.missing {
			rule.Message = check.message
		}
		rules = append(rules, rule)
	}
	return rules
}

func statusFor(score float64) models.ValidationStatus {
	switch {
	case score < rejectBelow:
		return models.StatusRejected
	case score < reviewBelow:
		return models.StatusReview
	default:
		return models.StatusValidated
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Dedup removes duplicate strings preserving first-seen order.
func Dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
