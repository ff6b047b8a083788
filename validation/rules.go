package validation

import (
	"fmt"
	"math"
	"strings"

	"esg-compliance-service/models"
)

// Penalties charged per failing rule. The running score starts at 1.0 and each
// failure subtracts its penalty; the validator clamps the final score to [0,1].
const (
	penaltyRequired     = 0.3
	penaltyEmission     = 0.2
	penaltyEnergy       = 0.15
	penaltyWater        = 0.1
	penaltySocialPct    = 0.1
	penaltyGovernance   = 0.15
	penaltyPercentUnit  = 0.1
	penaltyCurrencyUnit = 0.05
	penaltyCountUnit    = 0.05
)

// Upper bounds for category-specific range rules.
const (
	maxEmissionValue = 10_000_000 // tCO2e
	maxEnergyValue   = 1_000_000_000
	maxWaterValue    = 100_000_000
)

// EvaluateRules runs the REQUIRED, RANGE and FORMAT rule classes against one
// data point. Rules whose preconditions don't match the metric are omitted
// entirely rather than reported as passed.
func EvaluateRules(dp *models.DataPoint) []models.ValidationRule {
	rules := []models.ValidationRule{requiredRule(dp)}
	rules = append(rules, rangeRules(dp)...)
	rules = append(rules, formatRules(dp)...)
	return rules
}

func requiredRule(dp *models.DataPoint) models.ValidationRule {
	rule := models.ValidationRule{
		Type:        models.RuleRequired,
		Description: "Metric value must be present",
		Severity:    models.SeverityHigh,
		Penalty:     penaltyRequired,
		Passed:      dp.Value != nil,
	}
	if !rule.Passed {
		rule.Message = fmt.Sprintf("No value reported for %s", dp.MetricName)
	}
	return rule
}

func rangeRules(dp *models.DataPoint) []models.ValidationRule {
	if dp.Value == nil {
		return nil
	}
	code := strings.ToLower(dp.MetricCode)
	value := *dp.Value

	var rules []models.ValidationRule
	switch dp.Category {
	case models.CategoryEnvironmental:
		if isEmissionCode(code) {
			rules = append(rules, boundedRule(value, 0, maxEmissionValue, penaltyEmission, models.SeverityHigh,
				fmt.Sprintf("Emission metric %s must be between 0 and %d", dp.MetricCode, maxEmissionValue)))
		}
		if strings.Contains(code, "energy") {
			rules = append(rules, boundedRule(value, 0, maxEnergyValue, penaltyEnergy, models.SeverityMedium,
				fmt.Sprintf("Energy metric %s must be between 0 and %d", dp.MetricCode, maxEnergyValue)))
		}
		if strings.Contains(code, "water") {
			rules = append(rules, boundedRule(value, 0, maxWaterValue, penaltyWater, models.SeverityMedium,
				fmt.Sprintf("Water metric %s must be between 0 and %d", dp.MetricCode, maxWaterValue)))
		}
	case models.CategorySocial:
		if strings.Contains(code, "turnover") || strings.Contains(code, "diversity") {
			rules = append(rules, boundedRule(value, 0, 100, penaltySocialPct, models.SeverityMedium,
				fmt.Sprintf("Percentage metric %s must be between 0 and 100", dp.MetricCode)))
		}
	case models.CategoryGovernance:
		if strings.Contains(code, "independence") || strings.Contains(code, "board") {
			rules = append(rules, boundedRule(value, 0, 100, penaltyGovernance, models.SeverityMedium,
				fmt.Sprintf("Governance metric %s must be between 0 and 100", dp.MetricCode)))
		}
	}
	return rules
}

func boundedRule(value, min, max, penalty float64, severity models.Severity, description string) models.ValidationRule {
	rule := models.ValidationRule{
		Type:        models.RuleRange,
		Description: description,
		Severity:    severity,
		Penalty:     penalty,
		Passed:      value >= min && value <= max,
	}
	if !rule.Passed {
		rule.Message = fmt.Sprintf("Value %g is outside the expected range [%g, %g]", value, min, max)
	}
	return rule
}

// isEmissionCode reports whether a lowercased metric code denotes a GHG
// emission metric. GRI 305 is the emissions disclosure series.
func isEmissionCode(code string) bool {
	return strings.Contains(code, "emission") || strings.Contains(code, "ghg") || strings.Contains(code, "305")
}

var currencyMarkers = []string{"usd", "eur", "gbp", "$", "€", "£"}

func formatRules(dp *models.DataPoint) []models.ValidationRule {
	if dp.Value == nil || dp.Unit == "" {
		return nil
	}
	unit := strings.ToLower(dp.Unit)
	value := *dp.Value

	var rules []models.ValidationRule
	if strings.Contains(unit, "%") || strings.Contains(unit, "percent") {
		rule := models.ValidationRule{
			Type:        models.RuleFormat,
			Description: "Percentage units require a value between 0 and 100",
			Severity:    models.SeverityMedium,
			Penalty:     penaltyPercentUnit,
			Passed:      value >= 0 && value <= 100,
		}
		if !rule.Passed {
			rule.Message = fmt.Sprintf("Value %g is not a valid percentage", value)
		}
		rules = append(rules, rule)
	}
	for _, marker := range currencyMarkers {
		if strings.Contains(unit, marker) {
			rule := models.ValidationRule{
				Type:        models.RuleFormat,
				Description: "Currency units require a non-negative value",
				Severity:    models.SeverityLow,
				Penalty:     penaltyCurrencyUnit,
				Passed:      value >= 0,
			}
			if !rule.Passed {
				rule.Message = fmt.Sprintf("Currency value %g cannot be negative", value)
			}
			rules = append(rules, rule)
			break
		}
	}
	if unit == "count" || unit == "number" || unit == "headcount" {
		rule := models.ValidationRule{
			Type:        models.RuleFormat,
			Description: "Count units require a non-negative integer",
			Severity:    models.SeverityLow,
			Penalty:     penaltyCountUnit,
			Passed:      value >= 0 && value == math.Trunc(value),
		}
		if !rule.Passed {
			rule.Message = fmt.Sprintf("Value %g is not a non-negative integer", value)
		}
		rules = append(rules, rule)
	}
	return rules
}

// recommendationFor maps a failed rule to a human-readable recommendation.
// Duplicate strings are removed by the validator.
func recommendationFor(rule models.ValidationRule) string {
	switch rule.Type {
	case models.RuleRequired:
		return "Provide a value for this metric or mark it as not applicable"
	case models.RuleRange:
		return "Review the reported value against the expected range for this metric"
	case models.RuleFormat:
		return "Check that the value matches the declared unit format"
	case models.RuleConsistency:
		return "Cross-check this value against related records and prior reporting periods"
	case models.RuleCompleteness:
		return "Complete the missing supporting fields (source, unit, period)"
	}
	return "Review this data point with the reporting team"
}
