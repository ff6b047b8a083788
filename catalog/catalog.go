// Package catalog generates skeleton data points from fixed per-framework
// standards catalogs. Generated points carry no value yet; they exist so a
// project starts from the metric set its frameworks expect.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"esg-compliance-service/models"
)

// Frameworks with a generation catalog.
const (
	FrameworkGRI  = "GRI"
	FrameworkSASB = "SASB"
	FrameworkTCFD = "TCFD"
	FrameworkCSRD = "CSRD"
)

const skeletonConfidence = 0.5

// entry is one catalog row; it becomes a PENDING data point with no value.
type entry struct {
	Category    models.Category
	Subcategory string
	MetricName  string
	MetricCode  string
	Unit        string
}

// griCatalog covers the topic standards the validation rules know how to
// check: energy (302), water (303), emissions (305), waste (306),
// employment (401) and diversity (405).
var griCatalog = []entry{
	{models.CategoryEnvironmental, "Energy", "Energy consumption within the organization", "GRI_302_1", "MWh"},
	{models.CategoryEnvironmental, "Water", "Water withdrawal", "GRI_303_3", "m3"},
	{models.CategoryEnvironmental, "Emissions", "Direct (Scope 1) GHG emissions", "GRI_305_1", "tCO2e"},
	{models.CategoryEnvironmental, "Emissions", "Energy indirect (Scope 2) GHG emissions", "GRI_305_2", "tCO2e"},
	{models.CategoryEnvironmental, "Emissions", "Other indirect (Scope 3) GHG emissions", "GRI_305_3", "tCO2e"},
	{models.CategoryEnvironmental, "Waste", "Waste generated", "GRI_306_3", "tonnes"},
	{models.CategorySocial, "Employment", "New employee hires and employee turnover", "GRI_401_1", "%"},
	{models.CategorySocial, "Diversity", "Diversity of governance bodies and employees", "GRI_405_1", "%"},
}

// sasbCatalog keys industry-specific metric sets by a lowercase marker
// matched against the sector hint.
var sasbCatalog = map[string][]entry{
	"software": {
		{models.CategorySocial, "Data Security", "Number of data breaches", "TC_DATA_SECURITY", "count"},
		{models.CategoryEnvironmental, "Energy", "Total energy consumption", "TC_ENERGY_USE", "MWh"},
		{models.CategorySocial, "Workforce", "Employee turnover rate", "TC_EMPLOYEE_TURNOVER", "%"},
	},
	"banking": {
		{models.CategoryGovernance, "Climate Risk", "Exposure to climate-related risks", "FN_CLIMATE_RISK", "USD millions"},
		{models.CategorySocial, "Inclusion", "Percentage of unbanked population served", "FN_FINANCIAL_INCLUSION", "%"},
		{models.CategorySocial, "Lending", "Loans to diverse-owned businesses", "FN_DIVERSE_LENDING", "%"},
	},
	"pharma": {
		{models.CategorySocial, "Pricing", "Average price increase percentage", "HC_DRUG_PRICING", "%"},
		{models.CategorySocial, "Clinical Trials", "Diversity in clinical trials", "HC_CLINICAL_TRIALS", "%"},
		{models.CategorySocial, "Access", "Patients in access programs", "HC_DRUG_ACCESS", "count"},
	},
}

// tcfdCatalog is the cross-industry metric set from the Metrics & Targets
// pillar.
var tcfdCatalog = []entry{
	{models.CategoryEnvironmental, "Emissions", "Scope 1 GHG emissions", "TCFD_SCOPE1_EMISSIONS", "tCO2e"},
	{models.CategoryEnvironmental, "Emissions", "Scope 2 GHG emissions", "TCFD_SCOPE2_EMISSIONS", "tCO2e"},
	{models.CategoryEnvironmental, "Emissions", "Scope 3 GHG emissions", "TCFD_SCOPE3_EMISSIONS", "tCO2e"},
	{models.CategoryEnvironmental, "Climate", "Internal carbon price", "TCFD_CARBON_PRICE", "USD"},
	{models.CategoryGovernance, "Remuneration", "Share of remuneration linked to climate considerations", "TCFD_CLIMATE_REMUNERATION", "%"},
}

// csrdCatalog is the quantitative ESRS datapoint skeleton.
var csrdCatalog = []entry{
	{models.CategoryEnvironmental, "E1 Climate Change", "Gross Scope 1 GHG emissions", "ESRS_E1_6_SCOPE1", "tCO2e"},
	{models.CategoryEnvironmental, "E1 Climate Change", "Total energy consumption", "ESRS_E1_5_ENERGY", "MWh"},
	{models.CategoryEnvironmental, "E3 Water", "Total water consumption", "ESRS_E3_4_WATER", "m3"},
	{models.CategorySocial, "S1 Own Workforce", "Employee turnover rate", "ESRS_S1_6_TURNOVER", "%"},
	{models.CategorySocial, "S1 Own Workforce", "Gender distribution at top management", "ESRS_S1_9_DIVERSITY", "%"},
	{models.CategoryGovernance, "G1 Business Conduct", "Confirmed incidents of corruption", "ESRS_G1_4_CORRUPTION", "count"},
}

var frameworkCatalogs = map[string][]entry{
	FrameworkGRI:  griCatalog,
	FrameworkTCFD: tcfdCatalog,
	FrameworkCSRD: csrdCatalog,
}

// Generate builds skeleton data points for a project from the requested
// frameworks plus the SASB industry metrics matching the sector hint.
// Unknown framework names are rejected.
func Generate(projectID string, frameworks []string, sector string, year int) ([]models.DataPoint, error) {
	var entries []entry
	for _, framework := range frameworks {
		name := strings.ToUpper(strings.TrimSpace(framework))
		switch name {
		case FrameworkGRI, FrameworkTCFD, FrameworkCSRD:
			entries = append(entries, frameworkCatalogs[name]...)
		case FrameworkSASB:
			entries = append(entries, sasbEntries(sector)...)
		default:
			return nil, fmt.Errorf("unknown framework %q", framework)
		}
	}

	now := time.Now().UTC()
	points := make([]models.DataPoint, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.MetricCode] {
			continue
		}
		seen[e.MetricCode] = true
		points = append(points, models.DataPoint{
			ID:               uuid.New().String(),
			ProjectID:        projectID,
			Category:         e.Category,
			Subcategory:      e.Subcategory,
			MetricName:       e.MetricName,
			MetricCode:       e.MetricCode,
			Value:            nil,
			Unit:             e.Unit,
			Year:             year,
			Period:           models.PeriodAnnual,
			Confidence:       skeletonConfidence,
			ValidationStatus: models.StatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	return points, nil
}

// sasbEntries matches the sector hint against the industry markers. SASB
// without a recognized sector contributes nothing rather than guessing an
// industry.
func sasbEntries(sector string) []entry {
	s := strings.ToLower(sector)
	for marker, entries := range sasbCatalog {
		if strings.Contains(s, marker) {
			return entries
		}
	}
	switch {
	case strings.Contains(s, "technology") || strings.Contains(s, "it services"):
		return sasbCatalog["software"]
	case strings.Contains(s, "financial"):
		return sasbCatalog["banking"]
	case strings.Contains(s, "pharmaceutical") || strings.Contains(s, "healthcare"):
		return sasbCatalog["pharma"]
	}
	return nil
}
