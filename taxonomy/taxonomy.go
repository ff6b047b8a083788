// Package taxonomy maps internal ESG concept keys onto the canonical
// disclosure taxonomy used by the instance-document assembler.
package taxonomy

import (
	"github.com/apex/log"

	"esg-compliance-service/models"
)

// Concept is one entry of the disclosure taxonomy: the canonical concept id,
// its display label, declared data type and default unit reference.
type Concept struct {
	ID          string
	Label       string
	DataType    string
	DefaultUnit string
}

// concepts is the static lookup table keyed by internal concept key. The
// quantitative entries cover the metrics the validation rules know about;
// the narrative entries cover TCFD and ESRS disclosure texts.
var concepts = map[string]Concept{
	"esg:GHGScope1Emissions": {ID: "esg:GHGScope1Emissions", Label: "Scope 1 GHG emissions", DataType: "decimal", DefaultUnit: "tCO2e"},
	"esg:GHGScope2Emissions": {ID: "esg:GHGScope2Emissions", Label: "Scope 2 GHG emissions", DataType: "decimal", DefaultUnit: "tCO2e"},
	"esg:GHGScope3Emissions": {ID: "esg:GHGScope3Emissions", Label: "Scope 3 GHG emissions", DataType: "decimal", DefaultUnit: "tCO2e"},
	"esg:TotalEnergyConsumption": {ID: "esg:TotalEnergyConsumption", Label: "Total energy consumption", DataType: "decimal", DefaultUnit: "MWh"},
	"esg:RenewableEnergyShare":   {ID: "esg:RenewableEnergyShare", Label: "Renewable energy share", DataType: "decimal", DefaultUnit: "pure"},
	"esg:WaterWithdrawal":        {ID: "esg:WaterWithdrawal", Label: "Total water withdrawal", DataType: "decimal", DefaultUnit: "m3"},
	"esg:WaterDischarge":         {ID: "esg:WaterDischarge", Label: "Total water discharge", DataType: "decimal", DefaultUnit: "m3"},
	"esg:WasteGenerated":         {ID: "esg:WasteGenerated", Label: "Total waste generated", DataType: "decimal", DefaultUnit: "tCO2e"},
	"esg:EmployeeTurnoverRate":   {ID: "esg:EmployeeTurnoverRate", Label: "Employee turnover rate", DataType: "decimal", DefaultUnit: "pure"},
	"esg:GenderDiversityRatio":   {ID: "esg:GenderDiversityRatio", Label: "Gender diversity ratio", DataType: "decimal", DefaultUnit: "pure"},
	"esg:TrainingHoursPerEmployee": {ID: "esg:TrainingHoursPerEmployee", Label: "Average training hours per employee", DataType: "decimal", DefaultUnit: "hours"},
	"esg:LostTimeIncidentRate":     {ID: "esg:LostTimeIncidentRate", Label: "Lost time incident rate", DataType: "decimal", DefaultUnit: "pure"},
	"esg:BoardIndependenceRatio":   {ID: "esg:BoardIndependenceRatio", Label: "Board independence ratio", DataType: "decimal", DefaultUnit: "pure"},
	"esg:BoardGenderDiversity":     {ID: "esg:BoardGenderDiversity", Label: "Board gender diversity", DataType: "decimal", DefaultUnit: "pure"},
	"esg:TCFDGovernanceDisclosure":     {ID: "esg:TCFDGovernanceDisclosure", Label: "TCFD governance disclosure", DataType: "string"},
	"esg:TCFDStrategyDisclosure":       {ID: "esg:TCFDStrategyDisclosure", Label: "TCFD strategy disclosure", DataType: "string"},
	"esg:TCFDRiskManagementDisclosure": {ID: "esg:TCFDRiskManagementDisclosure", Label: "TCFD risk management disclosure", DataType: "string"},
	"esg:ESRSClimateDisclosure":        {ID: "esg:ESRSClimateDisclosure", Label: "ESRS E1 climate change disclosure", DataType: "string"},
	"esg:ESRSWorkforceDisclosure":      {ID: "esg:ESRSWorkforceDisclosure", Label: "ESRS S1 own workforce disclosure", DataType: "string"},
	"esg:ESRSGovernanceDisclosure":     {ID: "esg:ESRSGovernanceDisclosure", Label: "ESRS G1 business conduct disclosure", DataType: "string"},
	"esg:DoubleMaterialityStatement":   {ID: "esg:DoubleMaterialityStatement", Label: "Double materiality statement", DataType: "string"},
}

// Lookup returns the taxonomy entry for an internal concept key.
func Lookup(concept string) (Concept, bool) {
	c, ok := concepts[concept]
	return c, ok
}

// MapTag overlays the canonical concept id onto a tag and fills a missing
// unitRef from the table default. Unknown concepts pass through unchanged;
// that degradation is logged so unmapped tags are never dropped silently.
func MapTag(tag models.XBRLTag) models.XBRLTag {
	c, ok := concepts[tag.Concept]
	if !ok {
		log.Warnf("Concept %q not in taxonomy, passing tag through unmapped", tag.Concept)
		return tag
	}
	tag.Concept = c.ID
	if tag.UnitRef == "" {
		tag.UnitRef = c.DefaultUnit
	}
	return tag
}

// MapTags applies MapTag to every tag of a section, preserving order.
func MapTags(tags []models.XBRLTag) []models.XBRLTag {
	if len(tags) == 0 {
		return tags
	}
	mapped := make([]models.XBRLTag, len(tags))
	for i, tag := range tags {
		mapped[i] = MapTag(tag)
	}
	return mapped
}
