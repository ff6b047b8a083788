package taxonomy

import (
	"testing"

	"esg-compliance-service/models"
)

func TestMapTagKnownConcept(t *testing.T) {
	tag := MapTag(models.XBRLTag{Concept: "esg:GHGScope1Emissions", Value: "1200"})

	if tag.Concept != "esg:GHGScope1Emissions" {
		t.Errorf("concept = %q, want canonical id", tag.Concept)
	}
	if tag.UnitRef != "tCO2e" {
		t.Errorf("unitRef = %q, want default tCO2e", tag.UnitRef)
	}
}

func TestMapTagKeepsExplicitUnit(t *testing.T) {
	tag := MapTag(models.XBRLTag{Concept: "esg:TotalEnergyConsumption", UnitRef: "pure", Value: "0.4"})

	if tag.UnitRef != "pure" {
		t.Errorf("unitRef = %q, an explicit unit must not be overwritten", tag.UnitRef)
	}
}

func TestMapTagUnknownConceptPassesThrough(t *testing.T) {
	in := models.XBRLTag{Concept: "custom:LocalMetric", UnitRef: "", Value: "7"}
	out := MapTag(in)

	if out != in {
		t.Errorf("MapTag(%+v) = %+v, unknown concepts must pass through unchanged", in, out)
	}
}

func TestMapTagsPreservesOrder(t *testing.T) {
	tags := MapTags([]models.XBRLTag{
		{Concept: "esg:WaterWithdrawal", Value: "100"},
		{Concept: "custom:Unknown", Value: "1"},
		{Concept: "esg:BoardIndependenceRatio", Value: "60"},
	})

	if len(tags) != 3 {
		t.Fatalf("got %d tags, want 3", len(tags))
	}
	if tags[0].UnitRef != "m3" || tags[2].UnitRef != "pure" {
		t.Errorf("default units not applied in order: %+v", tags)
	}
	if tags[1].Concept != "custom:Unknown" {
		t.Errorf("unknown concept mutated: %+v", tags[1])
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("esg:GHGScope3Emissions"); !ok {
		t.Error("expected esg:GHGScope3Emissions in the taxonomy")
	}
	if _, ok := Lookup("esg:NoSuchConcept"); ok {
		t.Error("unexpected hit for an undefined concept")
	}
	c, _ := Lookup("esg:TCFDGovernanceDisclosure")
	if c.DataType != "string" || c.DefaultUnit != "" {
		t.Errorf("narrative concept = %+v, want string type with no default unit", c)
	}
}
