package parser

import (
	"encoding/json"
	"testing"

	"esg-compliance-service/models"
)

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{
			name:     "plain JSON",
			response: `{"sections": []}`,
			expected: `{"sections": []}`,
		},
		{
			name:     "fenced with language",
			response: "```json\n{\"sections\": []}\n```",
			expected: `{"sections": []}`,
		},
		{
			name:     "fenced without language",
			response: "```\n{\"sections\": []}\n```",
			expected: `{"sections": []}`,
		},
		{
			name:     "JSON with surrounding prose",
			response: "Here is the report:\n{\"sections\": []}\nLet me know if you need more.",
			expected: `{"sections": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSONFromMarkdown(tt.response)
			if got != tt.expected {
				t.Errorf("ExtractJSONFromMarkdown() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseSections(t *testing.T) {
	response := "```json\n" + `{
		"sections": [
			{
				"title": "Executive Summary",
				"content": "Scope 1 emissions were 1200.5 tCO2e in 2025.",
				"standard_references": ["GRI 305-1"],
				"evidence_references": ["ev-4821", "ev-9003"],
				"xbrl_tags": [
					{"concept": "esg:GHGScope1Emissions", "value": "1200.5", "unit_ref": "tCO2e", "decimals": 1}
				]
			},
			{
				"title": "Governance",
				"content": "The board oversees climate risk quarterly.",
				"standard_references": ["TCFD Governance"],
				"xbrl_tags": []
			}
		]
	}` + "\n```"

	sections, err := ParseSections(response)
	if err != nil {
		t.Fatalf("ParseSections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if sections[0].Title != "Executive Summary" {
		t.Errorf("title = %q", sections[0].Title)
	}
	if len(sections[0].EvidenceReferences) != 2 || sections[0].EvidenceReferences[0] != "ev-4821" {
		t.Errorf("evidence references = %v", sections[0].EvidenceReferences)
	}
	if len(sections[0].XBRLTags) != 1 {
		t.Fatalf("got %d tags, want 1", len(sections[0].XBRLTags))
	}
	tag := sections[0].XBRLTags[0]
	if tag.Concept != "esg:GHGScope1Emissions" || tag.Value != "1200.5" || tag.UnitRef != "tCO2e" {
		t.Errorf("tag = %+v", tag)
	}
	if tag.Decimals == nil || *tag.Decimals != 1 {
		t.Errorf("decimals = %v, want 1", tag.Decimals)
	}
}

func TestParseSectionsSchemaValidation(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not JSON", "the model refused to answer"},
		{"no sections", `{"sections": []}`},
		{"missing title", `{"sections": [{"title": "", "content": "text"}]}`},
		{"missing content", `{"sections": [{"title": "Summary", "content": ""}]}`},
		{"tag without concept", `{"sections": [{"title": "S", "content": "c", "xbrl_tags": [{"concept": "", "value": "1"}]}]}`},
		{"tag without value", `{"sections": [{"title": "S", "content": "c", "xbrl_tags": [{"concept": "esg:WaterWithdrawal", "value": ""}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSections(tt.response); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseAssessmentValidJSON(t *testing.T) {
	payload, err := ParseAssessment(models.FrameworkTCFD, "```json\n{\"governance\": {\"board_oversight\": \"quarterly reviews\"}}\n```")
	if err != nil {
		t.Fatalf("ParseAssessment: %v", err)
	}

	var assessment models.TCFDAssessment
	if err := json.Unmarshal(payload, &assessment); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if assessment.Governance == nil || assessment.Governance.BoardOversight != "quarterly reviews" {
		t.Errorf("assessment = %+v", assessment)
	}
}

func TestParseAssessmentKeywordFallback(t *testing.T) {
	text := "The board reviews sustainability matters twice a year. " +
		"Climate strategy work includes scenario planning. " +
		"Physical risk exposure is assessed annually. " +
		"Scope 1 emission metrics are tracked monthly."

	payload, err := ParseAssessment(models.FrameworkTCFD, text)
	if err != nil {
		t.Fatalf("ParseAssessment: %v", err)
	}

	var assessment models.TCFDAssessment
	if err := json.Unmarshal(payload, &assessment); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if assessment.Governance == nil {
		t.Error("expected board sentence routed to governance")
	}
	if assessment.Strategy == nil {
		t.Error("expected strategy sentence routed to strategy")
	}
	if assessment.RiskManagement == nil {
		t.Error("expected risk sentence routed to risk management")
	}
	if assessment.MetricsTargets == nil {
		t.Error("expected metrics sentence routed to metrics and targets")
	}
}

func TestFallbackAssessmentSkeletons(t *testing.T) {
	for _, framework := range []string{models.FrameworkCSRD, models.FrameworkISSB, models.FrameworkCompliance} {
		payload, err := FallbackAssessment(framework, "free text without structure")
		if err != nil {
			t.Fatalf("FallbackAssessment(%s): %v", framework, err)
		}
		if !json.Valid(payload) {
			t.Errorf("FallbackAssessment(%s) produced invalid JSON", framework)
		}
	}

	if _, err := FallbackAssessment("unknown", "text"); err == nil {
		t.Error("expected an error for an unknown framework")
	}
}
