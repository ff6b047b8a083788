package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"esg-compliance-service/models"
)

// narrativePayload is the section schema the narrative provider returns.
type narrativePayload struct {
	Sections []sectionPayload `json:"sections"`
}

type sectionPayload struct {
	Title              string       `json:"title"`
	Content            string       `json:"content"`
	StandardReferences []string     `json:"standard_references"`
	EvidenceReferences []string     `json:"evidence_references"`
	XBRLTags           []tagPayload `json:"xbrl_tags"`
}

type tagPayload struct {
	Concept  string `json:"concept"`
	Value    string `json:"value"`
	UnitRef  string `json:"unit_ref"`
	Decimals *int   `json:"decimals"`
}

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks
func ExtractJSONFromMarkdown(response string) string {
	// Look for JSON code blocks with ``` markers
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	// Extract content between the markers
	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseSections parses the narrative provider response into report sections,
// validating it against the section schema.
func ParseSections(response string) ([]models.ReportSection, error) {
	jsonContent := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	var payload narrativePayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(payload.Sections) == 0 {
		return nil, errors.New("response contains no sections")
	}

	sections := make([]models.ReportSection, 0, len(payload.Sections))
	for i, s := range payload.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("section %d: title is required", i)
		}
		if strings.TrimSpace(s.Content) == "" {
			return nil, fmt.Errorf("section %d (%s): content is required", i, s.Title)
		}

		section := models.ReportSection{
			Title:              s.Title,
			Content:            s.Content,
			StandardReferences: s.StandardReferences,
			EvidenceReferences: s.EvidenceReferences,
		}
		for j, tag := range s.XBRLTags {
			if strings.TrimSpace(tag.Concept) == "" {
				return nil, fmt.Errorf("section %d tag %d: concept is required", i, j)
			}
			if strings.TrimSpace(tag.Value) == "" {
				return nil, fmt.Errorf("section %d tag %d: value is required", i, j)
			}
			section.XBRLTags = append(section.XBRLTags, models.XBRLTag{
				Concept:  tag.Concept,
				UnitRef:  tag.UnitRef,
				Value:    tag.Value,
				Decimals: tag.Decimals,
			})
		}
		sections = append(sections, section)
	}

	return sections, nil
}

// ParseAssessment parses a provider response as a nested assessment payload
// for the given framework. On unparsable output it falls back to
// keyword-based extraction over the raw text so scope generation never fails
// outright.
func ParseAssessment(framework, response string) (json.RawMessage, error) {
	jsonContent := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	if json.Valid([]byte(jsonContent)) && strings.HasPrefix(jsonContent, "{") {
		return json.RawMessage(jsonContent), nil
	}

	return FallbackAssessment(framework, response)
}

// tcfdKeywords routes free-text sentences to TCFD pillar fields.
var tcfdKeywords = []struct {
	field   string
	markers []string
}{
	{"governance", []string{"board", "oversight", "governance"}},
	{"strategy", []string{"strategy", "scenario", "opportunit"}},
	{"risk_management", []string{"risk"}},
	{"metrics_targets", []string{"metric", "target", "emission"}},
}

// FallbackAssessment builds a skeleton assessment payload from free text by
// keyword extraction. Unmatched text is dropped; an unknown framework yields
// an empty object so the caller still has a valid payload to persist.
func FallbackAssessment(framework, text string) (json.RawMessage, error) {
	switch strings.ToLower(framework) {
	case models.FrameworkTCFD:
		fields := make(map[string][]string)
		for _, sentence := range splitSentences(text) {
			lower := strings.ToLower(sentence)
			for _, kw := range tcfdKeywords {
				if containsAny(lower, kw.markers) {
					fields[kw.field] = append(fields[kw.field], sentence)
					break
				}
			}
		}
		assessment := models.TCFDAssessment{}
		if s := strings.Join(fields["governance"], " "); s != "" {
			assessment.Governance = &models.TCFDGovernance{BoardOversight: s}
		}
		if s := strings.Join(fields["strategy"], " "); s != "" {
			assessment.Strategy = &models.TCFDStrategy{ClimateRisks: s}
		}
		if s := strings.Join(fields["risk_management"], " "); s != "" {
			assessment.RiskManagement = &models.TCFDRiskManagement{IdentificationProcess: s}
		}
		if s := strings.Join(fields["metrics_targets"], " "); s != "" {
			assessment.MetricsTargets = &models.TCFDMetricsTargets{MetricsDisclosed: s}
		}
		return json.Marshal(assessment)
	case models.FrameworkCSRD:
		return json.Marshal(models.CSRDAssessment{})
	case models.FrameworkISSB:
		return json.Marshal(models.ISSBAssessment{})
	case models.FrameworkCompliance:
		return json.Marshal(models.ComplianceAssessment{Framework: framework})
	default:
		return nil, fmt.Errorf("unknown framework %q", framework)
	}
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n' || r == ';'
	})
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
