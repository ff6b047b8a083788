package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"esg-compliance-service/llm"
	"esg-compliance-service/models"
	"esg-compliance-service/stubllm"
)

type fakeStore struct {
	points      []models.DataPoint
	saved       *models.Report
	listErr     error
	createErr   error
	nextVersion int
}

func (s *fakeStore) ListDataPoints(_ context.Context, _ string) ([]models.DataPoint, error) {
	return s.points, s.listErr
}

func (s *fakeStore) CreateReport(_ context.Context, report *models.Report) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.nextVersion == 0 {
		s.nextVersion = 1
	}
	report.Version = s.nextVersion
	s.saved = report
	return nil
}

type failingGenerator struct{}

func (failingGenerator) GenerateNarrative(context.Context, llm.NarrativeRequest) (string, error) {
	return "", errors.New("provider unavailable")
}

func (failingGenerator) SourceName() string { return "Failing" }

type garbageGenerator struct{}

func (garbageGenerator) GenerateNarrative(context.Context, llm.NarrativeRequest) (string, error) {
	return "I am sorry, I cannot help with that.", nil
}

func (garbageGenerator) SourceName() string { return "Garbage" }

func floatPtr(v float64) *float64 { return &v }

func TestGenerateFallsBackOnProviderError(t *testing.T) {
	store := &fakeStore{}
	o := NewOrchestrator(store, failingGenerator{}, nil, "", time.Second)

	report, err := o.Generate(context.Background(), GenerateRequest{
		ProjectID:        "proj-1",
		OrganizationName: "Acme",
	})
	if err != nil {
		t.Fatalf("Generate must not fail on provider errors, got: %v", err)
	}

	if len(report.Sections) != 3 {
		t.Fatalf("got %d sections, want exactly 3 fallback sections", len(report.Sections))
	}
	wantTitles := []string{"Executive Summary", "Scope & Boundaries", "Materiality Assessment"}
	for i, want := range wantTitles {
		if report.Sections[i].Title != want {
			t.Errorf("section %d title = %q, want %q", i, report.Sections[i].Title, want)
		}
		if len(report.Sections[i].XBRLTags) != 0 {
			t.Errorf("section %d has %d tags, fallback sections carry none", i, len(report.Sections[i].XBRLTags))
		}
	}
	if !report.Meta.Fallback {
		t.Error("meta.fallback = false, want true")
	}
	if store.saved == nil {
		t.Error("fallback report was not persisted")
	}
}

func TestGenerateFallsBackOnUnparsableOutput(t *testing.T) {
	store := &fakeStore{}
	o := NewOrchestrator(store, garbageGenerator{}, nil, "", time.Second)

	report, err := o.Generate(context.Background(), GenerateRequest{ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(report.Sections) != 3 || !report.Meta.Fallback {
		t.Errorf("sections = %d, fallback = %v; want the 3-section fallback", len(report.Sections), report.Meta.Fallback)
	}
}

func TestGenerateWithStubProvider(t *testing.T) {
	store := &fakeStore{
		points: []models.DataPoint{{
			ID: "dp-1", ProjectID: "proj-1", Category: models.CategoryEnvironmental,
			MetricName: "Scope 1 emissions", MetricCode: "GRI_305_1",
			Value: floatPtr(1200.5), Unit: "tCO2e", Year: 2025,
		}},
		nextVersion: 3,
	}
	o := NewOrchestrator(store, stubllm.NewClient(), nil, "", time.Second)

	report, err := o.Generate(context.Background(), GenerateRequest{
		ProjectID:        "proj-1",
		OrganizationName: "Acme",
		IncludeXBRL:      true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if report.Meta.Fallback {
		t.Error("stub output should parse without fallback")
	}
	if report.Meta.Provider != "Stub" {
		t.Errorf("provider = %q, want Stub", report.Meta.Provider)
	}
	if report.Version != 3 {
		t.Errorf("version = %d, want the store-assigned 3", report.Version)
	}
	if len(report.Sections) == 0 {
		t.Fatal("no sections")
	}
	// The stub tags the first section with a Scope 1 fact; it must survive
	// taxonomy mapping and appear in the assembled document.
	if len(report.Sections[0].XBRLTags) != 1 {
		t.Fatalf("first section tags = %d, want 1", len(report.Sections[0].XBRLTags))
	}
	if report.XBRLDocument == "" {
		t.Fatal("includeXBRL did not produce a document")
	}
	if !strings.Contains(report.XBRLDocument, "esg:GHGScope1Emissions") {
		t.Errorf("document missing the emission fact:\n%s", report.XBRLDocument)
	}
}

func TestGenerateSkipsXBRLUnlessRequested(t *testing.T) {
	store := &fakeStore{}
	o := NewOrchestrator(store, stubllm.NewClient(), nil, "", time.Second)

	report, err := o.Generate(context.Background(), GenerateRequest{ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.XBRLDocument != "" {
		t.Error("XBRL document assembled without includeXBRL")
	}
}

func TestGenerateFailsOnPersistenceError(t *testing.T) {
	store := &fakeStore{createErr: errors.New("db down")}
	o := NewOrchestrator(store, stubllm.NewClient(), nil, "", time.Second)

	if _, err := o.Generate(context.Background(), GenerateRequest{ProjectID: "proj-1"}); err == nil {
		t.Error("expected persistence errors to surface")
	}
}

func TestGenerateCustomSections(t *testing.T) {
	store := &fakeStore{}
	o := NewOrchestrator(store, stubllm.NewClient(), nil, "", time.Second)

	report, err := o.Generate(context.Background(), GenerateRequest{
		ProjectID: "proj-1",
		Sections:  []string{"Climate Transition Plan", "Workforce"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(report.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(report.Sections))
	}
	if report.Sections[0].Title != "Climate Transition Plan" {
		t.Errorf("title = %q", report.Sections[0].Title)
	}
}

type evidenceGenerator struct{}

func (evidenceGenerator) GenerateNarrative(context.Context, llm.NarrativeRequest) (string, error) {
	return `{
		"sections": [
			{
				"title": "Environmental Performance",
				"content": "Emissions fell year over year.",
				"evidence_references": ["ev-1", "ev-2", "ev-3"],
				"xbrl_tags": []
			},
			{
				"title": "Governance",
				"content": "Board oversight is established.",
				"evidence_references": ["ev-2"],
				"xbrl_tags": []
			}
		]
	}`, nil
}

func (evidenceGenerator) SourceName() string { return "Evidence" }

func TestGenerateCarriesEvidenceReferences(t *testing.T) {
	store := &fakeStore{}
	o := NewOrchestrator(store, evidenceGenerator{}, nil, "", time.Second)

	report, err := o.Generate(context.Background(), GenerateRequest{ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := report.Sections[0].EvidenceReferences; len(got) != 3 {
		t.Errorf("evidence references = %v, want all three kept without a subset", got)
	}
}

func TestGenerateFiltersEvidenceToRequestedSubset(t *testing.T) {
	store := &fakeStore{}
	o := NewOrchestrator(store, evidenceGenerator{}, nil, "", time.Second)

	report, err := o.Generate(context.Background(), GenerateRequest{
		ProjectID:   "proj-1",
		EvidenceIDs: []string{"ev-2", "ev-9"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	first := report.Sections[0].EvidenceReferences
	if len(first) != 1 || first[0] != "ev-2" {
		t.Errorf("section 0 evidence = %v, want [ev-2]", first)
	}
	second := report.Sections[1].EvidenceReferences
	if len(second) != 1 || second[0] != "ev-2" {
		t.Errorf("section 1 evidence = %v, want [ev-2]", second)
	}
	if store.saved.Sections[0].EvidenceReferences[0] != "ev-2" {
		t.Error("filtered references were not the ones persisted")
	}
}
