// Package report orchestrates disclosure report generation: narrative via the
// configured provider, taxonomy enhancement, versioned persistence and
// optional instance-document assembly.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"esg-compliance-service/llm"
	"esg-compliance-service/metrics"
	"esg-compliance-service/models"
	"esg-compliance-service/parser"
	"esg-compliance-service/rabbitmq"
	"esg-compliance-service/taxonomy"
	"esg-compliance-service/xbrl"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	ListDataPoints(ctx context.Context, projectID string) ([]models.DataPoint, error)
	CreateReport(ctx context.Context, report *models.Report) error
}

// GenerateRequest describes one report generation.
type GenerateRequest struct {
	ProjectID        string
	OrganizationName string
	Sector           string
	Frameworks       []string
	Sections         []string // optional custom section list
	EvidenceIDs      []string // optional subset; section evidence references outside it are dropped
	IncludeXBRL      bool
}

// Orchestrator generates and persists disclosure reports. Provider failures
// never fail generation; the fallback report is substituted instead.
type Orchestrator struct {
	store     Store
	generator llm.NarrativeGenerator
	publisher *rabbitmq.Publisher
	model     string
	timeout   time.Duration
}

func NewOrchestrator(store Store, generator llm.NarrativeGenerator, publisher *rabbitmq.Publisher, model string, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:     store,
		generator: generator,
		publisher: publisher,
		model:     model,
		timeout:   timeout,
	}
}

// Generate produces the next report version for a project.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (*models.Report, error) {
	start := time.Now()

	points, err := o.store.ListDataPoints(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project data points: %w", err)
	}

	sections, fallback := o.narrativeSections(ctx, req, points)

	// Re-validate and enhance every tag through the taxonomy before the
	// sections are persisted.
	for i := range sections {
		sections[i].XBRLTags = taxonomy.MapTags(sections[i].XBRLTags)
		sections[i].EvidenceReferences = filterEvidence(sections[i].EvidenceReferences, req.EvidenceIDs)
	}

	now := time.Now().UTC()
	report := &models.Report{
		ID:        uuid.New().String(),
		ProjectID: req.ProjectID,
		Sections:  sections,
		Meta: models.GeneratorMeta{
			Provider:    o.generator.SourceName(),
			Model:       o.model,
			Fallback:    fallback,
			GeneratedAt: now,
		},
		CreatedAt: now,
	}

	if req.IncludeXBRL {
		report.XBRLDocument = xbrl.NewAssembler(req.OrganizationName, now).Assemble(sections)
	}

	if err := o.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	outcome := "generated"
	if fallback {
		outcome = "fallback"
	}
	metrics.ReportsGeneratedTotal.WithLabelValues(outcome).Inc()
	metrics.ReportDurationSeconds.Observe(time.Since(start).Seconds())

	o.publishGenerated(report)
	return report, nil
}

// narrativeSections invokes the provider under the configured timeout and
// parses its output. Any provider or parse failure yields the fixed
// three-section fallback report.
func (o *Orchestrator) narrativeSections(ctx context.Context, req GenerateRequest, points []models.DataPoint) ([]models.ReportSection, bool) {
	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	response, err := o.generator.GenerateNarrative(genCtx, llm.NarrativeRequest{
		ProjectID:        req.ProjectID,
		OrganizationName: req.OrganizationName,
		Sector:           req.Sector,
		Frameworks:       req.Frameworks,
		DataPoints:       points,
		Sections:         req.Sections,
	})
	if err != nil {
		log.Warnf("Narrative generation failed for project %s, using fallback report: %v", req.ProjectID, err)
		metrics.NarrativeFallbacksTotal.Inc()
		return FallbackSections(), true
	}

	sections, err := parser.ParseSections(response)
	if err != nil {
		log.Warnf("Narrative output unparsable for project %s, using fallback report: %v", req.ProjectID, err)
		metrics.NarrativeFallbacksTotal.Inc()
		return FallbackSections(), true
	}

	return sections, false
}

// filterEvidence restricts a section's evidence references to the requested
// subset. An empty subset keeps everything the provider referenced.
func filterEvidence(refs, allowed []string) []string {
	if len(allowed) == 0 || len(refs) == 0 {
		return refs
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = true
	}
	kept := refs[:0]
	for _, ref := range refs {
		if allowedSet[ref] {
			kept = append(kept, ref)
		}
	}
	return kept
}

func (o *Orchestrator) publishGenerated(report *models.Report) {
	if o.publisher == nil {
		return
	}
	event := rabbitmq.ReportGeneratedEvent{
		ReportID:  report.ID,
		ProjectID: report.ProjectID,
		Version:   report.Version,
		Fallback:  report.Meta.Fallback,
		Timestamp: time.Now().UTC(),
	}
	if err := o.publisher.Publish(rabbitmq.RouteReportGenerated, event); err != nil {
		log.Warnf("Failed to publish report.generated for %s: %v", report.ID, err)
	}
}

// FallbackSections is the deterministic report used when the narrative
// provider fails or returns unparsable output. Three sections, no tags.
func FallbackSections() []models.ReportSection {
	return []models.ReportSection{
		{
			Title: "Executive Summary",
			Content: "This report presents the organization's environmental, social and " +
				"governance performance for the reporting period. Narrative generation was " +
				"unavailable; disclosures are limited to the standard skeleton pending regeneration.",
			StandardReferences: []string{"GRI 2"},
			XBRLTags:           []models.XBRLTag{},
		},
		{
			Title: "Scope & Boundaries",
			Content: "The reporting boundary covers all entities under operational control. " +
				"Data is reported for the most recent complete fiscal year unless stated otherwise.",
			StandardReferences: []string{"GRI 2-2"},
			XBRLTags:           []models.XBRLTag{},
		},
		{
			Title: "Materiality Assessment",
			Content: "Material topics were identified through stakeholder engagement and " +
				"impact analysis. The assessment will be elaborated in the next report revision.",
			StandardReferences: []string{"GRI 3"},
			XBRLTags:           []models.XBRLTag{},
		},
	}
}
