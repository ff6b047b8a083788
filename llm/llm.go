package llm

import (
	"context"

	"esg-compliance-service/models"
)

// NarrativeRequest carries the project context a provider needs to draft
// disclosure report sections.
type NarrativeRequest struct {
	ProjectID        string
	OrganizationName string
	Sector           string
	Frameworks       []string
	DataPoints       []models.DataPoint
	Sections         []string // optional custom section list
}

// NarrativeGenerator abstracts the narrative provider used by the report
// orchestrator. Implementations must be concurrency-safe if used across
// goroutines.
type NarrativeGenerator interface {
	// GenerateNarrative returns a single JSON string per the report section
	// schema the parser expects.
	GenerateNarrative(ctx context.Context, req NarrativeRequest) (string, error)
	// SourceName returns a short provider label persisted with the report
	// (e.g., "ChatGPT", "Stub").
	SourceName() string
}
