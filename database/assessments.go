package database

import (
	"context"
	"database/sql"
	"fmt"

	"esg-compliance-service/models"
)

// UpsertAssessment stores an assessment payload for a project+framework,
// fully replacing any previous payload. Partial merges are deliberately not
// supported; the payload column always holds exactly what was last saved.
func (d *Database) UpsertAssessment(ctx context.Context, a *models.FrameworkAssessment) error {
	query := `INSERT INTO framework_assessments (project_id, framework, sector, payload)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE sector = VALUES(sector), payload = VALUES(payload)`

	_, err := d.db.ExecContext(ctx, query, a.ProjectID, a.Framework, a.Sector, []byte(a.Payload))
	if err != nil {
		return fmt.Errorf("failed to upsert %s assessment for project %s: %w", a.Framework, a.ProjectID, err)
	}
	return nil
}

// GetAssessment fetches the stored assessment for a project+framework.
func (d *Database) GetAssessment(ctx context.Context, projectID, framework string) (*models.FrameworkAssessment, error) {
	query := `SELECT project_id, framework, sector, payload, updated_at
		FROM framework_assessments WHERE project_id = ? AND framework = ?`

	var a models.FrameworkAssessment
	var payload []byte
	err := d.db.QueryRowContext(ctx, query, projectID, framework).Scan(
		&a.ProjectID, &a.Framework, &a.Sector, &payload, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s assessment for project %s: %w", framework, projectID, err)
	}

	a.Payload = payload
	return &a, nil
}
