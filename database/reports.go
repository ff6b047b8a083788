package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"esg-compliance-service/models"
)

// CreateReport assigns the next version for the project and stores the
// report in one transaction. The report_heads row is locked FOR UPDATE so
// concurrent generations for the same project serialize and versions stay
// strictly increasing with no gaps.
func (d *Database) CreateReport(ctx context.Context, report *models.Report) error {
	sections, err := json.Marshal(report.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal report sections: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO report_heads (project_id, last_version) VALUES (?, 0)`,
		report.ProjectID); err != nil {
		return fmt.Errorf("failed to ensure report head: %w", err)
	}

	var lastVersion int
	if err := tx.QueryRowContext(ctx,
		`SELECT last_version FROM report_heads WHERE project_id = ? FOR UPDATE`,
		report.ProjectID).Scan(&lastVersion); err != nil {
		return fmt.Errorf("failed to lock report head: %w", err)
	}

	report.Version = lastVersion + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO esg_reports (id, project_id, version, sections, xbrl_document, provider, model, fallback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.ProjectID, report.Version, sections, report.XBRLDocument,
		report.Meta.Provider, report.Meta.Model, report.Meta.Fallback); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE report_heads SET last_version = ? WHERE project_id = ?`,
		report.Version, report.ProjectID); err != nil {
		return fmt.Errorf("failed to advance report head: %w", err)
	}

	return tx.Commit()
}

// GetReport fetches one report by id.
func (d *Database) GetReport(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT id, project_id, version, sections, xbrl_document, provider, model, fallback, created_at
		FROM esg_reports WHERE id = ?`

	var report models.Report
	var sections []byte
	var xbrl sql.NullString
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID, &report.ProjectID, &report.Version, &sections, &xbrl,
		&report.Meta.Provider, &report.Meta.Model, &report.Meta.Fallback, &report.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}

	if err := json.Unmarshal(sections, &report.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report sections: %w", err)
	}
	if xbrl.Valid {
		report.XBRLDocument = xbrl.String
	}
	report.Meta.GeneratedAt = report.CreatedAt
	return &report, nil
}
