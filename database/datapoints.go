package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"esg-compliance-service/models"
)

const dataPointColumns = `id, project_id, category, subcategory, metric_name, metric_code,
		value, unit, year, period, data_source, confidence, validation_status, metadata,
		created_at, updated_at`

// InsertDataPoints stores a batch of data points in one transaction.
func (d *Database) InsertDataPoints(ctx context.Context, points []models.DataPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO esg_data_points
		(id, project_id, category, subcategory, metric_name, metric_code,
		 value, unit, year, period, data_source, confidence, validation_status, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, p := range points {
		metadata, err := marshalMetadata(p.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			p.ID, p.ProjectID, p.Category, p.Subcategory, p.MetricName, p.MetricCode,
			p.Value, p.Unit, p.Year, p.Period, p.DataSource, p.Confidence,
			p.ValidationStatus, metadata); err != nil {
			return fmt.Errorf("failed to insert data point %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetDataPoint fetches one data point by id.
func (d *Database) GetDataPoint(ctx context.Context, id string) (*models.DataPoint, error) {
	query := `SELECT ` + dataPointColumns + ` FROM esg_data_points WHERE id = ?`

	p, err := scanDataPoint(d.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data point %s: %w", id, err)
	}
	return p, nil
}

// ListDataPoints returns all data points of a project ordered by creation.
func (d *Database) ListDataPoints(ctx context.Context, projectID string) ([]models.DataPoint, error) {
	query := `SELECT ` + dataPointColumns + ` FROM esg_data_points
		WHERE project_id = ? ORDER BY created_at, id`

	rows, err := d.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list data points: %w", err)
	}
	defer rows.Close()

	return collectDataPoints(rows)
}

// ListSiblings returns data points in the same project, year and category,
// excluding the given id.
func (d *Database) ListSiblings(ctx context.Context, projectID string, year int, category models.Category, excludeID string) ([]models.DataPoint, error) {
	query := `SELECT ` + dataPointColumns + ` FROM esg_data_points
		WHERE project_id = ? AND year = ? AND category = ? AND id != ?`

	rows, err := d.db.QueryContext(ctx, query, projectID, year, category, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list siblings: %w", err)
	}
	defer rows.Close()

	return collectDataPoints(rows)
}

// FindPriorYear returns the same-metric data point from year-1, or nil when
// no prior-year record exists.
func (d *Database) FindPriorYear(ctx context.Context, projectID, metricCode string, year int) (*models.DataPoint, error) {
	query := `SELECT ` + dataPointColumns + ` FROM esg_data_points
		WHERE project_id = ? AND metric_code = ? AND year = ? LIMIT 1`

	p, err := scanDataPoint(d.db.QueryRowContext(ctx, query, projectID, metricCode, year-1))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find prior year point: %w", err)
	}
	return p, nil
}

// SaveValidation persists a validation outcome back onto the data point row.
func (d *Database) SaveValidation(ctx context.Context, id string, result *models.ValidationResult) error {
	snapshot, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal validation result: %w", err)
	}

	query := `UPDATE esg_data_points
		SET validation_status = ?, confidence = ?, validation = ?
		WHERE id = ?`

	res, err := d.db.ExecContext(ctx, query, result.Status, result.Confidence, snapshot, id)
	if err != nil {
		return fmt.Errorf("failed to save validation for %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataPoint(row rowScanner) (*models.DataPoint, error) {
	var p models.DataPoint
	var value sql.NullFloat64
	var metadata sql.NullString

	err := row.Scan(&p.ID, &p.ProjectID, &p.Category, &p.Subcategory, &p.MetricName,
		&p.MetricCode, &value, &p.Unit, &p.Year, &p.Period, &p.DataSource,
		&p.Confidence, &p.ValidationStatus, &metadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if value.Valid {
		v := value.Float64
		p.Value = &v
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func collectDataPoints(rows *sql.Rows) ([]models.DataPoint, error) {
	var points []models.DataPoint
	for rows.Next() {
		p, err := scanDataPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data point: %w", err)
		}
		points = append(points, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate data points: %w", err)
	}
	return points, nil
}

func marshalMetadata(metadata map[string]string) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
