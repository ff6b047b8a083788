package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"esg-compliance-service/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	d    *Database
)

func setUp() {
	db, mock, _ = sqlmock.New()
	d = NewWithDB(db)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func floatPtr(v float64) *float64 { return &v }

func dataPointRows(points ...models.DataPoint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "project_id", "category", "subcategory", "metric_name", "metric_code",
		"value", "unit", "year", "period", "data_source", "confidence",
		"validation_status", "metadata", "created_at", "updated_at",
	})
	for _, p := range points {
		var value any
		if p.Value != nil {
			value = *p.Value
		}
		rows.AddRow(p.ID, p.ProjectID, p.Category, p.Subcategory, p.MetricName,
			p.MetricCode, value, p.Unit, p.Year, p.Period, p.DataSource,
			p.Confidence, p.ValidationStatus, nil, time.Now(), time.Now())
	}
	return rows
}

func TestInsertDataPoints(t *testing.T) {
	it(func() {
		points := []models.DataPoint{
			{
				ID: "dp-1", ProjectID: "proj-1", Category: models.CategoryEnvironmental,
				MetricName: "Direct GHG emissions", MetricCode: "GRI_305_1",
				Value: floatPtr(1200.5), Unit: "tCO2e", Year: 2025,
				Period: models.PeriodAnnual, Confidence: 0.8,
				ValidationStatus: models.StatusPending,
			},
			{
				ID: "dp-2", ProjectID: "proj-1", Category: models.CategorySocial,
				MetricName: "Employee turnover", MetricCode: "GRI_401_1",
				Value: floatPtr(14), Unit: "%", Year: 2025,
				Period: models.PeriodAnnual, Confidence: 0.5,
				ValidationStatus: models.StatusPending,
			},
		}

		mock.ExpectBegin()
		for range points {
			mock.ExpectExec("INSERT INTO esg_data_points").
				WillReturnResult(sqlmock.NewResult(1, 1))
		}
		mock.ExpectCommit()

		if err := d.InsertDataPoints(context.Background(), points); err != nil {
			t.Errorf("InsertDataPoints: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestInsertDataPointsRollsBackOnFailure(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO esg_data_points").
			WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()

		err := d.InsertDataPoints(context.Background(), []models.DataPoint{{ID: "dp-1"}})
		if err == nil {
			t.Error("expected an error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetDataPointNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM esg_data_points WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := d.GetDataPoint(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestListSiblings(t *testing.T) {
	it(func() {
		sibling := models.DataPoint{
			ID: "dp-2", ProjectID: "proj-1", Category: models.CategoryEnvironmental,
			MetricName: "Scope 2 emissions", MetricCode: "GRI_305_2",
			Value: floatPtr(300), Unit: "tCO2e", Year: 2025, Period: models.PeriodAnnual,
			Confidence: 0.8, ValidationStatus: models.StatusValidated,
		}

		mock.ExpectQuery("SELECT (.+) FROM esg_data_points\\s+WHERE project_id = \\? AND year = \\? AND category = \\? AND id != \\?").
			WithArgs("proj-1", 2025, models.CategoryEnvironmental, "dp-1").
			WillReturnRows(dataPointRows(sibling))

		siblings, err := d.ListSiblings(context.Background(), "proj-1", 2025, models.CategoryEnvironmental, "dp-1")
		if err != nil {
			t.Fatalf("ListSiblings: %v", err)
		}
		if len(siblings) != 1 || siblings[0].ID != "dp-2" {
			t.Errorf("siblings = %+v", siblings)
		}
		if siblings[0].Value == nil || *siblings[0].Value != 300 {
			t.Errorf("sibling value = %v, want 300", siblings[0].Value)
		}
	})
}

func TestFindPriorYearQueriesPreviousYear(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM esg_data_points\\s+WHERE project_id = \\? AND metric_code = \\? AND year = \\? LIMIT 1").
			WithArgs("proj-1", "GRI_305_1", 2024).
			WillReturnError(sql.ErrNoRows)

		prior, err := d.FindPriorYear(context.Background(), "proj-1", "GRI_305_1", 2025)
		if err != nil {
			t.Fatalf("FindPriorYear: %v", err)
		}
		if prior != nil {
			t.Errorf("prior = %+v, want nil when no record exists", prior)
		}
	})
}

func TestSaveValidation(t *testing.T) {
	it(func() {
		result := &models.ValidationResult{
			DataPointID: "dp-1",
			Status:      models.StatusReview,
			Confidence:  0.65,
		}

		mock.ExpectExec("UPDATE esg_data_points\\s+SET validation_status = \\?, confidence = \\?, validation = \\?\\s+WHERE id = \\?").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := d.SaveValidation(context.Background(), "dp-1", result); err != nil {
			t.Errorf("SaveValidation: %v", err)
		}
	})
}

func TestSaveValidationMissingRow(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE esg_data_points").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := d.SaveValidation(context.Background(), "missing", &models.ValidationResult{})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestUpsertAssessmentReplacesPayload(t *testing.T) {
	it(func() {
		assessment := &models.FrameworkAssessment{
			ProjectID: "proj-1",
			Framework: models.FrameworkTCFD,
			Sector:    "energy",
			Payload:   json.RawMessage(`{"governance":{"board_oversight":"quarterly"}}`),
		}

		mock.ExpectExec("INSERT INTO framework_assessments \\(project_id, framework, sector, payload\\)\\s+VALUES \\(\\?, \\?, \\?, \\?\\)\\s+ON DUPLICATE KEY UPDATE sector = VALUES\\(sector\\), payload = VALUES\\(payload\\)").
			WithArgs("proj-1", models.FrameworkTCFD, "energy", []byte(assessment.Payload)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		if err := d.UpsertAssessment(context.Background(), assessment); err != nil {
			t.Errorf("UpsertAssessment: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetAssessmentNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM framework_assessments").
			WithArgs("proj-1", models.FrameworkCSRD).
			WillReturnError(sql.ErrNoRows)

		_, err := d.GetAssessment(context.Background(), "proj-1", models.FrameworkCSRD)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestCreateReportAssignsNextVersion(t *testing.T) {
	it(func() {
		report := &models.Report{
			ID:        "rep-1",
			ProjectID: "proj-1",
			Sections:  []models.ReportSection{{Title: "Executive Summary", Content: "text"}},
			Meta:      models.GeneratorMeta{Provider: "Stub"},
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT IGNORE INTO report_heads").
			WithArgs("proj-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT last_version FROM report_heads WHERE project_id = \\? FOR UPDATE").
			WithArgs("proj-1").
			WillReturnRows(sqlmock.NewRows([]string{"last_version"}).AddRow(4))
		mock.ExpectExec("INSERT INTO esg_reports").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE report_heads SET last_version = \\? WHERE project_id = \\?").
			WithArgs(5, "proj-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := d.CreateReport(context.Background(), report); err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		if report.Version != 5 {
			t.Errorf("version = %d, want 5", report.Version)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestCreateReportFirstVersion(t *testing.T) {
	it(func() {
		report := &models.Report{ID: "rep-1", ProjectID: "proj-new"}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT IGNORE INTO report_heads").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT last_version FROM report_heads").
			WillReturnRows(sqlmock.NewRows([]string{"last_version"}).AddRow(0))
		mock.ExpectExec("INSERT INTO esg_reports").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE report_heads SET last_version").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := d.CreateReport(context.Background(), report); err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		if report.Version != 1 {
			t.Errorf("version = %d, want 1", report.Version)
		}
	})
}

func TestGetReport(t *testing.T) {
	it(func() {
		sections, _ := json.Marshal([]models.ReportSection{{Title: "Governance", Content: "text"}})
		mock.ExpectQuery("SELECT (.+) FROM esg_reports WHERE id = ?").
			WithArgs("rep-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "project_id", "version", "sections", "xbrl_document",
				"provider", "model", "fallback", "created_at",
			}).AddRow("rep-1", "proj-1", 3, sections, "<xbrl/>", "ChatGPT", "gpt-4o", false, time.Now()))

		report, err := d.GetReport(context.Background(), "rep-1")
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if report.Version != 3 || len(report.Sections) != 1 || report.XBRLDocument != "<xbrl/>" {
			t.Errorf("report = %+v", report)
		}
	})
}
