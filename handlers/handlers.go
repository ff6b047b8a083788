package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"esg-compliance-service/catalog"
	"esg-compliance-service/database"
	"esg-compliance-service/llm"
	"esg-compliance-service/metrics"
	"esg-compliance-service/models"
	"esg-compliance-service/parser"
	"esg-compliance-service/rabbitmq"
	"esg-compliance-service/report"
	"esg-compliance-service/scoring"
	"esg-compliance-service/validation"
)

const maxMetricValue = 1e15

// Store is the persistence surface the handlers need. *database.Database
// satisfies it.
type Store interface {
	validation.SiblingReader
	InsertDataPoints(ctx context.Context, points []models.DataPoint) error
	GetDataPoint(ctx context.Context, id string) (*models.DataPoint, error)
	ListDataPoints(ctx context.Context, projectID string) ([]models.DataPoint, error)
	SaveValidation(ctx context.Context, id string, result *models.ValidationResult) error
	UpsertAssessment(ctx context.Context, a *models.FrameworkAssessment) error
	GetAssessment(ctx context.Context, projectID, framework string) (*models.FrameworkAssessment, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
}

// Handlers represents the HTTP handlers
type Handlers struct {
	store        Store
	validator    *validation.Validator
	orchestrator *report.Orchestrator
	generator    llm.NarrativeGenerator
	publisher    *rabbitmq.Publisher
	scopeTimeout time.Duration
}

// NewHandlers creates new HTTP handlers
func NewHandlers(store Store, validator *validation.Validator, orchestrator *report.Orchestrator,
	generator llm.NarrativeGenerator, publisher *rabbitmq.Publisher, scopeTimeout time.Duration) *Handlers {
	return &Handlers{
		store:        store,
		validator:    validator,
		orchestrator: orchestrator,
		generator:    generator,
		publisher:    publisher,
		scopeTimeout: scopeTimeout,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "esg-compliance-service",
	})
}

// dataPointInput is one row of a bulk ingestion payload.
type dataPointInput struct {
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	MetricName  string            `json:"metric_name"`
	MetricCode  string            `json:"metric_code"`
	Value       *float64          `json:"value"`
	Unit        string            `json:"unit"`
	Year        int               `json:"year"`
	Period      string            `json:"period"`
	DataSource  string            `json:"data_source"`
	Confidence  *float64          `json:"confidence"`
	Metadata    map[string]string `json:"metadata"`
}

type ingestRequest struct {
	DataPoints []dataPointInput `json:"data_points"`
}

type fieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CreateDataPoints handles bulk data point ingestion
func (h *Handlers) CreateDataPoints(c *gin.Context) {
	projectID := c.Param("projectId")

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.DataPoints) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data_points must not be empty"})
		return
	}

	var fieldErrors []fieldError
	now := time.Now().UTC()
	points := make([]models.DataPoint, 0, len(req.DataPoints))
	for i, in := range req.DataPoints {
		point, errs := buildDataPoint(projectID, i, in, now)
		if len(errs) > 0 {
			fieldErrors = append(fieldErrors, errs...)
			continue
		}
		points = append(points, point)
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": fieldErrors})
		return
	}

	if err := h.store.InsertDataPoints(c.Request.Context(), points); err != nil {
		log.Errorf("Failed to insert data points: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store data points"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data_points": points})
}

var validPeriods = map[string]models.Period{
	"annual":    models.PeriodAnnual,
	"quarterly": models.PeriodQuarterly,
	"monthly":   models.PeriodMonthly,
}

var validCategories = map[string]models.Category{
	"environmental": models.CategoryEnvironmental,
	"social":        models.CategorySocial,
	"governance":    models.CategoryGovernance,
}

// buildDataPoint validates one ingestion row and converts it to a model.
func buildDataPoint(projectID string, index int, in dataPointInput, now time.Time) (models.DataPoint, []fieldError) {
	var errs []fieldError
	fail := func(field, message string) {
		errs = append(errs, fieldError{Index: index, Field: field, Message: message})
	}

	category, ok := validCategories[strings.ToLower(strings.TrimSpace(in.Category))]
	if !ok {
		fail("category", "must be one of: environmental, social, governance")
	}

	period, ok := validPeriods[strings.ToLower(strings.TrimSpace(in.Period))]
	if !ok {
		fail("period", "must be one of: annual, quarterly, monthly")
	}

	maxYear := now.Year() + 10
	if in.Year < 2000 || in.Year > maxYear {
		fail("year", fmt.Sprintf("must be between 2000 and %d", maxYear))
	}

	name := strings.TrimSpace(in.MetricName)
	if name == "" {
		fail("metric_name", "is required")
	} else if len(name) > 255 {
		fail("metric_name", "cannot exceed 255 characters")
	}

	if in.Value != nil && math.Abs(*in.Value) > maxMetricValue {
		fail("value", "is out of reasonable range")
	}

	if len(in.Unit) > 50 {
		fail("unit", "cannot exceed 50 characters")
	}

	confidence := 0.5
	if in.Confidence != nil {
		confidence = *in.Confidence
		if confidence < 0 || confidence > 1 {
			fail("confidence", "must be between 0 and 1")
		}
	}

	if len(errs) > 0 {
		return models.DataPoint{}, errs
	}

	return models.DataPoint{
		ID:               uuid.New().String(),
		ProjectID:        projectID,
		Category:         category,
		Subcategory:      strings.TrimSpace(in.Subcategory),
		MetricName:       name,
		MetricCode:       strings.TrimSpace(in.MetricCode),
		Value:            in.Value,
		Unit:             strings.TrimSpace(in.Unit),
		Year:             in.Year,
		Period:           period,
		DataSource:       strings.TrimSpace(in.DataSource),
		Confidence:       confidence,
		ValidationStatus: models.StatusPending,
		Metadata:         in.Metadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type generateRequest struct {
	Frameworks []string `json:"frameworks"`
	Sector     string   `json:"sector"`
	Year       int      `json:"year"`
}

// GenerateDataPoints creates skeleton data points from the standards catalogs
func (h *Handlers) GenerateDataPoints(c *gin.Context) {
	projectID := c.Param("projectId")

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Frameworks) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frameworks must not be empty"})
		return
	}
	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}

	points, err := catalog.Generate(projectID, req.Frameworks, req.Sector, year)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.InsertDataPoints(c.Request.Context(), points); err != nil {
		log.Errorf("Failed to insert generated data points: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store data points"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data_points": points})
}

// ListDataPoints returns all data points of a project
func (h *Handlers) ListDataPoints(c *gin.Context) {
	points, err := h.store.ListDataPoints(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		log.Errorf("Failed to list data points: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list data points"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data_points": points})
}

type validateRequest struct {
	Mode   string                   `json:"mode"` // "auto" (default) or "manual"
	Result *models.ValidationResult `json:"result"`
}

// ValidateDataPoint runs the validation pipeline for one data point, or
// persists a caller-supplied result in manual mode.
func (h *Handlers) ValidateDataPoint(c *gin.Context) {
	id := c.Param("id")

	// An empty body means auto mode.
	var req validateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	dp, err := h.store.GetDataPoint(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Data point not found"})
		return
	}
	if err != nil {
		log.Errorf("Failed to load data point %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data point"})
		return
	}

	var result *models.ValidationResult
	switch strings.ToLower(req.Mode) {
	case "", "auto":
		start := time.Now()
		result = h.validator.Validate(c.Request.Context(), dp)
		metrics.ValidationDurationSeconds.Observe(time.Since(start).Seconds())
	case "manual":
		if req.Result == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "manual mode requires a result"})
			return
		}
		result = req.Result
		result.DataPointID = id
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be auto or manual"})
		return
	}

	if err := h.store.SaveValidation(c.Request.Context(), id, result); err != nil {
		log.Errorf("Failed to save validation for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save validation"})
		return
	}

	metrics.ValidationsTotal.WithLabelValues(string(result.Status)).Inc()
	h.publishValidated(dp, result)

	c.JSON(http.StatusOK, gin.H{
		"result":  result,
		"message": validationMessage(dp, result),
	})
}

func validationMessage(dp *models.DataPoint, result *models.ValidationResult) string {
	switch result.Status {
	case models.StatusValidated:
		return fmt.Sprintf("%s passed validation with score %.2f", dp.MetricName, result.OverallScore)
	case models.StatusReview:
		return fmt.Sprintf("%s needs manual review (score %.2f)", dp.MetricName, result.OverallScore)
	case models.StatusRejected:
		return fmt.Sprintf("%s was rejected (score %.2f)", dp.MetricName, result.OverallScore)
	}
	return fmt.Sprintf("%s validation recorded with status %s", dp.MetricName, result.Status)
}

func (h *Handlers) publishValidated(dp *models.DataPoint, result *models.ValidationResult) {
	if h.publisher == nil {
		return
	}
	event := rabbitmq.DataPointValidatedEvent{
		DataPointID: dp.ID,
		ProjectID:   dp.ProjectID,
		Status:      string(result.Status),
		Score:       result.OverallScore,
		Timestamp:   time.Now().UTC(),
	}
	if err := h.publisher.Publish(rabbitmq.RouteDataPointValidated, event); err != nil {
		log.Warnf("Failed to publish datapoint.validated for %s: %v", dp.ID, err)
	}
}

// GetAssessment returns the stored assessment for a project+framework
func (h *Handlers) GetAssessment(c *gin.Context) {
	framework := strings.ToLower(c.Param("framework"))
	if !validFramework(framework) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "framework must be one of: tcfd, csrd, issb, compliance"})
		return
	}

	assessment, err := h.store.GetAssessment(c.Request.Context(), c.Param("projectId"), framework)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assessment not found"})
		return
	}
	if err != nil {
		log.Errorf("Failed to get assessment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get assessment"})
		return
	}
	c.JSON(http.StatusOK, assessment)
}

type assessmentRequest struct {
	Sector            string          `json:"sector"`
	Payload           json.RawMessage `json:"payload"`
	GenerateFromScope bool            `json:"generate_from_scope"`
}

// UpsertAssessment stores an assessment payload (full replace) and responds
// with the persisted assessment plus the computed score.
func (h *Handlers) UpsertAssessment(c *gin.Context) {
	projectID := c.Param("projectId")
	framework := strings.ToLower(c.Param("framework"))
	if !validFramework(framework) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "framework must be one of: tcfd, csrd, issb, compliance"})
		return
	}

	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	payload := req.Payload
	if req.GenerateFromScope {
		payload = h.generateScopePayload(c.Request.Context(), projectID, framework, req.Sector)
	}
	if len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required unless generate_from_scope is set"})
		return
	}

	score, err := scoreFramework(framework, payload, req.Sector)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment := &models.FrameworkAssessment{
		ProjectID: projectID,
		Framework: framework,
		Sector:    req.Sector,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.store.UpsertAssessment(c.Request.Context(), assessment); err != nil {
		log.Errorf("Failed to upsert assessment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store assessment"})
		return
	}

	metrics.AssessmentsScoredTotal.WithLabelValues(framework).Inc()

	c.JSON(http.StatusOK, gin.H{"assessment": assessment, "score": score})
}

// generateScopePayload invokes the narrative provider for an assessment
// payload. Provider or parse failures degrade to the keyword/skeleton
// fallback rather than failing the request.
func (h *Handlers) generateScopePayload(ctx context.Context, projectID, framework, sector string) json.RawMessage {
	genCtx, cancel := context.WithTimeout(ctx, h.scopeTimeout)
	defer cancel()

	points, err := h.store.ListDataPoints(genCtx, projectID)
	if err != nil {
		log.Warnf("Scope generation: data point lookup failed for %s: %v", projectID, err)
	}

	response, err := h.generator.GenerateNarrative(genCtx, llm.NarrativeRequest{
		ProjectID:  projectID,
		Sector:     sector,
		Frameworks: []string{framework},
		DataPoints: points,
	})
	if err != nil {
		log.Warnf("Scope generation failed for %s/%s, using skeleton: %v", projectID, framework, err)
		response = ""
	}

	payload, err := parser.ParseAssessment(framework, response)
	if err != nil {
		log.Warnf("Scope parse failed for %s/%s: %v", projectID, framework, err)
		return nil
	}
	return payload
}

func validFramework(framework string) bool {
	switch framework {
	case models.FrameworkTCFD, models.FrameworkCSRD, models.FrameworkISSB, models.FrameworkCompliance:
		return true
	}
	return false
}

// scoreFramework unmarshals the payload into the framework's nested schema
// and runs the matching scorer.
func scoreFramework(framework string, payload json.RawMessage, sector string) (*models.ScoreResult, error) {
	switch framework {
	case models.FrameworkTCFD:
		var a models.TCFDAssessment
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("invalid tcfd payload: %w", err)
		}
		return scoring.ScoreTCFD(&a, sector), nil
	case models.FrameworkCSRD:
		var a models.CSRDAssessment
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("invalid csrd payload: %w", err)
		}
		return scoring.ScoreCSRD(&a, sector), nil
	case models.FrameworkISSB:
		var a models.ISSBAssessment
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("invalid issb payload: %w", err)
		}
		return scoring.ScoreISSB(&a, sector), nil
	case models.FrameworkCompliance:
		var a models.ComplianceAssessment
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("invalid compliance payload: %w", err)
		}
		return scoring.ScoreCompliance(&a, sector), nil
	}
	return nil, fmt.Errorf("unknown framework %q", framework)
}

type reportRequest struct {
	OrganizationName string   `json:"organization_name"`
	Sector           string   `json:"sector"`
	Frameworks       []string `json:"frameworks"`
	Sections         []string `json:"sections"`
	EvidenceIDs      []string `json:"evidence_ids"`
	IncludeXBRL      bool     `json:"include_xbrl"`
}

// GenerateReport produces the next report version for a project
func (h *Handlers) GenerateReport(c *gin.Context) {
	projectID := c.Param("projectId")

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	generated, err := h.orchestrator.Generate(c.Request.Context(), report.GenerateRequest{
		ProjectID:        projectID,
		OrganizationName: req.OrganizationName,
		Sector:           req.Sector,
		Frameworks:       req.Frameworks,
		Sections:         req.Sections,
		EvidenceIDs:      req.EvidenceIDs,
		IncludeXBRL:      req.IncludeXBRL,
	})
	if err != nil {
		log.Errorf("Failed to generate report for %s: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"report":    generated,
		"downloads": downloadLinks(generated.ID),
	})
}

func downloadLinks(reportID string) gin.H {
	base := "/api/v1/reports/" + reportID
	return gin.H{
		"json": base,
		"xbrl": base + "/xbrl",
		"pdf":  base + "/pdf",
		"docx": base + "/docx",
	}
}

// GetReport returns one report by id
func (h *Handlers) GetReport(c *gin.Context) {
	rep, err := h.store.GetReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	if err != nil {
		log.Errorf("Failed to get report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get report"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetReportXBRL returns a report's instance document as XML
func (h *Handlers) GetReportXBRL(c *gin.Context) {
	rep, err := h.store.GetReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	if err != nil {
		log.Errorf("Failed to get report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get report"})
		return
	}
	if rep.XBRLDocument == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report has no XBRL document"})
		return
	}

	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(rep.XBRLDocument))
}
