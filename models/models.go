package models

import (
	"encoding/json"
	"time"
)

// Category is the top-level ESG classification of a data point.
type Category string

const (
	CategoryEnvironmental Category = "environmental"
	CategorySocial        Category = "social"
	CategoryGovernance    Category = "governance"
)

// Period is the reporting cadence of a data point.
type Period string

const (
	PeriodAnnual    Period = "annual"
	PeriodQuarterly Period = "quarterly"
	PeriodMonthly   Period = "monthly"
)

// ValidationStatus tracks where a data point sits in the validation lifecycle.
type ValidationStatus string

const (
	StatusPending   ValidationStatus = "PENDING"
	StatusValidated ValidationStatus = "VALIDATED"
	StatusRejected  ValidationStatus = "REJECTED"
	StatusReview    ValidationStatus = "REVIEW"
)

// RuleType identifies which class of check produced a validation rule outcome.
type RuleType string

const (
	RuleRequired     RuleType = "REQUIRED"
	RuleRange        RuleType = "RANGE"
	RuleFormat       RuleType = "FORMAT"
	RuleConsistency  RuleType = "CONSISTENCY"
	RuleCompleteness RuleType = "COMPLETENESS"
)

// Severity grades how serious a failed rule is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// DataPoint is a single reported ESG metric observation.
type DataPoint struct {
	ID               string            `json:"id"`
	ProjectID        string            `json:"project_id"`
	Category         Category          `json:"category"`
	Subcategory      string            `json:"subcategory,omitempty"`
	MetricName       string            `json:"metric_name"`
	MetricCode       string            `json:"metric_code"`
	Value            *float64          `json:"value"`
	Unit             string            `json:"unit,omitempty"`
	Year             int               `json:"year"`
	Period           Period            `json:"period"`
	DataSource       string            `json:"data_source,omitempty"`
	Confidence       float64           `json:"confidence"`
	ValidationStatus ValidationStatus  `json:"validation_status"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ValidationRule is the outcome of one rule evaluation against a data point.
type ValidationRule struct {
	Type        RuleType `json:"type"`
	Description string   `json:"description"`
	Passed      bool     `json:"passed"`
	Message     string   `json:"message,omitempty"`
	Severity    Severity `json:"severity"`
	Penalty     float64  `json:"penalty"`
}

// ValidationResult is an immutable snapshot of one validation invocation.
type ValidationResult struct {
	DataPointID     string           `json:"data_point_id"`
	Rules           []ValidationRule `json:"rules"`
	OverallScore    float64          `json:"overall_score"`
	Confidence      float64          `json:"confidence"`
	Recommendations []string         `json:"recommendations"`
	Status          ValidationStatus `json:"validation_status"`
	ValidatedAt     time.Time        `json:"validated_at"`
}

// Framework names accepted by the assessment endpoints.
const (
	FrameworkTCFD       = "tcfd"
	FrameworkCSRD       = "csrd"
	FrameworkISSB       = "issb"
	FrameworkCompliance = "compliance"
)

// FrameworkAssessment is the persisted form of a framework-specific
// assessment. The payload is the full nested structure for the framework and
// is always replaced wholesale on save, never merged field by field.
type FrameworkAssessment struct {
	ProjectID string          `json:"project_id"`
	Framework string          `json:"framework"`
	Sector    string          `json:"sector,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TCFDAssessment covers the four TCFD pillars. A nil pillar means the
// organisation has not addressed it at all.
type TCFDAssessment struct {
	Governance     *TCFDGovernance     `json:"governance,omitempty"`
	Strategy       *TCFDStrategy       `json:"strategy,omitempty"`
	RiskManagement *TCFDRiskManagement `json:"risk_management,omitempty"`
	MetricsTargets *TCFDMetricsTargets `json:"metrics_targets,omitempty"`
}

type TCFDGovernance struct {
	BoardOversight           string `json:"board_oversight"`
	ManagementResponsibility string `json:"management_responsibility"`
	ClimateCompetency        string `json:"climate_competency"`
}

type TCFDStrategy struct {
	ClimateRisks     string `json:"climate_risks"`
	Opportunities    string `json:"opportunities"`
	ScenarioAnalysis string `json:"scenario_analysis"`
	TimeHorizons     string `json:"time_horizons"`
}

type TCFDRiskManagement struct {
	IdentificationProcess string `json:"identification_process"`
	ManagementProcess     string `json:"management_process"`
	ERMIntegration        string `json:"erm_integration"`
}

type TCFDMetricsTargets struct {
	MetricsDisclosed string `json:"metrics_disclosed"`
	ScopeEmissions   string `json:"scope_emissions"`
	Targets          string `json:"targets"`
}

// CSRDAssessment covers the CSRD reporting sections.
type CSRDAssessment struct {
	DoubleMateriality *CSRDDoubleMateriality `json:"double_materiality,omitempty"`
	ESRSReporting     *CSRDESRSReporting     `json:"esrs_reporting,omitempty"`
	SectorSpecific    *CSRDSectorSpecific    `json:"sector_specific,omitempty"`
	DueDiligence      *CSRDDueDiligence      `json:"due_diligence,omitempty"`
	Datapoints        []CSRDDatapoint        `json:"datapoints,omitempty"`
}

type CSRDDoubleMateriality struct {
	ImpactMateriality     string `json:"impact_materiality"`
	FinancialMateriality  string `json:"financial_materiality"`
	StakeholderEngagement string `json:"stakeholder_engagement"`
}

// CSRDESRSReporting holds one disclosure text per ESRS standard code
// (E1-E5, S1-S4, G1).
type CSRDESRSReporting struct {
	Disclosures map[string]string `json:"disclosures"`
}

type CSRDSectorSpecific struct {
	Sector      string `json:"sector"`
	Disclosures string `json:"disclosures"`
}

type CSRDDueDiligence struct {
	Process            string `json:"process"`
	ValueChainCoverage string `json:"value_chain_coverage"`
}

type CSRDDatapoint struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// ISSBAssessment covers IFRS S1/S2 pillar disclosures plus per-standard
// implementation progress used by the readiness computation.
type ISSBAssessment struct {
	S1        *ISSBGeneral                    `json:"s1,omitempty"`
	S2        *ISSBClimate                    `json:"s2,omitempty"`
	Standards map[string]ISSBStandardProgress `json:"standards,omitempty"`
}

type ISSBGeneral struct {
	Governance          string `json:"governance"`
	Strategy            string `json:"strategy"`
	RiskManagement      string `json:"risk_management"`
	MetricsTargets      string `json:"metrics_targets"`
	GeneralRequirements string `json:"general_requirements"`
}

type ISSBClimate struct {
	ClimateGovernance    string `json:"climate_governance"`
	ClimateStrategy      string `json:"climate_strategy"`
	ClimateRiskProcesses string `json:"climate_risk_processes"`
	GHGMetrics           string `json:"ghg_metrics"`
	ClimateTargets       string `json:"climate_targets"`
}

// ISSBStandardProgress is the implementation progress of one sub-standard.
type ISSBStandardProgress struct {
	CompletedItems int `json:"completed_items"`
	TotalItems     int `json:"total_items"`
}

// ComplianceStatus is the per-standard status used by the generic
// compliance-check framework (GRI-style assessments).
type ComplianceStatus string

const (
	ComplianceNotApplicable ComplianceStatus = "not_applicable"
	ComplianceInProgress    ComplianceStatus = "in_progress"
	ComplianceCompliant     ComplianceStatus = "compliant"
	ComplianceExceeds       ComplianceStatus = "exceeds"
)

// ComplianceAssessment is the generic checklist-style assessment payload.
type ComplianceAssessment struct {
	Framework string            `json:"framework"`
	Checks    []ComplianceCheck `json:"checks"`
}

type ComplianceCheck struct {
	Standard string           `json:"standard"`
	Status   ComplianceStatus `json:"status"`
	Notes    string           `json:"notes,omitempty"`
}

// ScoreResult is the output of a framework scorer. Scales are deliberately
// per-framework: the data-point validator reports 0-1, the framework scorers
// report 0-100; Scale documents which convention applies.
type ScoreResult struct {
	Framework       string             `json:"framework"`
	OverallScore    float64            `json:"overall_score"`
	Scale           string             `json:"scale"`
	PillarScores    map[string]float64 `json:"pillar_scores,omitempty"`
	Recommendations []string           `json:"recommendations"`
	GapAnalysis     *GapAnalysis       `json:"gap_analysis,omitempty"`
	Readiness       *ReadinessResult   `json:"readiness,omitempty"`
}

// GapAnalysis is the CSRD-specific structured gap output.
type GapAnalysis struct {
	CriticalGaps           []string    `json:"critical_gaps"`
	Recommendations        []string    `json:"recommendations"`
	ImplementationTimeline []Milestone `json:"implementation_timeline"`
}

type Milestone struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// ReadinessResult is the ISSB per-standard readiness breakdown.
type ReadinessResult struct {
	OverallReadiness float64             `json:"overall_readiness"`
	Standards        []StandardReadiness `json:"standards"`
	Timeline         ReadinessTimeline   `json:"timeline"`
}

type StandardReadiness struct {
	Standard string   `json:"standard"`
	Score    float64  `json:"score"`
	Gaps     []string `json:"gaps,omitempty"`
}

type ReadinessTimeline struct {
	Immediate []string `json:"immediate"`
	ShortTerm []string `json:"short_term"`
	LongTerm  []string `json:"long_term"`
}

// XBRLTag marks a span of report content as a taggable disclosure fact.
type XBRLTag struct {
	Concept    string `json:"concept"`
	ContextRef string `json:"context_ref"`
	UnitRef    string `json:"unit_ref,omitempty"`
	Value      string `json:"value"`
	Decimals   *int   `json:"decimals,omitempty"`
}

// ReportSection is one narrative section of a disclosure report.
type ReportSection struct {
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	XBRLTags           []XBRLTag `json:"xbrl_tags"`
	EvidenceReferences []string  `json:"evidence_references,omitempty"`
	StandardReferences []string  `json:"standard_references,omitempty"`
}

// GeneratorMeta records how a report was produced.
type GeneratorMeta struct {
	Provider    string    `json:"provider"`
	Model       string    `json:"model,omitempty"`
	Fallback    bool      `json:"fallback"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Report is a versioned disclosure report artifact. Versions are append-only
// and strictly increasing per project.
type Report struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	Version      int             `json:"version"`
	Sections     []ReportSection `json:"sections"`
	XBRLDocument string          `json:"xbrl_document,omitempty"`
	Meta         GeneratorMeta   `json:"generator_meta"`
	CreatedAt    time.Time       `json:"created_at"`
}
