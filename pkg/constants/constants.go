// Package constants defines system-wide constants for the dataguard engine.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Access Action Constants
// ================================================================================

// AccessAction is the kind of operation a user attempted on the document store
type AccessAction string

const (
	// ActionRead is a document view
	ActionRead AccessAction = "read"

	// ActionUpload is a new upload or an update of an existing document
	ActionUpload AccessAction = "upload"

	// ActionDownload is a document download (the exfiltration-relevant action)
	ActionDownload AccessAction = "download"

	// ActionDelete is a document deletion
	ActionDelete AccessAction = "delete"

	// ActionCrossDepartmentAttempt is an attempt that targeted another department's partition
	ActionCrossDepartmentAttempt AccessAction = "cross-department-attempt"
)

// AccessActions lists every action in the fixed order used by feature encoding.
var AccessActions = []AccessAction{
	ActionRead,
	ActionUpload,
	ActionDownload,
	ActionDelete,
	ActionCrossDepartmentAttempt,
}

// IsValid reports whether the action is one of the known actions
func (a AccessAction) IsValid() bool {
	for _, known := range AccessActions {
		if a == known {
			return true
		}
	}
	return false
}

// AccessOutcome is the authorization decision received from the access-control layer
type AccessOutcome string

const (
	// OutcomeAllowed means the access-control layer permitted the operation
	OutcomeAllowed AccessOutcome = "allowed"

	// OutcomeDenied means the access-control layer rejected the operation
	OutcomeDenied AccessOutcome = "denied"
)

// IsValid reports whether the outcome is known
func (o AccessOutcome) IsValid() bool {
	return o == OutcomeAllowed || o == OutcomeDenied
}

// ================================================================================
// Version Constants
// ================================================================================

// VersionOrigin tells whether a version was written through the engine
type VersionOrigin string

const (
	// OriginSystemWrite is a version committed through the engine's write path
	OriginSystemWrite VersionOrigin = "system-write"

	// OriginExternalDetected is a version recording content altered outside the engine
	OriginExternalDetected VersionOrigin = "external-detected"
)

// ExternalAuthorID is the author recorded on external-detected versions
const ExternalAuthorID = "external"

// ================================================================================
// Alert Constants
// ================================================================================

// AlertType classifies an alert
type AlertType string

const (
	// AlertTypeTampering is raised when stored content changed outside the engine
	AlertTypeTampering AlertType = "tampering"

	// AlertTypeAnomalousBehavior is raised when the behavioral score alone crosses the medium band
	AlertTypeAnomalousBehavior AlertType = "anomalous-behavior"

	// AlertTypeUnauthorizedCrossDepartment is raised for a cross-department violation
	AlertTypeUnauthorizedCrossDepartment AlertType = "unauthorized-cross-department"

	// AlertTypeDataLeakAttempt is a cross-department violation on a download
	AlertTypeDataLeakAttempt AlertType = "data-leak-attempt"
)

// AlertStatus is the lifecycle state of an alert
type AlertStatus string

const (
	// AlertStatusOpen is the initial status of every alert
	AlertStatusOpen AlertStatus = "open"

	// AlertStatusResolved is set by an administrator; it is terminal
	AlertStatusResolved AlertStatus = "resolved"
)

// ================================================================================
// Risk Constants
// ================================================================================

// Severity is the risk band of a final score
type Severity string

const (
	// SeverityLow is any score below MediumThreshold
	SeverityLow Severity = "low"

	// SeverityMedium is MediumThreshold <= score < HighThreshold
	SeverityMedium Severity = "medium"

	// SeverityHigh is score >= HighThreshold
	SeverityHigh Severity = "high"
)

const (
	// MediumThreshold is the lower bound of the medium band and the alerting threshold
	MediumThreshold = 0.4

	// HighThreshold is the lower bound of the high band
	HighThreshold = 0.7

	// TamperScoreFloor is the minimum final score of a tamper event
	TamperScoreFloor = 0.9

	// DefaultCrossDepartmentFloor is the default minimum final score of a cross-department violation
	DefaultCrossDepartmentFloor = 0.8

	// AnomalyFlagThreshold marks an access event as anomalous in the event ledger
	AnomalyFlagThreshold = 0.7
)

// SeverityFor returns the band of a final score
func SeverityFor(score float64) Severity {
	switch {
	case score >= HighThreshold:
		return SeverityHigh
	case score >= MediumThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Rank orders severities: low < medium < high. Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ================================================================================
// Engine Defaults
// ================================================================================

const (
	// DefaultRateWindow is the trailing window of the rate feature
	DefaultRateWindow = 30 * time.Minute

	// DefaultMaxRateRatio caps the rate feature
	DefaultMaxRateRatio = 10.0

	// DefaultMinTrainingEvents is the cold-start threshold for model training
	DefaultMinTrainingEvents = 50

	// DefaultMinUserHistory is the number of prior events below which a user is low-confidence
	DefaultMinUserHistory = 3

	// DefaultTrainingWindowEvents bounds the history used for one training run
	DefaultTrainingWindowEvents = 1000

	// DefaultRetrainInterval is the periodic retrain interval
	DefaultRetrainInterval = 10 * time.Minute

	// DefaultRetrainEveryEvents triggers a retrain after this many evaluated events
	DefaultRetrainEveryEvents = 100

	// DefaultDedupWindow suppresses repeated alerts for the same subject and type
	DefaultDedupWindow = 10 * time.Minute

	// DefaultHighImpactChangePct marks a diff as high impact
	DefaultHighImpactChangePct = 50.0

	// DefaultIntegrityScanInterval is the period of the background integrity scan
	DefaultIntegrityScanInterval = time.Hour

	// DefaultBulkWindow is the window of bulk-operation detection
	DefaultBulkWindow = 30 * time.Minute

	// DefaultHistoryWindow bounds the per-user history loaded when an access is evaluated
	DefaultHistoryWindow = 30 * 24 * time.Hour

	// BaselineEvents is the number of recent events a user baseline is built from
	BaselineEvents = 100

	// RecentViolations is the number of cross-department events listed in a user risk report
	RecentViolations = 10

	// BulkRiskScore is the report risk contributed by a detected bulk operation
	BulkRiskScore = 0.8
)

// BulkThresholds are the per-action counts in DefaultBulkWindow that count as a bulk operation.
var BulkThresholds = map[AccessAction]int{
	ActionRead:   20,
	ActionUpload: 10,
	ActionDelete: 5,
}

// DefaultBulkThreshold applies to actions missing from BulkThresholds
const DefaultBulkThreshold = 15

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode is a stable machine-readable error identifier
type ErrorCode string

const (
	// ErrCodeIntegrity is returned when content cannot be fingerprinted
	ErrCodeIntegrity ErrorCode = "integrity_error"

	// ErrCodeNotFound is returned for unknown documents, versions or alerts
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeModelNotReady is internal: scoring requested without a trained model
	ErrCodeModelNotReady ErrorCode = "model_not_ready"

	// ErrCodeConcurrentModification is returned when a version append races
	ErrCodeConcurrentModification ErrorCode = "concurrent_modification"

	// ErrCodeInvalidArgument is returned for malformed requests
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"

	// ErrCodeStorage wraps failures of an underlying store
	ErrCodeStorage ErrorCode = "storage_error"

	// ErrCodeInternal is used for anything else
	ErrCodeInternal ErrorCode = "internal_error"
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel int

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = iota

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo

	// LogLevelWarn indicates potential issues
	LogLevelWarn

	// LogLevelError indicates errors that need attention
	LogLevelError

	// LogLevelFatal indicates critical errors that cause termination
	LogLevelFatal
)

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyUserID is the key for the acting user in context
	ContextKeyUserID ContextKey = "user_id"

	// ContextKeyDocumentID is the key for the target document in context
	ContextKeyDocumentID ContextKey = "document_id"
)

// ================================================================================
// Observability Constants
// ================================================================================

const (
	// ServiceName is used for tracing and metrics
	ServiceName = "dataguard"

	// MetricsNamespace prefixes every Prometheus metric
	MetricsNamespace = "dataguard"
)

//Personal.AI order the ending
