package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/pkg/constants"
)

// AccessEvent is one access attempt, allowed or denied.
// DocumentID and DocumentDepartment are empty when the attempt had no target document
// or the target is unknown to the engine.
type AccessEvent struct {
	ID                 uuid.UUID               `json:"id"`
	UserID             string                  `json:"user_id"`
	Department         string                  `json:"department"`
	Action             constants.AccessAction  `json:"action"`
	DocumentID         string                  `json:"document_id,omitempty"`
	DocumentDepartment string                  `json:"document_department,omitempty"`
	Timestamp          time.Time               `json:"timestamp"`
	Outcome            constants.AccessOutcome `json:"outcome"`
	RiskScore          float64                 `json:"risk_score"`
	Severity           constants.Severity      `json:"severity"`
	AnomalyFlag        bool                    `json:"anomaly_flag"`
	LowConfidence      bool                    `json:"low_confidence"`
}

// NewAccessEvent creates an unscored event.
func NewAccessEvent(userID, department string, action constants.AccessAction, outcome constants.AccessOutcome, at time.Time) *AccessEvent {
	return &AccessEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Department: department,
		Action:     action,
		Outcome:    outcome,
		Timestamp:  at,
		Severity:   constants.SeverityLow,
	}
}

// WithDocument sets the target document and its owning department.
func (e *AccessEvent) WithDocument(documentID, documentDepartment string) *AccessEvent {
	e.DocumentID = documentID
	e.DocumentDepartment = documentDepartment
	return e
}

// IsDenied reports whether the access-control layer rejected the attempt.
func (e *AccessEvent) IsDenied() bool {
	return e.Outcome == constants.OutcomeDenied
}

// DepartmentMismatch reports whether the target document belongs to another department.
func (e *AccessEvent) DepartmentMismatch() bool {
	return e.DocumentDepartment != "" && e.DocumentDepartment != e.Department
}

// ApplyAssessment records the final risk on the event. It is called once, before the event is stored.
func (e *AccessEvent) ApplyAssessment(a RiskAssessment) {
	e.RiskScore = a.FinalScore
	e.Severity = a.Severity
	e.LowConfidence = a.LowConfidence
	e.AnomalyFlag = a.FinalScore >= constants.AnomalyFlagThreshold
}

//Personal.AI order the ending
