package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/pkg/constants"
)

// Alert is an entry of the alert feed. Only Status, ResolvedAt and ResolvedBy ever change,
// and only once, from open to resolved.
type Alert struct {
	ID          uuid.UUID             `json:"id"`
	Type        constants.AlertType   `json:"type"`
	UserID      string                `json:"user_id,omitempty"`
	DocumentID  string                `json:"document_id,omitempty"`
	RiskScore   float64               `json:"risk_score"`
	Severity    constants.Severity    `json:"severity"`
	Description string                `json:"description"`
	Timestamp   time.Time             `json:"timestamp"`
	Status      constants.AlertStatus `json:"status"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
	ResolvedBy  string                `json:"resolved_by,omitempty"`
	DedupKey    string                `json:"dedup_key"`
}

// AlertDraft is what the aggregator hands to the ledger.
type AlertDraft struct {
	Type        constants.AlertType
	UserID      string
	DocumentID  string
	RiskScore   float64
	Description string
}

// DedupKey identifies repeated alerts for the same subject.
func (d AlertDraft) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s", d.Type, d.UserID, d.DocumentID)
}

// NewAlert materializes an open alert from a draft.
func NewAlert(d AlertDraft, now time.Time) *Alert {
	return &Alert{
		ID:          uuid.New(),
		Type:        d.Type,
		UserID:      d.UserID,
		DocumentID:  d.DocumentID,
		RiskScore:   d.RiskScore,
		Severity:    constants.SeverityFor(d.RiskScore),
		Description: d.Description,
		Timestamp:   now,
		Status:      constants.AlertStatusOpen,
		DedupKey:    d.DedupKey(),
	}
}

// IsOpen checks if the alert still awaits triage.
func (a *Alert) IsOpen() bool {
	return a.Status == constants.AlertStatusOpen
}

// Resolve closes the alert. It returns false and leaves the alert untouched when it is already resolved.
func (a *Alert) Resolve(by string, at time.Time) bool {
	if !a.IsOpen() {
		return false
	}
	a.Status = constants.AlertStatusResolved
	a.ResolvedAt = &at
	a.ResolvedBy = by
	return true
}

// AlertFilter selects alerts for listing. Zero values match everything.
type AlertFilter struct {
	Status     constants.AlertStatus
	Type       constants.AlertType
	Severity   constants.Severity
	UserID     string
	DocumentID string
	Since      time.Time
	Limit      int
}

// Matches applies the filter to one alert.
func (f AlertFilter) Matches(a *Alert) bool {
	switch {
	case f.Status != "" && a.Status != f.Status:
		return false
	case f.Type != "" && a.Type != f.Type:
		return false
	case f.Severity != "" && a.Severity != f.Severity:
		return false
	case f.UserID != "" && a.UserID != f.UserID:
		return false
	case f.DocumentID != "" && a.DocumentID != f.DocumentID:
		return false
	case !f.Since.IsZero() && a.Timestamp.Before(f.Since):
		return false
	}
	return true
}

//Personal.AI order the ending
