package service

import (
	"fmt"
	"math"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/constants"
)

// RiskAggregator merges integrity and behavioural signals into one assessment.
// The rules are evaluated in order and the first that applies wins.
type RiskAggregator struct {
	crossDepartmentFloor float64
}

// NewRiskAggregator creates an aggregator. A floor outside [0.4, 1] falls back to the default.
func NewRiskAggregator(crossDepartmentFloor float64) *RiskAggregator {
	if crossDepartmentFloor < constants.MediumThreshold || crossDepartmentFloor > 1 {
		crossDepartmentFloor = constants.DefaultCrossDepartmentFloor
	}
	return &RiskAggregator{crossDepartmentFloor: crossDepartmentFloor}
}

// Assess applies the rule chain.
func (r *RiskAggregator) Assess(in models.RiskInput) models.RiskAssessment {
	b := clamp01(in.BehavioralScore)
	out := models.RiskAssessment{LowConfidence: in.LowConfidence}

	switch {
	case in.TamperDetected:
		out.FinalScore = math.Max(constants.TamperScoreFloor, b)
		out.AlertType = constants.AlertTypeTampering
		out.Reason = "content altered outside the engine"
	case in.CrossDepartmentViolation:
		out.FinalScore = math.Max(r.crossDepartmentFloor, b)
		out.AlertType = constants.AlertTypeUnauthorizedCrossDepartment
		out.Reason = "cross-department access violation"
		if in.Action == constants.ActionDownload {
			out.AlertType = constants.AlertTypeDataLeakAttempt
			out.Reason = "cross-department download"
		}
	default:
		out.FinalScore = b
		if b >= constants.MediumThreshold && !in.LowConfidence {
			out.AlertType = constants.AlertTypeAnomalousBehavior
			out.Reason = fmt.Sprintf("behavioral score %.2f", b)
		} else if in.LowConfidence {
			out.Reason = "insufficient history"
		}
	}

	out.Severity = constants.SeverityFor(out.FinalScore)
	out.ShouldAlert = out.AlertType != "" && out.FinalScore >= constants.MediumThreshold
	return out
}

// IsCrossDepartmentViolation reports whether an access attempt crossed a department
// boundary without authorization.
func IsCrossDepartmentViolation(e *models.AccessEvent) bool {
	if e.Action == constants.ActionCrossDepartmentAttempt {
		return true
	}
	return e.DepartmentMismatch() && e.IsDenied()
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

//Personal.AI order the ending
