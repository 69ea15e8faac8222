package models

import (
	"time"

	"github.com/turtacn/dataguard/pkg/constants"
)

// RiskInput carries the signals merged by the aggregator for one subject.
type RiskInput struct {
	TamperDetected           bool
	CrossDepartmentViolation bool
	BehavioralScore          float64
	LowConfidence            bool
	Action                   constants.AccessAction
}

// RiskAssessment is the aggregator's verdict. It is recorded once on the event or version.
type RiskAssessment struct {
	FinalScore    float64             `json:"final_score"`
	Severity      constants.Severity  `json:"severity"`
	AlertType     constants.AlertType `json:"alert_type,omitempty"`
	ShouldAlert   bool                `json:"should_alert"`
	LowConfidence bool                `json:"low_confidence"`
	Reason        string              `json:"reason"`
}

// BehavioralScore is the scorer's output for one feature vector.
type BehavioralScore struct {
	Score         float64 `json:"score"`
	Isolation     float64 `json:"isolation"`
	Cluster       float64 `json:"cluster"`
	LowConfidence bool    `json:"low_confidence"`
}

// UserRiskReport summarizes a user's recent behaviour.
type UserRiskReport struct {
	UserID          string          `json:"user_id"`
	RiskScore       float64         `json:"risk_score"`
	RiskFactors     []string        `json:"risk_factors"`
	Baseline        UserBaseline    `json:"baseline"`
	BulkOperations  []BulkOperation `json:"bulk_operations"`
	RecentCrossDept []*AccessEvent  `json:"recent_cross_department"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// UserBaseline is the normal activity profile of a user.
type UserBaseline struct {
	AvgDailyAccesses float64                        `json:"avg_daily_accesses"`
	CommonHours      []int                          `json:"common_hours"`
	CommonActions    map[constants.AccessAction]int `json:"common_actions"`
	AvgRiskScore     float64                        `json:"avg_risk_score"`
	TotalEvents      int                            `json:"total_events"`
}

// BulkOperation is a burst of one action above its threshold inside the bulk window.
type BulkOperation struct {
	Action    constants.AccessAction `json:"action"`
	Count     int                    `json:"count"`
	Threshold int                    `json:"threshold"`
	RiskScore float64                `json:"risk_score"`
}

// CrossDepartmentStat aggregates accesses from one department into another.
type CrossDepartmentStat struct {
	UserDepartment     string  `json:"user_department"`
	DocumentDepartment string  `json:"document_department"`
	Count              int     `json:"count"`
	AvgRiskScore       float64 `json:"avg_risk_score"`
	MaxRiskScore       float64 `json:"max_risk_score"`
	AnomalyCount       int     `json:"anomaly_count"`
}

// Summary is the overview shown to administrators.
type Summary struct {
	OpenAlerts         int `json:"open_alerts"`
	HighRiskOpenAlerts int `json:"high_risk_open_alerts"`
	RecentEvents       int `json:"recent_events"`
	AnomalousEvents    int `json:"anomalous_events"`
	Documents          int `json:"documents"`
}

//Personal.AI order the ending
