package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
)

// RiskReporter derives read-only reports from the event and alert ledgers.
type RiskReporter struct {
	events        repository.AccessEventRepository
	alerts        repository.AlertRepository
	documents     repository.DocumentRepository
	clock         service.Clock
	historyWindow time.Duration
}

// NewRiskReporter creates a RiskReporter that looks back at most historyWindow.
func NewRiskReporter(events repository.AccessEventRepository, alerts repository.AlertRepository,
	documents repository.DocumentRepository, clock service.Clock, historyWindow time.Duration) *RiskReporter {
	if historyWindow <= 0 {
		historyWindow = constants.DefaultHistoryWindow
	}
	return &RiskReporter{
		events:        events,
		alerts:        alerts,
		documents:     documents,
		clock:         clock,
		historyWindow: historyWindow,
	}
}

// UserReport profiles a user's recent activity.
//
// The risk score adds up three signals and is capped at 1:
//   - every action repeated beyond its bulk threshold inside the bulk window adds 0.8
//   - every one of the last ten cross-department accesses adds 0.2
//   - an average event risk above 0.5 adds 0.3
func (r *RiskReporter) UserReport(ctx context.Context, userID string) (*models.UserRiskReport, error) {
	now := r.clock.Now()
	events, err := r.events.ListByUser(ctx, userID, now.Add(-r.historyWindow))
	if err != nil {
		return nil, errors.Storage("load user events", err)
	}

	report := &models.UserRiskReport{
		UserID:      userID,
		RiskFactors: []string{},
		Baseline:    baseline(lastN(events, constants.BaselineEvents)),
		GeneratedAt: now,
	}

	report.BulkOperations = bulkOperations(events, now.Add(-constants.DefaultBulkWindow))
	for _, op := range report.BulkOperations {
		report.RiskScore += op.RiskScore
		report.RiskFactors = append(report.RiskFactors,
			fmt.Sprintf("bulk %s: %d in %s (threshold %d)", op.Action, op.Count, constants.DefaultBulkWindow, op.Threshold))
	}

	for i := len(events) - 1; i >= 0 && len(report.RecentCrossDept) < constants.RecentViolations; i-- {
		if events[i].DepartmentMismatch() {
			report.RecentCrossDept = append(report.RecentCrossDept, events[i])
		}
	}
	if n := len(report.RecentCrossDept); n > 0 {
		report.RiskScore += 0.2 * float64(n)
		report.RiskFactors = append(report.RiskFactors, fmt.Sprintf("%d cross-department accesses", n))
	}

	if report.Baseline.AvgRiskScore > 0.5 {
		report.RiskScore += 0.3
		report.RiskFactors = append(report.RiskFactors, fmt.Sprintf("average event risk %.2f", report.Baseline.AvgRiskScore))
	}
	if report.RiskScore > 1 {
		report.RiskScore = 1
	}
	return report, nil
}

func lastN(events []*models.AccessEvent, n int) []*models.AccessEvent {
	if len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}

func baseline(events []*models.AccessEvent) models.UserBaseline {
	b := models.UserBaseline{
		CommonHours:   []int{},
		CommonActions: make(map[constants.AccessAction]int),
		TotalEvents:   len(events),
	}
	if len(events) == 0 {
		return b
	}

	days := make(map[string]struct{})
	hours := make(map[int]int)
	var total float64
	for _, e := range events {
		days[e.Timestamp.Format("2006-01-02")] = struct{}{}
		hours[e.Timestamp.Hour()]++
		b.CommonActions[e.Action]++
		total += e.RiskScore
	}
	b.AvgDailyAccesses = float64(len(events)) / float64(len(days))
	b.AvgRiskScore = total / float64(len(events))

	// every hour sharing the highest count
	best := 0
	for _, c := range hours {
		if c > best {
			best = c
		}
	}
	for h, c := range hours {
		if c == best {
			b.CommonHours = append(b.CommonHours, h)
		}
	}
	sort.Ints(b.CommonHours)
	return b
}

func bulkOperations(events []*models.AccessEvent, since time.Time) []models.BulkOperation {
	counts := make(map[constants.AccessAction]int)
	for _, e := range events {
		if !e.Timestamp.Before(since) {
			counts[e.Action]++
		}
	}

	ops := []models.BulkOperation{}
	for _, action := range constants.AccessActions {
		threshold, ok := constants.BulkThresholds[action]
		if !ok {
			threshold = constants.DefaultBulkThreshold
		}
		if counts[action] >= threshold {
			ops = append(ops, models.BulkOperation{
				Action:    action,
				Count:     counts[action],
				Threshold: threshold,
				RiskScore: constants.BulkRiskScore,
			})
		}
	}
	return ops
}

// CrossDepartment groups accesses into another department's documents by
// (user department, document department), busiest pair first.
func (r *RiskReporter) CrossDepartment(ctx context.Context, days int) ([]models.CrossDepartmentStat, error) {
	since := r.clock.Now().AddDate(0, 0, -days)
	events, err := r.events.ListSince(ctx, since)
	if err != nil {
		return nil, errors.Storage("load access events", err)
	}

	type pair struct{ from, to string }
	stats := make(map[pair]*models.CrossDepartmentStat)
	var order []pair
	for _, e := range events {
		if !e.DepartmentMismatch() {
			continue
		}
		k := pair{e.Department, e.DocumentDepartment}
		s, ok := stats[k]
		if !ok {
			s = &models.CrossDepartmentStat{UserDepartment: k.from, DocumentDepartment: k.to}
			stats[k] = s
			order = append(order, k)
		}
		s.Count++
		s.AvgRiskScore += e.RiskScore
		if e.RiskScore > s.MaxRiskScore {
			s.MaxRiskScore = e.RiskScore
		}
		if e.AnomalyFlag {
			s.AnomalyCount++
		}
	}

	out := make([]models.CrossDepartmentStat, 0, len(order))
	for _, k := range order {
		s := stats[k]
		s.AvgRiskScore /= float64(s.Count)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// Summary counts open alerts, the last day's events and the tracked documents.
func (r *RiskReporter) Summary(ctx context.Context) (*models.Summary, error) {
	open, err := r.alerts.List(ctx, models.AlertFilter{Status: constants.AlertStatusOpen})
	if err != nil {
		return nil, errors.Storage("list open alerts", err)
	}
	events, err := r.events.ListSince(ctx, r.clock.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, errors.Storage("load access events", err)
	}
	docs, err := r.documents.List(ctx)
	if err != nil {
		return nil, errors.Storage("list documents", err)
	}

	s := &models.Summary{
		OpenAlerts:   len(open),
		RecentEvents: len(events),
		Documents:    len(docs),
	}
	for _, a := range open {
		if a.RiskScore >= constants.HighThreshold {
			s.HighRiskOpenAlerts++
		}
	}
	for _, e := range events {
		if e.AnomalyFlag {
			s.AnomalousEvents++
		}
	}
	return s, nil
}

//Personal.AI order the ending
