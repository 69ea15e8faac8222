package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/domain/models"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortDigest(d string) string {
	if d == "" {
		return "-"
	}
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeCommit(w io.Writer, r *application.CommitResult) error {
	if r.NoOp {
		fmt.Fprintf(w, "no change: %s is already at version %d\n", r.Version.DocumentID, r.Version.Sequence)
		return nil
	}
	if r.TamperDetected {
		fmt.Fprintf(w, "TAMPERING DETECTED: stored content differed from version %d; recorded as version %d\n",
			r.TamperVersion.Sequence-1, r.TamperVersion.Sequence)
		if r.TamperStats != nil {
			fmt.Fprintf(w, "  out-of-band change: +%d -%d (%.1f%%)\n",
				r.TamperStats.Added, r.TamperStats.Removed, r.TamperStats.ChangePercentage)
		}
	}
	v := r.Version
	fmt.Fprintf(w, "committed %s version %d (%s) digest %s\n", v.DocumentID, v.Sequence, v.ID, shortDigest(v.Digest))
	if r.DiffStats != nil {
		fmt.Fprintf(w, "  change: +%d -%d (%.1f%%)", r.DiffStats.Added, r.DiffStats.Removed, r.DiffStats.ChangePercentage)
		if r.HighImpact {
			fmt.Fprint(w, " high impact")
		}
		fmt.Fprintln(w)
	}
	if r.Alert != nil {
		fmt.Fprintf(w, "  alert %s raised (%s, %s)\n", r.Alert.ID, r.Alert.Type, r.Alert.Severity)
	}
	return nil
}

func writeVerify(w io.Writer, r *application.VerifyResult) error {
	if !r.TamperDetected {
		seq := int64(0)
		if r.Latest != nil {
			seq = r.Latest.Sequence
		}
		fmt.Fprintf(w, "ok: %s matches version %d\n", r.DocumentID, seq)
		return nil
	}
	fmt.Fprintf(w, "TAMPERED: %s changed outside the engine; recorded as version %d\n",
		r.DocumentID, r.TamperVersion.Sequence)
	if r.TamperStats != nil {
		fmt.Fprintf(w, "  change: +%d -%d (%.1f%%)\n", r.TamperStats.Added, r.TamperStats.Removed, r.TamperStats.ChangePercentage)
	}
	if r.Alert != nil {
		fmt.Fprintf(w, "  alert %s (%s, score %.2f)\n", r.Alert.ID, r.Alert.Severity, r.Alert.RiskScore)
	}
	return nil
}

func writeScan(w io.Writer, r *application.ScanReport) error {
	fmt.Fprintf(w, "scanned %d documents in %s: %d tampered, %d failed\n",
		r.Documents, r.Duration.Round(time.Millisecond), len(r.Tampered), len(r.Failed))
	for _, id := range r.Tampered {
		fmt.Fprintf(w, "  tampered  %s\n", id)
	}
	for _, id := range r.Failed {
		fmt.Fprintf(w, "  failed    %s\n", id)
	}
	return nil
}

func writeVersions(w io.Writer, versions []*models.Version) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SEQ\tID\tDIGEST\tSIZE\tAUTHOR\tORIGIN\tRISK\tCREATED")
	for _, v := range versions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%.2f\t%s\n",
			v.Sequence, v.ID, shortDigest(v.Digest), v.Size, orDash(v.AuthorID), v.Origin, v.RiskScore,
			v.CreatedAt.Format(timeLayout))
	}
	return tw.Flush()
}

func writeDiff(w io.Writer, d *models.DiffResult) error {
	for _, l := range d.Lines {
		switch l.Type {
		case models.DiffAdded:
			fmt.Fprintf(w, "+ %s\n", l.Content)
		case models.DiffRemoved:
			fmt.Fprintf(w, "- %s\n", l.Content)
		default:
			fmt.Fprintf(w, "  %s\n", l.Content)
		}
	}
	fmt.Fprintf(w, "--\n%d added, %d removed, %d unchanged (%.1f%% changed)\n",
		d.Stats.Added, d.Stats.Removed, d.Stats.Unchanged, d.Stats.ChangePercentage)
	return nil
}

func writeAccess(w io.Writer, r *application.AccessResult) error {
	conf := ""
	if r.LowConfidence {
		conf = " (low confidence)"
	}
	fmt.Fprintf(w, "event %s: score %.2f, severity %s%s\n", r.Event.ID, r.RiskScore, r.Severity, conf)
	fmt.Fprintf(w, "  behavioural %.2f (isolation %.2f, cluster %.2f)\n",
		r.Behavioral.Score, r.Behavioral.Isolation, r.Behavioral.Cluster)
	if r.Alert != nil {
		state := "deduplicated into"
		if r.AlertCreated {
			state = "raised"
		}
		fmt.Fprintf(w, "  alert %s %s (%s)\n", state, r.Alert.ID, r.Alert.Type)
	}
	return nil
}

func writeAlerts(w io.Writer, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "no alerts")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tSEVERITY\tSCORE\tUSER\tDOCUMENT\tSTATUS\tRAISED")
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
			a.ID, a.Type, a.Severity, a.RiskScore, orDash(a.UserID), orDash(a.DocumentID), a.Status,
			a.Timestamp.Format(timeLayout))
	}
	return tw.Flush()
}

func writeAlert(w io.Writer, a *models.Alert) error {
	fmt.Fprintf(w, "alert %s is %s", a.ID, a.Status)
	if a.ResolvedAt != nil {
		fmt.Fprintf(w, " (by %s at %s)", orDash(a.ResolvedBy), a.ResolvedAt.Format(timeLayout))
	}
	fmt.Fprintln(w)
	return nil
}

func writeUserReport(w io.Writer, r *models.UserRiskReport) error {
	fmt.Fprintf(w, "user %s: risk %.2f\n", r.UserID, r.RiskScore)
	if len(r.RiskFactors) > 0 {
		fmt.Fprintf(w, "factors: %s\n", strings.Join(r.RiskFactors, ", "))
	}
	b := r.Baseline
	fmt.Fprintf(w, "baseline: %d events, %.1f per day, avg risk %.2f\n", b.TotalEvents, b.AvgDailyAccesses, b.AvgRiskScore)
	if len(b.CommonHours) > 0 {
		hours := make([]string, len(b.CommonHours))
		for i, h := range b.CommonHours {
			hours[i] = fmt.Sprintf("%02d", h)
		}
		fmt.Fprintf(w, "common hours: %s\n", strings.Join(hours, " "))
	}
	if len(b.CommonActions) > 0 {
		actions := make([]string, 0, len(b.CommonActions))
		for a, n := range b.CommonActions {
			actions = append(actions, fmt.Sprintf("%s=%d", a, n))
		}
		sort.Strings(actions)
		fmt.Fprintf(w, "actions: %s\n", strings.Join(actions, " "))
	}
	for _, op := range r.BulkOperations {
		fmt.Fprintf(w, "bulk %s: %d (threshold %d, risk %.2f)\n", op.Action, op.Count, op.Threshold, op.RiskScore)
	}
	if len(r.RecentCrossDept) > 0 {
		tw := newTable(w)
		fmt.Fprintln(tw, "TIME\tACTION\tDOCUMENT\tDEPARTMENT\tOUTCOME\tSCORE")
		for _, e := range r.RecentCrossDept {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
				e.Timestamp.Format(timeLayout), e.Action, orDash(e.DocumentID), orDash(e.DocumentDepartment), e.Outcome, e.RiskScore)
		}
		return tw.Flush()
	}
	return nil
}

func writeCrossDepartment(w io.Writer, stats []models.CrossDepartmentStat) error {
	if len(stats) == 0 {
		fmt.Fprintln(w, "no cross-department access")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "FROM\tTO\tCOUNT\tAVG\tMAX\tANOMALIES")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\t%d\n",
			s.UserDepartment, s.DocumentDepartment, s.Count, s.AvgRiskScore, s.MaxRiskScore, s.AnomalyCount)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, s *models.Summary) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "open alerts\t%d\n", s.OpenAlerts)
	fmt.Fprintf(tw, "high-risk open alerts\t%d\n", s.HighRiskOpenAlerts)
	fmt.Fprintf(tw, "recent events\t%d\n", s.RecentEvents)
	fmt.Fprintf(tw, "anomalous events\t%d\n", s.AnomalousEvents)
	fmt.Fprintf(tw, "documents\t%d\n", s.Documents)
	return tw.Flush()
}

func writeRetrain(w io.Writer, r *application.RetrainResult) error {
	if !r.Trained {
		fmt.Fprintf(w, "model not trained: %s\n", orDash(r.Reason))
		return nil
	}
	fmt.Fprintf(w, "model trained on %d samples at %s\n", r.Samples, r.TrainedAt.Format(timeLayout))
	return nil
}

//Personal.AI order the ending
