package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
)

// render prints v as JSON under --json and through table otherwise.
func (o *rootOptions) render(cmd *cobra.Command, v interface{}, table func(io.Writer) error) error {
	if o.jsonOut {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	return table(cmd.OutOrStdout())
}

func newCommitCmd(opts *rootOptions) *cobra.Command {
	var department, author, file string
	cmd := &cobra.Command{
		Use:   "commit <document-id>",
		Short: "Record new content for a document",
		Long: `commit writes new content for a document through the engine. If the stored
content was changed outside the engine since the last version, the change is
recorded as an external version and a tampering alert is raised first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, file)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				result, err := a.engine.CommitDocument(cmd.Context(), application.CommitRequest{
					DocumentID: args[0],
					Department: department,
					Content:    content,
					AuthorID:   author,
				})
				if err != nil {
					return err
				}
				return opts.render(cmd, result, func(w io.Writer) error { return writeCommit(w, result) })
			})
		},
	}
	cmd.Flags().StringVar(&department, "department", "", "owning department (used when the document is new)")
	cmd.Flags().StringVar(&author, "author", "", "author of the change")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "content file, - for stdin")
	return cmd
}

func readContent(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return b, nil
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [document-id]",
		Short: "Check stored content against the version chain",
		Long:  "verify checks one document, or every document when no id is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				if len(args) == 1 {
					result, err := a.engine.VerifyDocument(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return opts.render(cmd, result, func(w io.Writer) error { return writeVerify(w, result) })
				}
				scanner := application.NewIntegrityScanner(a.engine, a.cfg.Engine.IntegrityScanInterval, a.adapter, a.log)
				report, err := scanner.Scan(cmd.Context())
				if err != nil {
					return err
				}
				return opts.render(cmd, report, func(w io.Writer) error { return writeScan(w, report) })
			})
		},
	}
}

func newDocumentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List tracked documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				docs, err := a.engine.ListDocuments(cmd.Context())
				if err != nil {
					return err
				}
				return opts.render(cmd, docs, func(w io.Writer) error { return writeDocuments(w, docs) })
			})
		},
	}
}

func writeDocuments(w io.Writer, docs []*models.Document) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDEPARTMENT\tVERSIONS\tDIGEST\tUPDATED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			d.ID, orDash(d.Department), d.LatestSequence, shortDigest(d.CurrentDigest), d.UpdatedAt.Format(timeLayout))
	}
	return tw.Flush()
}

func newVersionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <document-id>",
		Short: "List the version chain of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				versions, err := a.engine.ListVersions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return opts.render(cmd, versions, func(w io.Writer) error { return writeVersions(w, versions) })
			})
		},
	}
}

func newDiffCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old-version-id> <new-version-id>",
		Short: "Show the line diff between two versions of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldID, err := parseVersionID(args[0])
			if err != nil {
				return err
			}
			newID, err := parseVersionID(args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				diff, err := a.engine.GetDiff(cmd.Context(), oldID, newID)
				if err != nil {
					return err
				}
				return opts.render(cmd, diff, func(w io.Writer) error { return writeDiff(w, diff) })
			})
		},
	}
}

func parseVersionID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.InvalidArgument(fmt.Sprintf("invalid version id %q", s))
	}
	return id, nil
}

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var user, department, action, document, outcome, at string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one access attempt",
		Example: `  dataguard evaluate --user u-17 --department HR --action download \
    --document payroll-2026.xlsx --outcome denied`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ts time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return errors.InvalidArgument(fmt.Sprintf("invalid --at %q, want RFC3339", at))
				}
				ts = t
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				result, err := a.engine.EvaluateAccess(cmd.Context(), application.AccessRequest{
					UserID:     user,
					Department: department,
					Action:     constants.AccessAction(action),
					DocumentID: document,
					Outcome:    constants.AccessOutcome(outcome),
					Timestamp:  ts,
				})
				if err != nil {
					return err
				}
				return opts.render(cmd, result, func(w io.Writer) error { return writeAccess(w, result) })
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&user, "user", "", "user id")
	f.StringVar(&department, "department", "", "user's department")
	f.StringVar(&action, "action", string(constants.ActionRead), "read | upload | download | delete | cross-department-attempt")
	f.StringVar(&document, "document", "", "target document id")
	f.StringVar(&outcome, "outcome", string(constants.OutcomeAllowed), "allowed | denied")
	f.StringVar(&at, "at", "", "event time in RFC3339 (default now)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("department")
	return cmd
}

func newAlertsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List and resolve alerts",
	}

	var (
		filter           models.AlertFilter
		status, typ, sev string
		since            time.Duration
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = constants.AlertStatus(status)
			filter.Type = constants.AlertType(typ)
			filter.Severity = constants.Severity(sev)
			if since > 0 {
				filter.Since = time.Now().UTC().Add(-since)
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				alerts, err := a.engine.ListAlerts(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return opts.render(cmd, alerts, func(w io.Writer) error { return writeAlerts(w, alerts) })
			})
		},
	}
	lf := list.Flags()
	lf.StringVar(&status, "status", "", "open | resolved")
	lf.StringVar(&typ, "type", "", "alert type")
	lf.StringVar(&sev, "severity", "", "low | medium | high")
	lf.StringVar(&filter.UserID, "user", "", "user id")
	lf.StringVar(&filter.DocumentID, "document", "", "document id")
	lf.DurationVar(&since, "since", 0, "only alerts raised within this duration")
	lf.IntVar(&filter.Limit, "limit", 50, "maximum number of alerts, 0 for all")

	var by string
	resolve := &cobra.Command{
		Use:   "resolve <alert-id>",
		Short: "Mark an alert resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				alert, err := a.engine.ResolveAlert(cmd.Context(), args[0], by)
				if err != nil {
					return err
				}
				return opts.render(cmd, alert, func(w io.Writer) error { return writeAlert(w, alert) })
			})
		},
	}
	resolve.Flags().StringVar(&by, "by", os.Getenv("USER"), "who resolved the alert")

	cmd.AddCommand(list, resolve)
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Behaviour and cross-department reports",
	}

	user := &cobra.Command{
		Use:   "user <user-id>",
		Short: "Risk profile of one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				report, err := a.engine.UserRiskReport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return opts.render(cmd, report, func(w io.Writer) error { return writeUserReport(w, report) })
			})
		},
	}

	var days int
	cross := &cobra.Command{
		Use:     "cross-department",
		Aliases: []string{"cross"},
		Short:   "Accesses from one department into another",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				stats, err := a.engine.CrossDepartmentSummary(cmd.Context(), days)
				if err != nil {
					return err
				}
				return opts.render(cmd, stats, func(w io.Writer) error { return writeCrossDepartment(w, stats) })
			})
		},
	}
	cross.Flags().IntVar(&days, "days", 30, "look-back in days")

	cmd.AddCommand(user, cross)
	return cmd
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Administrator overview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				s, err := a.engine.Summary(cmd.Context())
				if err != nil {
					return err
				}
				return opts.render(cmd, s, func(w io.Writer) error { return writeSummary(w, s) })
			})
		},
	}
}

func newRetrainCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Train the behaviour model from recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				result, err := a.engine.Retrain(cmd.Context())
				if err != nil {
					return err
				}
				return opts.render(cmd, result, func(w io.Writer) error { return writeRetrain(w, result) })
			})
		},
	}
}

//Personal.AI order the ending
