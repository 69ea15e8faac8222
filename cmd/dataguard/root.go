package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/infrastructure/monitoring"
)

// rootOptions carries what PersistentPreRunE prepares for every subcommand.
type rootOptions struct {
	configFile string
	jsonOut    bool

	loader *config.Loader
	cfg    *config.Config
	log    *monitoring.ZapLogger
}

// newRootCmd builds the command tree. Tests build a fresh tree per run.
// newRootCmd 构建完整的命令树，测试中每次运行都会新建一棵。
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "dataguard",
		Short: "Document integrity and access-anomaly engine",
		Long: `dataguard versions documents, detects out-of-band tampering, scores document
access against learned behaviour and keeps a deduplicated alert ledger.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.loader = config.NewLoader(opts.configFile)
			cfg, err := opts.loader.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// one-shot commands keep stdout for their own output
			if cmd.Name() != "serve" && (cfg.Log.OutputPath == "" || cfg.Log.OutputPath == "stdout") {
				cfg.Log.OutputPath = "stderr"
			}
			log, err := monitoring.NewZapLogger(&cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.cfg = cfg
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.yaml or /etc/dataguard/config.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		newServeCmd(opts),
		newCommitCmd(opts),
		newVerifyCmd(opts),
		newDocumentsCmd(opts),
		newVersionsCmd(opts),
		newDiffCmd(opts),
		newEvaluateCmd(opts),
		newAlertsCmd(opts),
		newReportCmd(opts),
		newSummaryCmd(opts),
		newRetrainCmd(opts),
	)
	return cmd
}

// withApp opens the engine for one command and closes it afterwards.
func (o *rootOptions) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx, o.cfg, o.log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

//Personal.AI order the ending
