package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/factsync/internal/recordsync"
)

var (
	verifyOpts syncFlags
	verifyAll  bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify that each record's stored name matches the listed company",
	Long:  "Resolves each security's company name, compares it to the stored name and falls back to a budgeted web search. Writes the verdict and audit trail to the record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("verify"); err != nil {
			return err
		}
		verifyOpts.markSet(cmd)
		f := verifyOpts
		f.job = string(recordsync.JobVerify)
		opts, err := buildSyncOptions(f, time.Now())
		if err != nil {
			return err
		}
		opts.Filter.Unverified = cfg.Verify.UnverifiedOnly && !verifyAll

		env, err := initSyncEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Driver.Run(ctx, opts)
		writeMetrics(env.Metrics)
		formatSummary(os.Stdout, summary)
		return err
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "re-verify records already marked Verified")
	verifyCmd.Flags().DurationVar(&verifyOpts.maxRuntime, "max-runtime", 0, "stop cleanly after this long (default from sync.max_runtime_mins)")
	verifyCmd.Flags().DurationVar(&verifyOpts.writeDelay, "write-delay", 0, "minimum delay between record writes (default from sync.write_delay_ms)")
	rootCmd.AddCommand(verifyCmd)
}
