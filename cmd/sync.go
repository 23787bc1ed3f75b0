package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/recordstore"
	"github.com/sells-group/factsync/internal/recordsync"
	"github.com/sells-group/factsync/internal/resilience"
)

// syncFlags holds command-line overrides for a sync run. Unset flags fall
// back to the config file; an explicit 0 disables the delay, cap or filter.
type syncFlags struct {
	job        string
	fields     string
	maxRuntime time.Duration
	writeDelay time.Duration
	stale      time.Duration
	marketHint bool

	// set records which duration flags were given on the command line.
	set map[string]bool
}

// markSet records the duration flags the user passed explicitly.
func (f *syncFlags) markSet(cmd *cobra.Command) {
	f.set = map[string]bool{}
	for _, name := range []string{"max-runtime", "write-delay", "stale"} {
		if fl := cmd.Flags().Lookup(name); fl != nil && fl.Changed {
			f.set[name] = true
		}
	}
}

// duration returns the flag value when it was given (or is positive),
// otherwise the config value.
func (f syncFlags) duration(name string, flag, fromConfig time.Duration) time.Duration {
	if f.set[name] || flag > 0 {
		return flag
	}
	return fromConfig
}

var syncOpts syncFlags

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Resolve facts for every security and write them to Notion",
	Long:  "Pages the Notion security table, resolves the job's fields for each ticker through the provider chains, and writes only the resolved fields back.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("sync"); err != nil {
			return err
		}
		syncOpts.markSet(cmd)
		opts, err := buildSyncOptions(syncOpts, time.Now())
		if err != nil {
			return err
		}
		if opts.Job.Verifies() {
			return eris.New("sync: use the verify command for identity verification")
		}

		env, err := initSyncEnv(ctx, false)
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
	syncCmd.Flags().StringVar(&syncOpts.job, "job", "", "field preset: price, fundamentals, profile, all (default from sync.job)")
	syncCmd.Flags().StringVar(&syncOpts.fields, "fields", "", "comma-separated fields overriding the job preset (e.g. eps,bps)")
	syncCmd.Flags().DurationVar(&syncOpts.maxRuntime, "max-runtime", 0, "stop cleanly after this long (default from sync.max_runtime_mins)")
	syncCmd.Flags().DurationVar(&syncOpts.writeDelay, "write-delay", 0, "minimum delay between record writes (default from sync.write_delay_ms)")
	syncCmd.Flags().DurationVar(&syncOpts.stale, "stale", 0, "only sync records not updated within this window")
	syncCmd.Flags().BoolVar(&syncOpts.marketHint, "write-market-hint", false, "write the resolved market back to the record")
	rootCmd.AddCommand(syncCmd)
}

// buildSyncOptions merges flags over config into driver options.
func buildSyncOptions(f syncFlags, now time.Time) (recordsync.Options, error) {
	jobName := f.job
	if jobName == "" {
		jobName = cfg.Sync.Job
	}
	job, err := recordsync.ParseJob(jobName)
	if err != nil {
		return recordsync.Options{}, err
	}

	fieldList := f.fields
	if fieldList == "" {
		fieldList = cfg.Sync.Fields
	}
	fields, err := model.ParseFields(fieldList)
	if err != nil {
		return recordsync.Options{}, err
	}

	opts := recordsync.Options{
		Job:    job,
		Fields: fields,
		WriteDelay: f.duration("write-delay", f.writeDelay,
			time.Duration(cfg.Sync.WriteDelayMs)*time.Millisecond),
		MaxRuntime: f.duration("max-runtime", f.maxRuntime,
			time.Duration(cfg.Sync.MaxRuntimeMins)*time.Minute),
		WriteMarketHint: f.marketHint || cfg.Sync.WriteMarketHint,
		Retry:           resilience.FromRetryConfig(cfg.Sync.Retry.MaxAttempts, cfg.Sync.Retry.InitialBackoffMs),
	}
	stale := f.duration("stale", f.stale, time.Duration(cfg.Sync.StaleHours)*time.Hour)
	opts.Filter.StaleBefore = recordstore.StaleCutoff(now, stale)
	return opts, nil
}

// formatSummary writes the run totals to w.
func formatSummary(out io.Writer, s recordsync.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if s.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", s.RunID)
	}
	_, _ = fmt.Fprintf(w, "Job:\t%s\n", s.Job)
	_, _ = fmt.Fprintf(w, "Success:\t%d\n", s.Counts.Success)
	_, _ = fmt.Fprintf(w, "Partial:\t%d\n", s.Counts.Partial)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Counts.Failed)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", s.Counts.Skipped)
	_, _ = fmt.Fprintf(w, "Pages:\t%d\n", s.Pages)
	_, _ = fmt.Fprintf(w, "Elapsed:\t%s\n", s.Elapsed.Round(time.Second))
	if s.StoppedEarly {
		_, _ = fmt.Fprintln(w, "Stopped early:\tyes (runtime cap or interrupt)")
	}
	_ = w.Flush()
}
