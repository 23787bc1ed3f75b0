package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/factsync/internal/metrics"
	"github.com/sells-group/factsync/internal/model"
	"github.com/sells-group/factsync/internal/resolve"
)

var (
	resolveHint   string
	resolveFields string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <ticker>",
	Short: "Resolve facts for one ticker and print them as JSON",
	Long:  "Dry run of the provider chains for a single ticker. Nothing is read from or written to Notion or the run store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("resolve"); err != nil {
			return err
		}
		fields := model.AllFields
		if resolveFields != "" {
			parsed, err := model.ParseFields(resolveFields)
			if err != nil {
				return err
			}
			fields = parsed
		}

		resolver, err := buildResolver(metrics.New())
		if err != nil {
			return err
		}
		res := resolver.Resolve(ctx, args[0], resolveHint, fields)
		return writeResolution(os.Stdout, res)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveHint, "hint", "", "market hint (e.g. KOSPI, 코스닥, NASDAQ)")
	resolveCmd.Flags().StringVar(&resolveFields, "fields", "", "comma-separated fields (default all)")
	rootCmd.AddCommand(resolveCmd)
}

func writeResolution(w io.Writer, res resolve.Resolution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}
