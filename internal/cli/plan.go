package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/retrypolicy/internal/core/retry"
)

var (
	planCategory string
	planAttempts int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the retry schedule for a failure category",
	Long: `plan classifies the category for each attempt and evaluates it against the
configured policy, printing the delay before each retry and the terminal reason.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planCategory, "category", "Throttling", "failure category to simulate")
	planCmd.Flags().IntVar(&planAttempts, "attempts", 0, "attempts to simulate (default: max_attempts)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	engine, err := appCfg.Engine()
	if err != nil {
		return err
	}
	return writePlan(cmd.OutOrStdout(), engine, appCfg.Retry, planCategory, planAttempts)
}

func writePlan(out io.Writer, engine *retry.Engine, cfg retry.Config, category string, attempts int) error {
	if attempts <= 0 {
		attempts = cfg.MaxAttempts
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ATTEMPT\tKIND\tDECISION\tDELAY")

	var total time.Duration
	for attempt := 1; attempt <= attempts; attempt++ {
		report := engine.Classify(category, attempt)
		decision := engine.Evaluate(report, cfg)

		if decision.Terminal() {
			_, _ = fmt.Fprintf(w, "%d\t%s\tstop: %s\t-\n", attempt, report.Kind, decision.TerminalReason)
			break
		}
		total += decision.Delay
		_, _ = fmt.Fprintf(w, "%d\t%s\tretry\t%s\n", attempt, report.Kind, decision.Delay)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "total wait: %s\n", total)
	return err
}
