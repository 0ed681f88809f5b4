package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/retrypolicy/internal/control"
)

var failuresLimit int

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List journaled failed operations",
	RunE:  runFailures,
}

func init() {
	failuresCmd.Flags().IntVar(&failuresLimit, "limit", 20, "maximum number of entries")
	rootCmd.AddCommand(failuresCmd)
}

func runFailures(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	app, err := control.New(ctx, appCfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ops, err := app.Journal().List(ctx, failuresLimit)
	if err != nil {
		return fmt.Errorf("failed to list failed operations: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tOPERATION\tKIND\tREASON\tATTEMPTS\tCREATED\tERROR")
	for _, op := range ops {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			op.ID, op.Operation, op.Kind, op.Reason, op.Attempts,
			op.CreatedAt.Format(time.RFC3339), op.Error)
	}
	return w.Flush()
}
