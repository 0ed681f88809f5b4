package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <category>...",
	Short: "Show how categories map to failure kinds",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	engine, err := appCfg.Engine()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tKIND\tRETRYABLE")
	for _, category := range args {
		report := engine.Classify(category, 1)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\n", category, report.Kind, report.Retryable)
	}
	return w.Flush()
}
