package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/facturae-processor/internal/codes"
)

var codesCmd = &cobra.Command{
	Use:   "codes [table]",
	Short: "List the code tables used to resolve coded values",
	Long: `List the bundled code tables: payment means, tax types, administrative
centre roles, invoice classes and document types.

Examples:
  facturae-processor codes
  facturae-processor codes payment-means -f table`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCodes,
}

func init() {
	rootCmd.AddCommand(codesCmd)
}

func runCodes(cmd *cobra.Command, args []string) error {
	resolver := cfg.Resolver()

	tables := resolver.Tables()
	if len(args) == 1 {
		t, ok := resolver.Table(codes.TableID(args[0]))
		if !ok {
			return fmt.Errorf("unknown table: %s", args[0])
		}
		tables = []codes.Table{t}
	}

	if outputFormat == "json" {
		return outputJSON(os.Stdout, tables)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, t := range tables {
		fmt.Fprintf(tw, "%s (%s)\n", t.ID, t.Version)
		for _, code := range codes.SortedCodes(t) {
			fmt.Fprintf(tw, "  %s\t%s\n", code, t.Entries[code])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
