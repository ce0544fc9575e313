package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/datasift/pkg/config"
	"github.com/DrSkyle/datasift/pkg/dedup"
	"github.com/DrSkyle/datasift/pkg/record"
)

var similarCmd = &cobra.Command{
	Use:   "similar <records.json>",
	Short: "List near-duplicate record pairs in a JSON array file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		records, err := record.Decode(data)
		if err != nil {
			return err
		}

		pairs, err := dedup.FindSimilarPairs(records, threshold)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(pairs) == 0 {
			fmt.Fprintf(out, "No pairs at or above %.2f among %d records.\n", threshold, len(records))
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d similar pair(s)", len(pairs))))
		for _, p := range pairs {
			fmt.Fprintf(out, "  #%d ~ #%d  %.3f  %s | %s\n", p.IndexA, p.IndexB, p.Score,
				label(records[p.IndexA]), label(records[p.IndexB]))
		}
		return nil
	},
}

// label picks a short human name for a record.
func label(r record.Record) string {
	for _, k := range []string{"title", "name", "id"} {
		if s := record.StringValue(r[k]); s != "" {
			return s
		}
	}
	return "(untitled)"
}

func init() {
	rootCmd.AddCommand(similarCmd)
	similarCmd.Flags().Float64("threshold", config.DefaultThreshold, "Minimum similarity score")
}
