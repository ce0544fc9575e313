package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/datasift/pkg/pii"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [text]",
	Short: "Mask PII in free text (reads stdin without an argument)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			text = string(data)
		}
		fmt.Fprint(cmd.OutOrStdout(), pii.NewScanner(pii.DefaultPatterns()).SanitizeText(text))
		if len(args) > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)
}
