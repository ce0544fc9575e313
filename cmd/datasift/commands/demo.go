package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/datasift/pkg/dedup"
	"github.com/DrSkyle/datasift/pkg/engine"
	"github.com/DrSkyle/datasift/pkg/engine/source"
	"github.com/DrSkyle/datasift/pkg/pii"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the pipeline on the built-in PII demo set (no network)",
	Long: `Run the full pipeline on five built-in records laden with PII.

The demo dedups on title and content, so the repeated post is reported as a
duplicate. History and Slack are disabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Dedup = dedup.Options{Fields: []string{"title", "content"}}
		cfg.DisableHistory = true
		cfg.SlackWebhook = ""

		demo := source.DemoRecords()
		masked, err := pii.NewScanner(pii.DefaultPatterns()).ScanAndMask(demo[0])
		if err != nil {
			return err
		}
		fmt.Println(headerStyle.Render("PII Masking Example"))
		fmt.Println("  Before:", demo[0]["content"])
		fmt.Println("  After: ", masked.Masked["content"])
		fmt.Println()

		return runEngine(cmd.Context(), cfg, engine.WithSources(source.DemoSources()...))
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
