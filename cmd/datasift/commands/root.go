package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DrSkyle/datasift/pkg/config"
	"github.com/DrSkyle/datasift/pkg/engine"
	"github.com/DrSkyle/datasift/pkg/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "datasift",
	Short: "Public data collector with dedup and PII masking",
	Long: `datasift - Public Records Pipeline

Collect. Deduplicate. Mask.`,
	Version: version.Current,
	// Run: nil (Forces help output).
	Run:           nil,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent Flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $HOME/.datasift.yaml)")
	pf.String("output", config.DefaultOutputDir, "Output directory or s3://bucket/prefix")
	pf.String("history", "", "Run ledger: file path or s3://bucket/key (default ~/.datasift/ledger.jsonl)")
	pf.Bool("no-history", false, "Do not record the run in the ledger")
	pf.String("rules", "", "YAML file with CEL record rules")
	pf.String("slack-webhook", "", "Slack Webhook URL")
	pf.String("slack-channel", "", "Slack channel override")
	pf.Bool("strict", false, "Exit non-zero when a source fails")
	pf.Int("concurrency", config.DefaultMaxConcurrency, "Masking workers")
	pf.Bool("json-logs", false, "Log as JSON")
	pf.BoolP("verbose", "v", false, "Debug logging")
	pf.String("otel-endpoint", "", "OTLP/HTTP endpoint for traces")
	pf.String("s3-endpoint", "", "S3-compatible endpoint (LocalStack, MinIO)")
	pf.String("s3-region", "", "S3 region")

	bind := map[string]string{
		"output_dir":      "output",
		"history_url":     "history",
		"disable_history": "no-history",
		"rules_file":      "rules",
		"slack_webhook":   "slack-webhook",
		"slack_channel":   "slack-channel",
		"strict":          "strict",
		"max_concurrency": "concurrency",
		"json_logs":       "json-logs",
		"verbose":         "verbose",
		"otel_endpoint":   "otel-endpoint",
		"s3.endpoint":     "s3-endpoint",
		"s3.region":       "s3-region",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".datasift.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("DATASIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to read config %s: %v\n", cfgFile, err)
	}
}

// loadConfig merges defaults, the config file, env and flags.
func loadConfig() (engine.Config, error) {
	cfg := engine.Config{
		Sources:        config.DefaultSources(),
		Analysis:       config.DefaultAnalysis(),
		SampleFallback: true,
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("DATASIFT %s", version.Current)))
	fmt.Println("Collects public records, removes duplicates and masks PII.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Println(titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Println("")
	}

	fmt.Println(titleStyle.Render("EXAMPLES"))
	fmt.Println("  datasift collect                          # Reddit + HIBP into ./datasift-out")
	fmt.Println("  datasift collect --output s3://bucket/run # Write artifacts to S3")
	fmt.Println("  datasift demo                             # Offline demo data set")
	fmt.Println("  echo 'mail a.b@c.io' | datasift sanitize  # Mask free text")
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}
