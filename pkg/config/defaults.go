// Package config defines default source, dedup and analysis settings.
package config

import "time"

// SourceConfig describes one collector.
type SourceConfig struct {
	// Type selects the fetcher: "reddit", "hibp" or "sample".
	Type string `mapstructure:"type" yaml:"type"`
	// BaseURL overrides the public endpoint (tests, mirrors).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Subreddits is only read by the reddit fetcher.
	Subreddits []string `mapstructure:"subreddits" yaml:"subreddits"`
	// Limit caps records per request (reddit) or per source (hibp).
	Limit int `mapstructure:"limit" yaml:"limit"`
	// Interval is the minimum spacing between requests.
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// AnalysisConfig holds the optional similarity pass settings.
type AnalysisConfig struct {
	FindSimilar bool    `mapstructure:"find_similar" yaml:"find_similar"`
	Threshold   float64 `mapstructure:"threshold" yaml:"threshold"`
}

// Defaults.
const (
	DefaultOutputDir      = "datasift-out"
	DefaultMaxConcurrency = 8
	DefaultRedditURL      = "https://www.reddit.com"
	DefaultHIBPURL        = "https://haveibeenpwned.com/api/v3"
	DefaultRedditLimit    = 10
	DefaultHIBPLimit      = 15
	SelftextLimit         = 500
	DefaultThreshold      = 0.8
	browserUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	apiUserAgent          = "datasift-collector"
)

// DefaultSubreddits are the public security forums polled by default.
func DefaultSubreddits() []string {
	return []string{"security", "netsec", "privacy"}
}

// DefaultSources returns the reddit and hibp collectors with their public
// endpoints. Reddit requests are spaced one second apart.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Type:       "reddit",
			BaseURL:    DefaultRedditURL,
			Subreddits: DefaultSubreddits(),
			Limit:      DefaultRedditLimit,
			Interval:   time.Second,
			Timeout:    15 * time.Second,
			UserAgent:  browserUserAgent,
		},
		{
			Type:      "hibp",
			BaseURL:   DefaultHIBPURL,
			Limit:     DefaultHIBPLimit,
			Timeout:   15 * time.Second,
			UserAgent: apiUserAgent,
		},
	}
}

// DefaultAnalysis leaves the similarity pass off.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		FindSimilar: false,
		Threshold:   DefaultThreshold,
	}
}
