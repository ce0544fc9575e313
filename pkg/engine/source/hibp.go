package source

import (
	"context"
	"strings"

	"github.com/DrSkyle/datasift/pkg/config"
	"github.com/DrSkyle/datasift/pkg/record"
)

type hibpBreach struct {
	Name         string   `json:"Name"`
	Title        string   `json:"Title"`
	Domain       string   `json:"Domain"`
	BreachDate   string   `json:"BreachDate"`
	AddedDate    string   `json:"AddedDate"`
	ModifiedDate string   `json:"ModifiedDate"`
	PwnCount     float64  `json:"PwnCount"`
	Description  string   `json:"Description"`
	DataClasses  []string `json:"DataClasses"`
	IsVerified   bool     `json:"IsVerified"`
	IsSensitive  bool     `json:"IsSensitive"`
	IsRetired    bool     `json:"IsRetired"`
	LogoPath     string   `json:"LogoPath"`
}

// HIBPSource reads the public breach catalogue. Only breach metadata is
// collected.
type HIBPSource struct {
	cfg    config.SourceConfig
	client *httpClient
}

func NewHIBPSource(cfg config.SourceConfig) *HIBPSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultHIBPURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = config.DefaultHIBPLimit
	}
	return &HIBPSource{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout, cfg.Interval, cfg.UserAgent),
	}
}

func (s *HIBPSource) Info() Info {
	return Info{
		Name: "HaveIBeenPwned",
		Type: "Public Breach Database",
		URL:  "https://haveibeenpwned.com/API/v3",
	}
}

// Fetch returns the first Limit breaches in catalogue order.
func (s *HIBPSource) Fetch(ctx context.Context) ([]record.Record, error) {
	var breaches []hibpBreach
	if err := s.client.getJSON(ctx, strings.TrimRight(s.cfg.BaseURL, "/")+"/breaches", &breaches); err != nil {
		return nil, err
	}
	if len(breaches) > s.cfg.Limit {
		breaches = breaches[:s.cfg.Limit]
	}

	out := make([]record.Record, len(breaches))
	for i, b := range breaches {
		out[i] = breachRecord(b)
	}
	return out, nil
}

func breachRecord(b hibpBreach) record.Record {
	classes := make([]any, len(b.DataClasses))
	for i, c := range b.DataClasses {
		classes[i] = c
	}
	return record.Record{
		"id":            b.Name,
		"source":        "HaveIBeenPwned",
		"name":          b.Name,
		"title":         b.Title,
		"domain":        b.Domain,
		"breach_date":   b.BreachDate,
		"added_date":    b.AddedDate,
		"modified_date": b.ModifiedDate,
		"pwn_count":     b.PwnCount,
		"description":   b.Description,
		"data_classes":  classes,
		"is_verified":   b.IsVerified,
		"is_sensitive":  b.IsSensitive,
		"is_retired":    b.IsRetired,
		"logo_path":     b.LogoPath,
		"type":          "breach_metadata",
		"tags":          []any{"breach_info", "public_database", "metadata_only"},
	}
}

func (s *HIBPSource) Samples() []record.Record {
	return []record.Record{
		breachRecord(hibpBreach{
			Name: "Adobe", Title: "Adobe", Domain: "adobe.com",
			BreachDate: "2013-10-04", AddedDate: "2013-12-04", ModifiedDate: "2013-12-04",
			PwnCount:    152445165,
			Description: "In October 2013, 153 million Adobe accounts were breached with each containing an internal ID, username, email, encrypted password and a password hint in plain text.",
			DataClasses: []string{"Email addresses", "Password hints", "Passwords", "Usernames"},
			IsVerified:  true,
			LogoPath:    "https://haveibeenpwned.com/Content/Images/PwnedLogos/Adobe.png",
		}),
		breachRecord(hibpBreach{
			Name: "LinkedIn", Title: "LinkedIn", Domain: "linkedin.com",
			BreachDate: "2012-05-05", AddedDate: "2016-05-21", ModifiedDate: "2016-05-21",
			PwnCount:    164611595,
			Description: "In May 2012, LinkedIn was breached and over 100 million user accounts were compromised.",
			DataClasses: []string{"Email addresses", "Passwords"},
			IsVerified:  true,
			LogoPath:    "https://haveibeenpwned.com/Content/Images/PwnedLogos/LinkedIn.png",
		}),
		breachRecord(hibpBreach{
			Name: "Dropbox", Title: "Dropbox", Domain: "dropbox.com",
			BreachDate: "2012-07-01", AddedDate: "2016-08-31", ModifiedDate: "2016-08-31",
			PwnCount:    68648009,
			Description: "In mid-2012, Dropbox suffered a data breach which exposed the stored credentials of tens of millions of their customers.",
			DataClasses: []string{"Email addresses", "Passwords"},
			IsVerified:  true,
			LogoPath:    "https://haveibeenpwned.com/Content/Images/PwnedLogos/Dropbox.png",
		}),
	}
}
