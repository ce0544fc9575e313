// Package source holds the record collectors and the registry that runs them.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/DrSkyle/datasift/pkg/config"
	"github.com/DrSkyle/datasift/pkg/record"
)

// ErrUnknownSource is returned by NewFromConfig for an unsupported type.
var ErrUnknownSource = errors.New("unknown source type")

// Info describes a source in the run summary.
type Info struct {
	Name string
	Type string
	URL  string
}

// Source defines the interface for record collectors.
type Source interface {
	Info() Info
	// Fetch returns the collected records in a stable order.
	Fetch(ctx context.Context) ([]record.Record, error)
	// Samples returns built-in records used when a live fetch fails.
	Samples() []record.Record
}

// NewFromConfig builds the collector for c.Type.
func NewFromConfig(c config.SourceConfig) (Source, error) {
	switch c.Type {
	case "reddit":
		return NewRedditSource(c), nil
	case "hibp":
		return NewHIBPSource(c), nil
	case "sample":
		return NewStaticSource(Info{Name: "Sample", Type: "Static Sample", URL: ""}, DemoRecords()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, c.Type)
	}
}
