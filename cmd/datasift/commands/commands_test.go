package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/datasift/pkg/engine"
	"github.com/DrSkyle/datasift/pkg/engine/report"
	"github.com/DrSkyle/datasift/pkg/pii"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSanitizeCommand_Args(t *testing.T) {
	out := execute(t, "", "sanitize", "call", "555-123-4567")
	assert.Equal(t, "call ***-***-****\n", out)
}

func TestSanitizeCommand_Stdin(t *testing.T) {
	out := execute(t, "mail john.doe@example.com", "sanitize")
	assert.Equal(t, "mail jo******@example.com", out)
}

func TestSimilarCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"title": "Data breach at TechCorp"},
		{"title": "Data breach at TechCorp!"},
		{"title": "unrelated"}
	]`), 0644))

	out := execute(t, "", "similar", path, "--threshold", "0.9")
	assert.Contains(t, out, "1 similar pair(s)")
	assert.Contains(t, out, "#0 ~ #1")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "T", label(map[string]any{"title": "T", "name": "N"}))
	assert.Equal(t, "N", label(map[string]any{"name": "N"}))
	assert.Equal(t, "(untitled)", label(map[string]any{}))
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	printRunSummary(&buf, &engine.Result{
		Summary: report.Summary{
			RunID:             "run-1",
			Sources:           []report.SourceSummary{{Name: "HaveIBeenPwned", RecordsCollected: 3, Fallback: true, Error: "timeout"}},
			TotalRecords:      3,
			DuplicatesRemoved: 0,
			PIIDetected:       1,
			PIITypes:          map[pii.Category]int{pii.Email: 2},
			FinalRecords:      3,
		},
		Artifacts: []string{"datasift-out/summary.json"},
	})

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "emails=2")
	assert.Contains(t, out, "sample data: timeout")
	assert.Contains(t, out, "datasift-out/summary.json")
}

func TestDemoCommand_DescribesDedupFields(t *testing.T) {
	assert.Contains(t, demoCmd.Long, "dedups on title and content")
}
