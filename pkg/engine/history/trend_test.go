package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_Empty(t *testing.T) {
	tr := Analyze(nil)
	assert.Empty(t, tr.Alerts)
	assert.Zero(t, tr.PIIRate)
}

func TestAnalyze_SingleRun(t *testing.T) {
	tr := Analyze([]Snapshot{{RunID: "a", TotalRecords: 10, UniqueRecords: 8, DuplicatesRemoved: 2, PIIRecords: 2}})

	assert.InDelta(t, 0.25, tr.PIIRate, 1e-9)
	assert.InDelta(t, 0.2, tr.DuplicateRate, 1e-9)
	assert.Empty(t, tr.Alerts)
}

func TestAnalyze_PIISpikeAndVolumeDrop(t *testing.T) {
	tr := Analyze([]Snapshot{
		{RunID: "a", TotalRecords: 40, UniqueRecords: 40, PIIRecords: 4},
		{RunID: "b", TotalRecords: 10, UniqueRecords: 10, PIIRecords: 6, FailedSources: 1},
	})

	assert.InDelta(t, 0.1, tr.PreviousPIIRate, 1e-9)
	assert.InDelta(t, 0.6, tr.PIIRate, 1e-9)
	assert.Equal(t, -30, tr.RecordDelta)
	assert.Len(t, tr.Alerts, 3)
	assert.Contains(t, tr.Alerts[0], "SOURCE FAILURE")
	assert.Contains(t, tr.Alerts[1], "PII SPIKE")
	assert.Contains(t, tr.Alerts[2], "VOLUME DROP")
}

func TestAnalyze_Stable(t *testing.T) {
	tr := Analyze([]Snapshot{
		{TotalRecords: 40, UniqueRecords: 38, PIIRecords: 4},
		{TotalRecords: 42, UniqueRecords: 39, PIIRecords: 5},
	})
	assert.Empty(t, tr.Alerts)
	assert.Equal(t, 2, tr.RecordDelta)
}
