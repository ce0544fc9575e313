package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/datasift/pkg/engine/report"
	"github.com/DrSkyle/datasift/pkg/pii"
	"github.com/DrSkyle/datasift/pkg/storage"
)

func TestFromSummary(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := FromSummary(report.Summary{
		RunID:             "r1",
		TotalRecords:      5,
		UniqueRecords:     4,
		DuplicatesRemoved: 1,
		PIIDetected:       3,
		PIITypes:          map[pii.Category]int{pii.Email: 2},
		Sources:           []report.SourceSummary{{Name: "a"}, {Name: "b", Error: "boom"}},
		Timestamp:         ts,
	})

	assert.Equal(t, "r1", snap.RunID)
	assert.Equal(t, ts.Unix(), snap.Timestamp)
	assert.Equal(t, 3, snap.PIIRecords)
	assert.Equal(t, map[string]int{"emails": 2}, snap.PIITypes)
	assert.Equal(t, 1, snap.FailedSources)
}

func TestFileBackend_AppendLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.jsonl")
	c := NewClient(NewLocalBackend(path))

	empty, err := c.LoadWindow(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 1; i <= 4; i++ {
		require.NoError(t, c.Append(ctx, Snapshot{RunID: string(rune('a' + i - 1)), TotalRecords: i}))
	}

	window, err := c.LoadWindow(ctx, 2)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "c", window[0].RunID)
	assert.Equal(t, "d", window[1].RunID)
}

func TestFileBackend_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"run_id\":\"a\"}\nnot json\n\n{\"run_id\":\"b\"}\n"), 0644))

	window, err := NewLocalBackend(path).Load(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "b", window[1].RunID)
}

func TestBlobBackend_LocalStore(t *testing.T) {
	ctx := context.Background()
	b := &BlobBackend{Store: storage.NewLocalStore(t.TempDir()), Key: "history/runs.jsonl"}

	window, err := b.Load(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, window)

	require.NoError(t, b.Append(ctx, Snapshot{RunID: "one"}))
	require.NoError(t, b.Append(ctx, Snapshot{RunID: "two"}))

	window, err = b.Load(ctx, 5)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "one", window[0].RunID)
	assert.Equal(t, "two", window[1].RunID)
}

func TestNewBackend_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "l.jsonl")
	b, err := NewBackend(context.Background(), path, storage.S3Options{})
	require.NoError(t, err)

	fb, ok := b.(*FileBackend)
	require.True(t, ok)
	assert.Equal(t, path, fb.Path)
}
