package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/datasift/pkg/engine/report"
)

func TestSendRunReport(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSlackClient(srv.URL, "#data")
	err := c.SendRunReport(context.Background(), report.Summary{
		RunID:        "r1",
		TotalRecords: 5,
		PIIDetected:  3,
		Sources:      []report.SourceSummary{{Name: "HaveIBeenPwned", Error: "timeout"}},
		Timestamp:    time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "#data", got["channel"])
	blocks := got["blocks"].([]any)
	require.Len(t, blocks, 5)
	header := blocks[0].(map[string]any)["text"].(map[string]any)["text"].(string)
	assert.Contains(t, header, "Data Collection Report")
	failures := blocks[4].(map[string]any)["text"].(map[string]any)["text"].(string)
	assert.Contains(t, failures, "HaveIBeenPwned")
}

func TestSendRunReport_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewSlackClient(srv.URL, "").SendRunReport(context.Background(), report.Summary{})
	assert.ErrorContains(t, err, "403")
}

func TestSend_NoWebhookIsNoop(t *testing.T) {
	c := NewSlackClient("", "")
	assert.NoError(t, c.SendRunReport(context.Background(), report.Summary{}))
	assert.NoError(t, c.SendTrendAlert(context.Background(), []string{"x"}))
}

func TestSendTrendAlert(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSlackClient(srv.URL, "")
	require.NoError(t, c.SendTrendAlert(context.Background(), nil))
	assert.Equal(t, 0, calls)

	require.NoError(t, c.SendTrendAlert(context.Background(), []string{"[WARNING] PII SPIKE"}))
	assert.Equal(t, 1, calls)
}
