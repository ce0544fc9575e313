package history

import "fmt"

// Thresholds for trend alerts.
const (
	PIIRateJump     = 0.20
	VolumeDropRatio = 0.5
)

// Trend compares the latest run to the one before it.
type Trend struct {
	PIIRate         float64 // records with PII / unique records
	PreviousPIIRate float64
	DuplicateRate   float64 // duplicates / collected
	RecordDelta     int     // collected now - collected before

	Alerts []string
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// Analyze derives the trend from a window ordered oldest first.
func Analyze(window []Snapshot) Trend {
	if len(window) == 0 {
		return Trend{}
	}

	current := window[len(window)-1]
	t := Trend{
		PIIRate:       ratio(current.PIIRecords, current.UniqueRecords),
		DuplicateRate: ratio(current.DuplicatesRemoved, current.TotalRecords),
	}

	if current.FailedSources > 0 {
		t.Alerts = append(t.Alerts, fmt.Sprintf("[WARNING] SOURCE FAILURE: %d source(s) failed in run %s", current.FailedSources, current.RunID))
	}

	if len(window) < 2 {
		return t
	}

	prev := window[len(window)-2]
	t.PreviousPIIRate = ratio(prev.PIIRecords, prev.UniqueRecords)
	t.RecordDelta = current.TotalRecords - prev.TotalRecords

	if t.PIIRate-t.PreviousPIIRate > PIIRateJump {
		t.Alerts = append(t.Alerts, fmt.Sprintf("[WARNING] PII SPIKE: %.0f%% of records carried PII, up from %.0f%%", t.PIIRate*100, t.PreviousPIIRate*100))
	}

	if prev.TotalRecords > 0 && float64(current.TotalRecords) < float64(prev.TotalRecords)*VolumeDropRatio {
		t.Alerts = append(t.Alerts, fmt.Sprintf("[WARNING] VOLUME DROP: collected %d records, down from %d", current.TotalRecords, prev.TotalRecords))
	}

	return t
}
