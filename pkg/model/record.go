package model

import "time"

// TimestampLayout is the layout of Record.Timestamp (local time).
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultPrefixLength is the number of summary characters compared when
// deciding whether two records describe the same news.
const DefaultPrefixLength = 50

// Record is one archived curation result
type Record struct {
	Timestamp  string `json:"timestamp"`
	Analysis   string `json:"analysis"`
	Summary    string `json:"summary"`
	Source     string `json:"source"`
	Commentary string `json:"commentary"`
}

// Stamp sets Timestamp from t in local time
func (r *Record) Stamp(t time.Time) {
	r.Timestamp = t.Local().Format(TimestampLayout)
}

// DedupKey returns the first n characters (code points) of summary, or the
// whole summary if it is shorter.
func DedupKey(summary string, n int) string {
	if n <= 0 {
		return summary
	}

	count := 0
	for i := range summary {
		if count == n {
			return summary[:i]
		}
		count++
	}
	return summary
}
