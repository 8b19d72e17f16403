// Package timeline merges GPS fixes and live sensor samples into one
// timestamp-ordered sequence.
package timeline

import (
	"sort"
	"time"

	"github.com/meltforce/shealth2tcx/internal/models"
)

// Timeline is an ordered mapping from epoch-millisecond timestamp to merged sample.
type Timeline struct {
	keys    []int64
	samples map[int64]*models.MergedSample
}

func newTimeline() *Timeline {
	return &Timeline{samples: make(map[int64]*models.MergedSample)}
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	return len(t.keys)
}

// Keys returns the timestamps in ascending order.
func (t *Timeline) Keys() []int64 {
	out := make([]int64, len(t.keys))
	copy(out, t.keys)
	return out
}

// Get returns a copy of the sample at ts.
func (t *Timeline) Get(ts int64) (models.MergedSample, bool) {
	s, ok := t.samples[ts]
	if !ok {
		return models.MergedSample{}, false
	}
	return *s, true
}

// Samples returns copies of all entries in ascending timestamp order.
func (t *Timeline) Samples() []models.MergedSample {
	out := make([]models.MergedSample, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, *t.samples[k])
	}
	return out
}

// insert adds an entry holding only the formatted time if ts is not present.
func (t *Timeline) insert(ts int64) *models.MergedSample {
	if s, ok := t.samples[ts]; ok {
		return s
	}
	s := &models.MergedSample{Timestamp: ts, Time: FormatTime(ts)}
	t.samples[ts] = s
	t.keys = append(t.keys, ts)
	return s
}

func (t *Timeline) sortKeys() {
	sort.Slice(t.keys, func(i, j int) bool { return t.keys[i] < t.keys[j] })
}

// FormatTime formats an epoch-millisecond timestamp as UTC ISO-8601 with the
// fractional part always written as ".000".
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05") + ".000Z"
}
