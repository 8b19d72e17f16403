package timeline

import (
	"sort"

	"github.com/meltforce/shealth2tcx/internal/models"
)

// Merge combines GPS fixes and live sensor samples into one timeline.
//
// Location samples lacking either coordinate are dropped. Each live sample
// whose timestamp is not already a key is snapped to the nearest location
// timestamp (ties go to the earlier one); when there is no location data the
// live sample keeps its own timestamp. Heart rate and cadence overwrite
// whatever the target entry held (last write wins). Finally heart rate is
// forward-filled in timestamp order, starting from 0.
func Merge(locations []models.LocationSample, live []models.LiveSample) *Timeline {
	t := newTimeline()

	for _, loc := range locations {
		if !loc.HasPosition() {
			continue
		}
		s := t.insert(loc.Timestamp)
		lat, lon := *loc.Latitude, *loc.Longitude
		s.Latitude = &lat
		s.Longitude = &lon
	}

	t.sortKeys()
	anchors := t.Keys()

	for _, ls := range live {
		ts := ls.Timestamp
		if _, ok := t.samples[ts]; !ok && len(anchors) > 0 {
			ts = nearest(anchors, ts)
		}
		s := t.insert(ts)
		if ls.HeartRate != nil {
			hr := *ls.HeartRate
			s.HeartRate = &hr
		}
		if ls.Cadence != nil {
			c := *ls.Cadence
			s.Cadence = &c
		}
	}

	t.sortKeys()
	t.forwardFillHeartRate()
	return t
}

// nearest returns the key in sorted keys with the smallest absolute distance
// to ts. On a tie the smaller key wins.
func nearest(keys []int64, ts int64) int64 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= ts })
	if i == 0 {
		return keys[0]
	}
	if i == len(keys) {
		return keys[len(keys)-1]
	}
	before, after := keys[i-1], keys[i]
	if after-ts < ts-before {
		return after
	}
	return before
}

// forwardFillHeartRate sets every entry's heart rate to its own value when
// present, else the most recent earlier value, else 0. A reading of 0 is a
// value like any other and resets the running value.
func (t *Timeline) forwardFillHeartRate() {
	last := 0
	for _, k := range t.keys {
		s := t.samples[k]
		if s.HeartRate != nil {
			last = *s.HeartRate
		}
		hr := last
		s.HeartRate = &hr
	}
}
