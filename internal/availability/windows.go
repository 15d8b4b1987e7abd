package availability

import (
	"sort"
	"time"

	"icpep-backend/internal/models"
)

// mergeWindows clips each window to [from, to] and returns the disjoint,
// sorted union. Touching windows are joined.
func mergeWindows(in []models.TimeWindow, from, to time.Time) []models.TimeWindow {
	clipped := make([]models.TimeWindow, 0, len(in))
	for _, w := range in {
		if w.Start.Before(from) {
			w.Start = from
		}
		if w.End.After(to) {
			w.End = to
		}
		if w.End.After(w.Start) {
			clipped = append(clipped, w)
		}
	}
	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Start.Before(clipped[j].Start) })

	var out []models.TimeWindow
	for _, w := range clipped {
		if n := len(out); n > 0 && !w.Start.After(out[n-1].End) {
			if w.End.After(out[n-1].End) {
				out[n-1].End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// intersectWindows expects both inputs sorted and disjoint.
func intersectWindows(a, b []models.TimeWindow) []models.TimeWindow {
	var out []models.TimeWindow
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if end.After(start) {
			out = append(out, models.TimeWindow{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
