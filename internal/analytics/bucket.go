package analytics

import "time"

// BucketStart returns the first instant of the bucket containing t. Buckets
// are UTC calendar periods, so records stored with different offsets still
// share one bucket per period. Weeks start on Monday. Custom and unknown
// granularities bucket by month.
func BucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	loc := time.UTC
	switch g {
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}

// BucketLabel formats a bucket start for display.
func BucketLabel(start time.Time, g Granularity) string {
	switch g {
	case Daily:
		return start.Format("Jan 02, 2006")
	case Weekly:
		return "Week of " + start.Format("Jan 02, 2006")
	case Yearly:
		return start.Format("2006")
	default:
		return start.Format("Jan 2006")
	}
}
