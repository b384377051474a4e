// Package clock provides the single time source used across the core.
//
// The AIOP exporter, session context, and run index all need UTC
// millisecond timestamps with monotonic-non-decreasing guarantees within
// a file. Centralizing the call here means tests can assert format and
// ordering without depending on any package's internal clock field.
package clock

import "time"

// NowMS returns the current UTC time in Unix milliseconds.
func NowMS() int64 {
	return time.Now().UTC().UnixMilli()
}

// FormatRFC3339Milli renders a UTC millisecond timestamp as an
// RFC3339 string with millisecond precision, e.g. "2026-07-29T10:00:00.123Z".
func FormatRFC3339Milli(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// RunTSIsoBasic renders a UTC millisecond timestamp in the
// "iso_basic_z" form used for run-log directory names: YYYYMMDDTHHMMSSZ.
func RunTSIsoBasic(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("20060102T150405Z")
}
