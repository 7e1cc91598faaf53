package evtx

import "time"

// Seconds between the FILETIME epoch (1601-01-01) and the Unix epoch.
const filetimeEpochSeconds = 11644473600

// fromFiletimeUTC converts a Windows FILETIME (100-nanosecond intervals
// since 1601, UTC) to a time.Time. ok is false when the result cannot be
// rendered as a four-digit year.
func fromFiletimeUTC(ft uint64) (t time.Time, ok bool) {
	secs := int64(ft/10_000_000) - filetimeEpochSeconds
	nsec := int64(ft%10_000_000) * 100
	t = time.Unix(secs, nsec).UTC()
	return t, t.Year() <= 9999
}
