package util

import "time"

// KST is the fixed Korea Standard Time zone used by every upstream feed.
var KST = time.FixedZone("Asia/Seoul", 9*60*60)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseCompactKST parses upstream timestamps such as "202407011230", "2024070112" or "20240701".
func ParseCompactKST(value string) (time.Time, bool) {
	layouts := map[int]string{
		12: "200601021504",
		10: "2006010215",
		8:  "20060102",
		16: "2006-01-02 15:04",
		19: "2006-01-02 15:04:05",
	}
	layout, ok := layouts[len(value)]
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(layout, value, KST)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
