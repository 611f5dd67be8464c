package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bangkok is the source's wall clock (UTC+7, no DST).
var Bangkok = time.FixedZone("ICT", 7*60*60)

const buddhistOffset = 543

// ParseTimestamp reads "dd/mm/yyyy HH:MM" with a Buddhist-era year, as
// printed by the source. Seconds are accepted but optional.
func ParseTimestamp(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("timestamp %q: want date and time", s)
	}
	dmy := strings.Split(parts[0], "/")
	if len(dmy) != 3 {
		return time.Time{}, fmt.Errorf("timestamp %q: bad date", s)
	}
	year, err := strconv.Atoi(dmy[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: bad year", s)
	}
	if year > 2400 {
		year -= buddhistOffset
	}

	layout := "2/1/2006 15:04"
	if strings.Count(parts[1], ":") == 2 {
		layout = "2/1/2006 15:04:05"
	}
	t, err := time.ParseInLocation(layout, fmt.Sprintf("%s/%s/%d %s", dmy[0], dmy[1], year, parts[1]), Bangkok)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t, nil
}

// BuddhistDate formats the calendar date of t in Bangkok as dd/mm/yyyy with
// a Buddhist-era year.
func BuddhistDate(t time.Time) string {
	t = t.In(Bangkok)
	return fmt.Sprintf("%02d/%02d/%d", t.Day(), int(t.Month()), t.Year()+buddhistOffset)
}

// FormatTimestamp is the inverse of ParseTimestamp at minute precision.
func FormatTimestamp(t time.Time) string {
	return BuddhistDate(t) + " " + t.In(Bangkok).Format("15:04")
}

// Age is how old the snapshot's timestamp is at now.
func (s Snapshot) Age(now time.Time) (time.Duration, error) {
	t, err := ParseTimestamp(s.Timestamp)
	if err != nil {
		return 0, err
	}
	return now.Sub(t), nil
}
