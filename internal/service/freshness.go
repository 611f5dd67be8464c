package service

import (
	"fmt"
	"time"

	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// Freshness describes how old the newest cached snapshot is.
type Freshness struct {
	Latest    snapshot.Snapshot `json:"latest"`
	HasData   bool              `json:"has_data"`
	Parsed    bool              `json:"parsed"`
	Fresh     bool              `json:"fresh"`
	Age       time.Duration     `json:"age"`
	MaxAge    time.Duration     `json:"max_age"`
	CheckedAt time.Time         `json:"checked_at"`
}

func CheckFreshness(list []snapshot.Snapshot, now time.Time, maxAge time.Duration) Freshness {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	f := Freshness{MaxAge: maxAge, CheckedAt: now}
	latest, ok := snapshot.Latest(list)
	if !ok {
		return f
	}
	f.Latest = latest
	f.HasData = true
	age, err := latest.Age(now)
	if err != nil {
		return f
	}
	f.Parsed = true
	f.Age = age
	f.Fresh = age <= maxAge
	return f
}

func (f Freshness) String() string {
	switch {
	case !f.HasData:
		return "no cached data"
	case !f.Parsed:
		return fmt.Sprintf("cannot read timestamp %q", f.Latest.Timestamp)
	case f.Fresh:
		return fmt.Sprintf("fresh (age %s)", f.Age.Round(time.Minute))
	}
	return fmt.Sprintf("stale (age %s, max %s)", f.Age.Round(time.Minute), f.MaxAge)
}
