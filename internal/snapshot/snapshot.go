// Package snapshot holds the price-table record shared by every step of the
// workflow, its ordering rules and the on-disk cache.
package snapshot

import (
	"slices"
	"strconv"
	"strings"
)

// Missing stands in for any field the source did not provide.
const Missing = "-"

// Snapshot is one row of the association's price table. All fields are kept
// as display text; numeric helpers parse on demand.
type Snapshot struct {
	SequenceID  string `json:"sequence_id"`
	Timestamp   string `json:"timestamp"`
	BarBuy      string `json:"bar_buy"`
	BarSell     string `json:"bar_sell"`
	JewelryBuy  string `json:"jewelry_buy"`
	JewelrySell string `json:"jewelry_sell"`
	SpotPrice   string `json:"spot_price"`
	USDTHBRate  string `json:"usd_thb_rate"`
	Change      string `json:"change"`
}

// Key identifies a real-world update event.
type Key struct {
	SequenceID string
	Timestamp  string
}

func (k Key) String() string {
	return k.SequenceID + "@" + k.Timestamp
}

func (s Snapshot) Key() Key {
	return Key{SequenceID: s.SequenceID, Timestamp: s.Timestamp}
}

// Normalize trims every field and replaces empty ones with Missing.
func (s Snapshot) Normalize() Snapshot {
	fix := func(v string) string {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			return Missing
		}
		return v
	}
	return Snapshot{
		SequenceID:  fix(s.SequenceID),
		Timestamp:   fix(s.Timestamp),
		BarBuy:      fix(s.BarBuy),
		BarSell:     fix(s.BarSell),
		JewelryBuy:  fix(s.JewelryBuy),
		JewelrySell: fix(s.JewelrySell),
		SpotPrice:   fix(s.SpotPrice),
		USDTHBRate:  fix(s.USDTHBRate),
		Change:      fix(s.Change),
	}
}

// Latest returns the newest record of a list ordered oldest to newest.
func Latest(list []Snapshot) (Snapshot, bool) {
	if len(list) == 0 {
		return Snapshot{}, false
	}
	return list[len(list)-1], true
}

// Previous returns the record just before the latest one.
func Previous(list []Snapshot) (Snapshot, bool) {
	if len(list) < 2 {
		return Snapshot{}, false
	}
	return list[len(list)-2], true
}

// Sort orders list oldest to newest. When every timestamp parses the key
// is timestamp then sequence number. Otherwise, if every sequence id is
// numeric, rows are ordered by sequence alone (the source numbers updates
// within a day). Failing both, rows with a usable timestamp are sorted by it
// and the rest are placed first, oldest, in their original order, so a bad
// row can never become the latest one.
func Sort(list []Snapshot) {
	slices.SortStableFunc(list, orderFor(list))
}

// IsSorted reports whether list already follows the order Sort produces.
func IsSorted(list []Snapshot) bool {
	return slices.IsSortedFunc(list, orderFor(list))
}

func orderFor(list []Snapshot) func(a, b Snapshot) int {
	allTimes, allSeqs := true, true
	for _, s := range list {
		if _, err := ParseTimestamp(s.Timestamp); err != nil {
			allTimes = false
		}
		if _, ok := sequenceNumber(s.SequenceID); !ok {
			allSeqs = false
		}
	}
	switch {
	case allTimes:
		return compare
	case allSeqs:
		return func(a, b Snapshot) int { return compareSequence(a.SequenceID, b.SequenceID) }
	}
	return compareTimedLast
}

func compare(a, b Snapshot) int {
	ta, _ := ParseTimestamp(a.Timestamp)
	tb, _ := ParseTimestamp(b.Timestamp)
	if c := ta.Compare(tb); c != 0 {
		return c
	}
	return compareSequence(a.SequenceID, b.SequenceID)
}

func compareTimedLast(a, b Snapshot) int {
	_, errA := ParseTimestamp(a.Timestamp)
	_, errB := ParseTimestamp(b.Timestamp)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return compare(a, b)
}

func sequenceNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// compareSequence puts numeric ids before anything else, numbers by value
// and the rest by text.
func compareSequence(a, b string) int {
	na, okA := sequenceNumber(a)
	nb, okB := sequenceNumber(b)
	switch {
	case okA && okB:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}
