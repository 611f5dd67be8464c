package fetcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// minCells is the column count a data row must have.
const minCells = 9

// Layout turns a fetched page into snapshots. found is false when the
// expected table is absent, which callers treat as "no new data".
type Layout func(doc *goquery.Document, now time.Time) (rows []snapshot.Snapshot, found bool)

var layouts = map[string]Layout{
	"legacy": parseLegacy,
	"v2":     parseV2,
}

func LayoutFor(name string) (Layout, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "legacy"
	}
	l, ok := layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown fetch layout %q (have %s)", name, strings.Join(LayoutNames(), ", "))
	}
	return l, nil
}

func LayoutNames() []string {
	out := make([]string, 0, len(layouts))
	for k := range layouts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// parseLegacy reads the association's UpdatePriceList grid:
// date+time, sequence, bar buy/sell, jewelry buy/sell, spot, USD/THB, change.
// Bar columns come first, as in the first-generation cache (blbuy/blsell).
func parseLegacy(doc *goquery.Document, _ time.Time) ([]snapshot.Snapshot, bool) {
	table := doc.Find("table#DetailPlace_MainGridView").First()
	if table.Length() == 0 {
		return nil, false
	}
	var out []snapshot.Snapshot
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		c := cells(row)
		if len(c) < minCells {
			return
		}
		out = append(out, snapshot.Snapshot{
			Timestamp:   c[0],
			SequenceID:  c[1],
			BarBuy:      c[2],
			BarSell:     c[3],
			JewelryBuy:  c[4],
			JewelrySell: c[5],
			SpotPrice:   c[6],
			USDTHBRate:  c[7],
			Change:      c[8],
		}.Normalize())
	})
	return out, true
}

// parseV2 reads the history table of the redesigned page, which prints only
// the time of day; the date is taken from now.
func parseV2(doc *goquery.Document, now time.Time) ([]snapshot.Snapshot, bool) {
	body := doc.Find("tbody#history-body").First()
	if body.Length() == 0 {
		return nil, false
	}
	date := snapshot.BuddhistDate(now)
	var out []snapshot.Snapshot
	body.Find("tr").Each(func(_ int, row *goquery.Selection) {
		c := cells(row)
		if len(c) < minCells {
			return
		}
		ts := ""
		if c[1] != "" {
			ts = date + " " + c[1]
		}
		out = append(out, snapshot.Snapshot{
			SequenceID:  c[0],
			Timestamp:   ts,
			BarSell:     c[2],
			BarBuy:      c[3],
			JewelrySell: c[4],
			JewelryBuy:  c[5],
			SpotPrice:   c[6],
			USDTHBRate:  c[7],
			Change:      strings.TrimSpace(strings.TrimPrefix(c[8], "Change ")),
		}.Normalize())
	})
	return out, true
}

func cells(row *goquery.Selection) []string {
	td := row.Find("td")
	out := make([]string, 0, td.Length())
	td.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
