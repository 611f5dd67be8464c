package snapshot

import (
	"bytes"
	"encoding/json"
	"strings"
)

// text accepts a JSON string or number. Older cache writers were not
// consistent about quoting sequence numbers.
type text struct {
	set bool
	v   string
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	t.set = true
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.v = s
		return nil
	}
	t.v = strings.TrimSpace(string(b))
	return nil
}

func (t text) value() string {
	if !t.set {
		return Missing
	}
	return t.v
}

// rawRecord covers both the current keys and the ones written by the
// first-generation scraper (asdate, nqy, bl*, om*, ...).
type rawRecord struct {
	SequenceID  text `json:"sequence_id"`
	Timestamp   text `json:"timestamp"`
	BarBuy      text `json:"bar_buy"`
	BarSell     text `json:"bar_sell"`
	JewelryBuy  text `json:"jewelry_buy"`
	JewelrySell text `json:"jewelry_sell"`
	SpotPrice   text `json:"spot_price"`
	USDTHBRate  text `json:"usd_thb_rate"`
	Change      text `json:"change"`

	Nqy      text `json:"nqy"`
	Asdate   text `json:"asdate"`
	Blbuy    text `json:"blbuy"`
	Blsell   text `json:"blsell"`
	Ombuy    text `json:"ombuy"`
	Omsell   text `json:"omsell"`
	Goldspot text `json:"goldspot"`
	Bahtusd  text `json:"bahtusd"`
	Diff     text `json:"diff"`
}

func (r rawRecord) legacy() bool {
	current := r.SequenceID.set || r.Timestamp.set || r.BarBuy.set || r.BarSell.set ||
		r.JewelryBuy.set || r.JewelrySell.set || r.SpotPrice.set || r.USDTHBRate.set || r.Change.set
	if current {
		return false
	}
	return r.Nqy.set || r.Asdate.set || r.Blbuy.set || r.Blsell.set ||
		r.Ombuy.set || r.Omsell.set || r.Goldspot.set || r.Bahtusd.set || r.Diff.set
}

func (r rawRecord) snapshot() Snapshot {
	if r.legacy() {
		return Snapshot{
			SequenceID:  r.Nqy.value(),
			Timestamp:   r.Asdate.value(),
			BarBuy:      r.Blbuy.value(),
			BarSell:     r.Blsell.value(),
			JewelryBuy:  r.Ombuy.value(),
			JewelrySell: r.Omsell.value(),
			SpotPrice:   r.Goldspot.value(),
			USDTHBRate:  r.Bahtusd.value(),
			Change:      r.Diff.value(),
		}
	}
	return Snapshot{
		SequenceID:  r.SequenceID.value(),
		Timestamp:   r.Timestamp.value(),
		BarBuy:      r.BarBuy.value(),
		BarSell:     r.BarSell.value(),
		JewelryBuy:  r.JewelryBuy.value(),
		JewelrySell: r.JewelrySell.value(),
		SpotPrice:   r.SpotPrice.value(),
		USDTHBRate:  r.USDTHBRate.value(),
		Change:      r.Change.value(),
	}
}

// Decode parses a cache document and returns it oldest to newest. Legacy
// records are migrated to the current keys; legacy writers stored lists in
// either direction, and any list not already in order is re-sorted.
func Decode(b []byte) ([]Snapshot, error) {
	out, _, err := decode(b)
	return out, err
}

type decodeInfo struct {
	migrated bool
	resorted bool
}

func decode(b []byte) ([]Snapshot, decodeInfo, error) {
	var info decodeInfo
	var raws []rawRecord
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, info, err
	}
	out := make([]Snapshot, 0, len(raws))
	for _, r := range raws {
		if r.legacy() {
			info.migrated = true
		}
		out = append(out, r.snapshot())
	}
	if !IsSorted(out) {
		Sort(out)
		info.resorted = true
	}
	return out, info, nil
}

// LegacyRecord is the key layout of the first-generation cache, still
// expected by the JSON mirror endpoint.
type LegacyRecord struct {
	Asdate   string `json:"asdate"`
	Nqy      string `json:"nqy"`
	Blbuy    string `json:"blbuy"`
	Blsell   string `json:"blsell"`
	Ombuy    string `json:"ombuy"`
	Omsell   string `json:"omsell"`
	Goldspot string `json:"goldspot"`
	Bahtusd  string `json:"bahtusd"`
	Diff     string `json:"diff"`
}

func ToLegacy(list []Snapshot) []LegacyRecord {
	out := make([]LegacyRecord, 0, len(list))
	for _, s := range list {
		out = append(out, LegacyRecord{
			Asdate:   s.Timestamp,
			Nqy:      s.SequenceID,
			Blbuy:    s.BarBuy,
			Blsell:   s.BarSell,
			Ombuy:    s.JewelryBuy,
			Omsell:   s.JewelrySell,
			Goldspot: s.SpotPrice,
			Bahtusd:  s.USDTHBRate,
			Diff:     s.Change,
		})
	}
	return out
}
