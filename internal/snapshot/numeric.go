package snapshot

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Trend int

const (
	TrendFlat Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	}
	return "flat"
}

// ParseDecimal reads a display amount such as "41,050.00", "+150" or
// "$2,031.5". ok is false for anything else, including Missing.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == Missing {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Trend follows the sign of Change. An explicit leading sign wins; otherwise
// the parsed value decides, and unparseable text is flat.
func (s Snapshot) Trend() Trend {
	c := strings.TrimSpace(s.Change)
	switch {
	case strings.HasPrefix(c, "-") && c != Missing:
		return TrendDown
	case strings.HasPrefix(c, "+"):
		return TrendUp
	}
	d, ok := ParseDecimal(c)
	if !ok {
		return TrendFlat
	}
	switch d.Sign() {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	}
	return TrendFlat
}

// SignedChange is Change with an explicit "+" for rises.
func (s Snapshot) SignedChange() string {
	c := strings.TrimSpace(s.Change)
	if s.Trend() == TrendUp && !strings.HasPrefix(c, "+") {
		return "+" + c
	}
	return c
}

// Deltas are latest-minus-previous differences for the panel, formatted
// with an explicit sign. Fields that do not parse on either side are Missing.
type Deltas struct {
	BarBuy      string `json:"bar_buy"`
	BarSell     string `json:"bar_sell"`
	JewelryBuy  string `json:"jewelry_buy"`
	JewelrySell string `json:"jewelry_sell"`
	SpotPrice   string `json:"spot_price"`
	USDTHBRate  string `json:"usd_thb_rate"`
}

func Delta(latest, previous Snapshot) Deltas {
	return Deltas{
		BarBuy:      diff(latest.BarBuy, previous.BarBuy),
		BarSell:     diff(latest.BarSell, previous.BarSell),
		JewelryBuy:  diff(latest.JewelryBuy, previous.JewelryBuy),
		JewelrySell: diff(latest.JewelrySell, previous.JewelrySell),
		SpotPrice:   diff(latest.SpotPrice, previous.SpotPrice),
		USDTHBRate:  diff(latest.USDTHBRate, previous.USDTHBRate),
	}
}

func diff(cur, prev string) string {
	a, ok := ParseDecimal(cur)
	if !ok {
		return Missing
	}
	b, ok := ParseDecimal(prev)
	if !ok {
		return Missing
	}
	return FormatSigned(a.Sub(b))
}

// FormatSigned renders d with thousands separators and a leading "+" when
// positive.
func FormatSigned(d decimal.Decimal) string {
	sign := ""
	switch d.Sign() {
	case 1:
		sign = "+"
	case -1:
		sign = "-"
	}
	return sign + groupThousands(d.Abs().String())
}

func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if hasFrac {
		return intPart + "." + frac
	}
	return intPart
}
