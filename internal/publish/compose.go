package publish

import (
	"fmt"
	"html"
	"strings"

	"github.com/karndiy/gold-vertical-panel/internal/render"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

const source = "ข้อมูลจาก: สมาคมค้าทองคำ"

// Compose builds the per-channel texts for latest. all is the full cached
// list, forwarded to channels that mirror it.
func Compose(latest snapshot.Snapshot, all []snapshot.Snapshot, assets render.Assets) Post {
	return Post{
		Title:     BloggerTitle(latest),
		Text:      TelegramText(latest),
		FeedText:  FacebookText(latest),
		HTML:      BloggerHTML(latest),
		Caption:   fmt.Sprintf("🎬 ราคาทองคำ ครั้งที่ %s", latest.SequenceID),
		ImagePath: assets.ImagePath,
		VideoPath: assets.VideoPath,
		Latest:    latest,
		Snapshots: all,
	}
}

func trendWord(t snapshot.Trend) string {
	switch t {
	case snapshot.TrendUp:
		return "📈 ขึ้น"
	case snapshot.TrendDown:
		return "📉 ลง"
	}
	return "➡️ คงที่"
}

func trendSentence(t snapshot.Trend) string {
	switch t {
	case snapshot.TrendUp:
		return "เพิ่มขึ้น"
	case snapshot.TrendDown:
		return "ลดลง"
	}
	return "ไม่เปลี่ยนแปลง"
}

func TelegramText(s snapshot.Snapshot) string {
	var b strings.Builder
	b.WriteString("🏆 ราคาทองคำล่าสุด\n\n")
	fmt.Fprintf(&b, "📅 วันที่: %s\n", s.Timestamp)
	fmt.Fprintf(&b, "🔢 ครั้งที่: %s\n\n", s.SequenceID)
	b.WriteString("💰 ทองคำแท่ง 96.5%\n")
	fmt.Fprintf(&b, "├ รับซื้อ: %s บาท\n", s.BarBuy)
	fmt.Fprintf(&b, "└ ขายออก: %s บาท\n\n", s.BarSell)
	b.WriteString("💍 ทองรูปพรรณ\n")
	fmt.Fprintf(&b, "├ รับซื้อ: %s บาท\n", s.JewelryBuy)
	fmt.Fprintf(&b, "└ ขายออก: %s บาท\n\n", s.JewelrySell)
	fmt.Fprintf(&b, "%s การเปลี่ยนแปลง: %s บาท\n\n", trendWord(s.Trend()), s.SignedChange())
	fmt.Fprintf(&b, "🌍 Gold Spot: $%s\n", s.SpotPrice)
	fmt.Fprintf(&b, "💵 USD/THB: %s\n\n", s.USDTHBRate)
	b.WriteString("━━━━━━━━━━━━━━━━\n")
	b.WriteString(source)
	return b.String()
}

func FacebookText(s snapshot.Snapshot) string {
	var b strings.Builder
	b.WriteString("อัพเดทราคาทองคำ\n━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Fprintf(&b, "วันที่: %s\n", s.Timestamp)
	fmt.Fprintf(&b, "อัพเดทครั้งที่: %s (วันนี้)\n\n", s.SequenceID)
	b.WriteString("ทองคำแท่ง 96.5%\n")
	fmt.Fprintf(&b, "┃ รับซื้อ: %s บาท\n", s.BarBuy)
	fmt.Fprintf(&b, "┃ ขายออก: %s บาท\n\n", s.BarSell)
	b.WriteString("ทองรูปพรรณ 96.5%\n")
	fmt.Fprintf(&b, "┃ รับซื้อ: %s บาท\n", s.JewelryBuy)
	fmt.Fprintf(&b, "┃ ขายออก: %s บาท\n\n", s.JewelrySell)
	b.WriteString("ข้อมูลตลาดโลก\n")
	fmt.Fprintf(&b, "┃ Gold Spot: $%s/ออนซ์\n", s.SpotPrice)
	fmt.Fprintf(&b, "┃ USD/THB: %s บาท\n\n", s.USDTHBRate)
	fmt.Fprintf(&b, "%s การเปลี่ยนแปลง: %s บาท\n", trendWord(s.Trend()), s.SignedChange())
	b.WriteString(trendSentence(s.Trend()))
	b.WriteString("\n\n━━━━━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(source)
	b.WriteString("\n\n#ราคาทอง #ราคาทองวันนี้ #ทองคำ #GoldPrice #ทองคำแท่ง #ทองรูปพรรณ")
	return b.String()
}

// BloggerTitle is "ราคาทองคำวันนี้ อัปเดตครั้งที่ N (timestamp) [ ±change ]".
func BloggerTitle(s snapshot.Snapshot) string {
	return fmt.Sprintf("ราคาทองคำวันนี้ อัปเดตครั้งที่ %s (%s) [ %s ]", s.SequenceID, s.Timestamp, s.SignedChange())
}

func BloggerHTML(s snapshot.Snapshot) string {
	e := html.EscapeString
	icon, color := "●", "gray"
	switch s.Trend() {
	case snapshot.TrendUp:
		icon, color = "▲", "green"
	case snapshot.TrendDown:
		icon, color = "▼", "red"
	}

	var b strings.Builder
	b.WriteString(`<div style="font-family: 'Helvetica', sans-serif; border: 1px solid #ddd; padding: 20px; border-radius: 10px;">`)
	b.WriteString(`<h2 style="color: #d4af37;">รายงานราคาทองคำล่าสุด</h2>`)
	fmt.Fprintf(&b, `<p><b>ประจำวันที่:</b> %s %s</p><hr>`, e(s.SequenceID), e(s.Timestamp))
	b.WriteString(`<table style="width: 100%; text-align: left;">`)
	row := func(label, value, style string) {
		fmt.Fprintf(&b, `<tr><td><b>%s:</b></td><td style="%s"><b>%s บาท</b></td></tr>`, label, style, e(value))
	}
	row("ทองแท่งรับซื้อ", s.BarBuy, "color: green; font-size: 1.2em;")
	row("ทองแท่งขายออก", s.BarSell, "color: red; font-size: 1.2em;")
	row("ทองรูปพรรณรับซื้อ", s.JewelryBuy, "")
	row("ทองรูปพรรณขายออก", s.JewelrySell, "")
	fmt.Fprintf(&b, `<tr><td><b>การเปลี่ยนแปลง:</b></td><td><b style="color: %s;">%s %s บาท</b></td></tr>`,
		color, icon, e(s.SignedChange()))
	b.WriteString(`</table><br>`)
	fmt.Fprintf(&b, `<p style="font-size: 0.9em; color: #666;">Gold Spot: %s | ค่าเงินบาท: %s</p>`, e(s.SpotPrice), e(s.USDTHBRate))
	b.WriteString(`</div>`)
	return b.String()
}
