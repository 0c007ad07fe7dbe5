package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/model"
)

// NoPickMessage is reported when no stage produces a pick.
const NoPickMessage = "適切な銘柄が見つかりませんでした。"

var stageLabels = map[model.Stage]string{
	model.StageTopYield:         "高配当上位・未保有セクター",
	model.StageDuplicateIndex:   "複数指数採用・未保有セクター",
	model.StageLowMarketCap:     "時価総額の小さいセクター",
	model.StageConcentrationCap: "集中度上限内",
}

// StageLabel returns a readable description of the stage.
func StageLabel(s model.Stage) string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// FormatPick formats the selection of a run. p is nil when nothing was recorded.
func FormatPick(sel model.Selection, p *model.Purchase, dryRun bool, now time.Time) string {
	var b strings.Builder
	title := "今週の銘柄"
	if dryRun {
		title += " (dry run)"
	}
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s\n\n", title, now.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("銘柄: %s %s\n", sel.Code, html.EscapeString(sel.CompanyName)))
	b.WriteString(fmt.Sprintf("セクター: %s\n", html.EscapeString(sel.Sector)))
	b.WriteString(fmt.Sprintf("株価: %s\n", formatYen(sel.Price)))
	b.WriteString(fmt.Sprintf("選定理由: %s", StageLabel(sel.Stage)))
	if sel.FromHolding {
		b.WriteString(" (買い増し)")
	}
	b.WriteString("\n")
	if p != nil {
		b.WriteString(fmt.Sprintf("購入株数: %d株\n", p.Quantity))
	}
	return b.String()
}

// FormatNoPick formats the no-pick notice.
func FormatNoPick(now time.Time) string {
	return fmt.Sprintf("📭 <b>今週の銘柄</b> | %s\n\n%s\n", now.Format("2006-01-02"), NoPickMessage)
}

// FormatHoldings summarizes holdings by sector, largest sector first.
func FormatHoldings(h calculator.Holdings) string {
	var b strings.Builder
	b.WriteString("📦 <b>保有銘柄</b>\n\n")
	if len(h.Positions) == 0 {
		b.WriteString("保有銘柄はありません。\n")
		return b.String()
	}
	for _, sector := range h.SectorOrder {
		b.WriteString(fmt.Sprintf("<b>%s</b> ¥%d\n", html.EscapeString(sector), h.SectorMarketValue(sector)))
		for _, p := range h.SectorPositions(sector) {
			b.WriteString(fmt.Sprintf("  %s %s %.0f株 ¥%d\n", p.Code, html.EscapeString(p.CompanyName), p.TotalShares, p.MarketValue))
		}
	}
	b.WriteString(fmt.Sprintf("\n合計: ¥%d\n", h.TotalMarketValue()))
	return b.String()
}

// FormatCandidates lists the first n ranked candidates.
func FormatCandidates(rows []model.CandidateRow, n int) string {
	var b strings.Builder
	b.WriteString("🏷 <b>高配当候補</b>\n\n")
	if len(rows) == 0 {
		b.WriteString("候補がありません。\n")
		return b.String()
	}
	for i, r := range calculator.TopN(rows, n) {
		b.WriteString(fmt.Sprintf("%d. %s %s (%s) %s %s\n",
			i+1, r.Code, html.EscapeString(r.CompanyName), html.EscapeString(r.Sector),
			formatPct(r.DividendYield), formatYen(r.Price)))
	}
	return b.String()
}

func formatYen(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("¥%.0f", *v)
}

func formatPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v)
}
