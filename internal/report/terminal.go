package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	md "github.com/nao1215/markdown"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/model"
)

// TerminalSink prints the reports as markdown tables.
// With Pretty set the markdown is rendered for a terminal.
type TerminalSink struct {
	W      io.Writer
	Pretty bool
	Limit  int // candidate rows shown; zero shows all
}

// HoldingsMarkdown renders the holdings report.
func HoldingsMarkdown(h calculator.Holdings) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2("時価総額")
	doc.PlainText(fmt.Sprintf("合計: %d円", h.TotalMarketValue()))
	doc.Table(md.TableSet{Header: HoldingsHeader, Rows: HoldingsTable(h)})

	doc.H3("セクター順序")
	rows := make([][]string, 0, len(h.SectorOrder))
	for i, s := range h.SectorOrder {
		rows = append(rows, []string{fmt.Sprint(i + 1), s, fmt.Sprint(h.SectorMarketValue(s))})
	}
	doc.Table(md.TableSet{Header: []string{"順位", "セクター", "時価総額"}, Rows: rows})

	return doc.String()
}

// CandidatesMarkdown renders the candidate report.
func CandidatesMarkdown(rows []model.CandidateRow) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2("今週の銘柄")
	doc.Table(md.TableSet{Header: CandidatesHeader, Rows: CandidatesTable(rows)})

	return doc.String()
}

func (t *TerminalSink) WriteHoldings(_ context.Context, h calculator.Holdings) error {
	return t.print(HoldingsMarkdown(h))
}

func (t *TerminalSink) WriteCandidates(_ context.Context, rows []model.CandidateRow) error {
	if t.Limit > 0 {
		rows = calculator.TopN(rows, t.Limit)
	}
	return t.print(CandidatesMarkdown(rows))
}

func (t *TerminalSink) print(text string) error {
	if t.Pretty {
		out, err := glamour.Render(text, "dark")
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		text = out
	}
	_, err := fmt.Fprintln(t.W, text)
	return err
}
