package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/performance"
	"github.com/etnz/performance/date"
	"github.com/etnz/performance/eodhd"
	md "github.com/nao1215/markdown"
)

// PortfolioList renders portfolios as a table.
func PortfolioList(list []performance.Portfolio) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Portfolios")
	if len(list) == 0 {
		doc.PlainText("No portfolio yet, create one with `pcs create <name>`.")
		return doc.String()
	}
	table := md.TableSet{
		Header: []string{"Name", "Created", "ID"},
		Rows:   [][]string{},
	}
	for _, p := range list {
		table.Rows = append(table.Rows, []string{p.Name, date.FromTime(p.CreatedDate).String(), "`" + p.ID + "`"})
	}
	doc.Table(table)
	return doc.String()
}

// PortfolioDetail renders a portfolio with its holdings.
func PortfolioDetail(p performance.Portfolio, holdings []performance.Holding) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(p.Name)
	doc.PlainTextf("Created on %s, ID `%s`.", date.FromTime(p.CreatedDate), p.ID)
	doc.LF()
	if len(holdings) == 0 {
		doc.PlainText("No holding.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignLeft},
		Header:    []string{"Symbol", "Name", "Kind", "Transactions", "ID"},
		Rows:      [][]string{},
	}
	for _, h := range holdings {
		table.Rows = append(table.Rows, []string{h.Symbol, h.DisplayName, string(h.Kind), fmt.Sprint(len(h.Transactions)), "`" + h.ID + "`"})
	}
	doc.Table(table)
	return doc.String()
}

// Transactions renders the transactions of a holding, in date order.
func Transactions(h performance.Holding) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2f("%s Transactions", h.Symbol)
	if len(h.Transactions) == 0 {
		doc.PlainText("No transaction.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Date", "Kind", "Quantity", "Unit Price", "Amount"},
		Rows:      [][]string{},
	}
	for _, tx := range performance.SortTransactions(h.Transactions) {
		table.Rows = append(table.Rows, []string{
			tx.Date.Format("2006-01-02 15:04"),
			string(tx.Kind),
			tx.Quantity.String(),
			tx.UnitPrice.Decimal().StringFixed(2),
			tx.UnitPrice.Mul(tx.Quantity).Decimal().StringFixed(2),
		})
	}
	doc.Table(table)
	return doc.String()
}

// SearchResults renders symbol search results.
func SearchResults(results []eodhd.SearchResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	if len(results) == 0 {
		doc.PlainText("No match.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight},
		Header:    []string{"Ticker", "Name", "Kind", "ISIN", "Previous Close"},
		Rows:      [][]string{},
	}
	for _, r := range results {
		table.Rows = append(table.Rows, []string{
			"`" + r.Ticker() + "`",
			r.Name,
			string(r.Kind()),
			r.ISIN,
			fmt.Sprintf("%.2f %s", r.PreviousClose, r.Currency),
		})
	}
	doc.Table(table)
	return doc.String()
}
