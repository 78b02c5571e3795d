package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/performance"
	md "github.com/nao1215/markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templates embed.FS

// RenderOptions holds configuration for rendering a performance report.
type RenderOptions struct {
	SkipHoldings bool // Do not render the holdings section.
	SkipSeries   bool // Do not render the daily value series.
}

// RenderPerformance renders the report to a markdown string.
func RenderPerformance(r *performance.PerformanceReport, opts RenderOptions) string {
	partials := map[string]string{
		"performance_title":      "performance_title.md",
		"performance_totals":     "performance_totals.md",
		"performance_holdings":   "performance_holdings.md",
		"performance_allocation": "performance_allocation.md",
	}
	// An empty file name results in an empty template.
	if opts.SkipHoldings {
		partials["performance_holdings"] = ""
	}
	out := renderTemplate("performance", "performance.md", partials, r)
	if !opts.SkipSeries {
		out += "\n" + SeriesMarkdown(r)
	}
	return out
}

// SeriesMarkdown renders the daily value series as a table.
func SeriesMarkdown(r *performance.PerformanceReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2("Daily Value")
	if len(r.Series) == 0 {
		doc.PlainText("No day in the requested window.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Value", "Change"},
		Rows:   [][]string{},
	}
	var prev performance.Money
	for i, p := range r.Series {
		change := ""
		if i > 0 {
			change = p.Value.Sub(prev).SignedString()
		}
		table.Rows = append(table.Rows, []string{
			p.Date.String(),
			p.Value.String(),
			change,
		})
		prev = p.Value
	}
	doc.Table(table)
	return doc.String()
}

// Terminal renders markdown for a terminal of the given width.
func Terminal(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("could not create terminal renderer: %w", err)
	}
	return r.Render(markdown)
}

// HTML converts markdown to an HTML fragment, tables included.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := gm.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("could not convert markdown: %w", err)
	}
	return buf.String(), nil
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, "templates/"+file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
