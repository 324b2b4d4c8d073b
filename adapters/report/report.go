package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"tabprep/domain/datareadiness/profiling"
)

// Format selects the rendering of a report
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown", "md" and "html"; empty means markdown
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// ContentType returns the HTTP content type of the format
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Render writes report, and profiles when given, in the requested format
func Render(report *profiling.ValidationReport, profiles []profiling.FieldProfile, format Format) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	md := Markdown(report, profiles)
	switch format {
	case FormatMarkdown, "":
		return []byte(md), nil
	case FormatHTML:
		return ToHTML(md), nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// ToHTML converts markdown to a standalone HTML fragment
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// Markdown renders the report as GitHub-flavoured markdown. The output is
// deterministic: it leaves out the computation timestamp.
func Markdown(report *profiling.ValidationReport, profiles []profiling.FieldProfile) string {
	var b strings.Builder

	b.WriteString("# Validation report\n\n")
	b.WriteString(report.Summary() + "\n\n")

	b.WriteString("## Missing values\n\n")
	b.WriteString("| Field | Missing | Rate |\n|---|---:|---:|\n")
	for _, field := range report.Fields {
		n := report.AbsentCounts[field]
		rate := 0.0
		if report.RecordCount > 0 {
			rate = float64(n) / float64(report.RecordCount) * 100
		}
		fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", escape(field), n, rate)
	}
	b.WriteString("\n")

	b.WriteString("## Outliers\n\n")
	if len(report.OutlierFlags) == 0 {
		b.WriteString("No outliers flagged.\n\n")
	} else {
		b.WriteString("| Record | Field | Value |\n|---:|---|---:|\n")
		for _, flag := range report.OutlierFlags {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", flag.Index, escape(flag.Field), strconv.FormatFloat(flag.Value, 'g', -1, 64))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Duplicates\n\n")
	if len(report.DuplicateGroups) == 0 {
		b.WriteString("No duplicate records.\n")
	} else {
		for _, group := range report.DuplicateGroups {
			parts := make([]string, len(group))
			for i, idx := range group {
				parts[i] = strconv.Itoa(idx)
			}
			fmt.Fprintf(&b, "- records %s\n", strings.Join(parts, ", "))
		}
	}

	if len(profiles) > 0 {
		b.WriteString("\n## Field profiles\n\n")
		b.WriteString("| Field | Type | Present | Missing | Distinct | Min | Max | Mean | Median | Std dev |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, p := range profiles {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
				escape(p.Field), p.InferredType, p.PresentCount, p.AbsentCount, p.DistinctCount, numericCells(p.NumericStats))
		}
	}

	return b.String()
}

func numericCells(s *profiling.NumericStats) string {
	if s == nil {
		return "- | - | - | - | -"
	}
	return fmt.Sprintf("%.2f | %.2f | %.2f | %.2f | %.2f", s.Min, s.Max, s.Mean, s.Median, s.StdDev)
}

// escape keeps field names from breaking table cells
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
