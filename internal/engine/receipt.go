package engine

import (
	"fmt"
	"strings"

	"webplots/internal/models"
)

var receiptEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func quote(s string) string { return "'" + receiptEscaper.Replace(s) + "'" }

func num(f float64) string { return models.Number(f).String() }

// buildReceipt renders a Plotly script that reproduces the chart structure.
// Data values never appear in it, only configuration, so identical inputs
// always give byte-identical output.
func buildReceipt(in Inputs, specs []traceSpec, mains []models.Trace, layout models.Layout) string {
	var b strings.Builder
	hist := in.histogram()

	b.WriteString("// Generated Plotly Code\n\n")
	if !hist {
		fmt.Fprintf(&b, "var xAxisName = %s;\n", quote(in.Axis.XAxis))
	}
	ys := make([]string, len(in.Axis.YAxis))
	for i, y := range in.Axis.YAxis {
		ys[i] = quote(y)
	}
	fmt.Fprintf(&b, "var yAxisNames = [%s];\n", strings.Join(ys, ", "))
	if col, _, ok := in.Group.Active(); ok {
		fmt.Fprintf(&b, "var groupAxisName = %s;\n", quote(col))
	}
	b.WriteString("\n")

	vars := make([]string, len(specs))
	for i, s := range specs {
		vars[i] = fmt.Sprintf("trace%d", i+1)
		if hist {
			writeHistogramReceipt(&b, vars[i], s, mains[i])
		} else {
			writeScatterReceipt(&b, vars[i], s, mains[i])
		}
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "var data = [ %s ];\n\n", strings.Join(vars, ", "))

	b.WriteString("var layout = {\n")
	fmt.Fprintf(&b, "  title: { text: %s },\n", quote(layout.Title))
	writeAxisReceipt(&b, "xaxis", layout.XAxis)
	writeAxisReceipt(&b, "yaxis", layout.YAxis)
	fmt.Fprintf(&b, "  showlegend: %t", layout.ShowLegend)
	if layout.Barmode != "" {
		fmt.Fprintf(&b, ",\n  barmode: %s", quote(layout.Barmode))
	}
	b.WriteString("\n};\n\n")

	b.WriteString("Plotly.newPlot('myDiv', data, layout);")
	return b.String()
}

func writeScatterReceipt(b *strings.Builder, name string, s traceSpec, t models.Trace) {
	fmt.Fprintf(b, "var %s = {\n", name)
	b.WriteString("  // x: ..., // Filtered data\n")
	b.WriteString("  // y: ..., // Filtered data\n")
	fmt.Fprintf(b, "  mode: %s,\n", quote(s.mode))
	b.WriteString("  type: 'scatter',\n")
	fmt.Fprintf(b, "  name: %s,\n", quote(s.name))
	fmt.Fprintf(b, "  line: { color: %s }", quote(t.Color))

	// An explicit markers mode pins the symbol even when none was chosen.
	symbol := s.custom.Symbol
	if symbol == "" && s.custom.Mode == "markers" {
		symbol = "circle"
	}
	if symbol != "" {
		fmt.Fprintf(b, ", marker: { symbol: %s, size: %s }", quote(symbol), num(s.size))
	}
	b.WriteString("\n};")
}

func writeHistogramReceipt(b *strings.Builder, name string, s traceSpec, t models.Trace) {
	fmt.Fprintf(b, "var %s = {\n", name)
	b.WriteString("  // x: ..., // Histogram data mapped from yAxis\n")
	b.WriteString("  type: 'histogram',\n")
	fmt.Fprintf(b, "  name: %s,\n", quote(s.name))
	fmt.Fprintf(b, "  opacity: %s,\n", num(t.Opacity))
	fmt.Fprintf(b, "  marker: { color: %s }", quote(t.Color))
	if t.XBins != nil {
		b.WriteString(",\n  autobinx: false,\n")
		fmt.Fprintf(b, "  xbins: { start: %s, end: %s, size: %s }",
			num(t.XBins.Start), num(t.XBins.End), num(t.XBins.Size))
	}
	b.WriteString("\n};")
}

func writeAxisReceipt(b *strings.Builder, key string, a models.Axis) {
	fmt.Fprintf(b, "  %s: {\n", key)
	fmt.Fprintf(b, "    title: { text: %s },\n", quote(a.Title))
	fmt.Fprintf(b, "    type: %s,\n", quote(a.Type))
	if a.Range != nil {
		fmt.Fprintf(b, "    range: [%s, %s]\n", num(a.Range[0]), num(a.Range[1]))
	} else {
		b.WriteString("    // autorange: true\n")
	}
	b.WriteString("  },\n")
}
