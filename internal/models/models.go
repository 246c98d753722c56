package models

// PlotConfig is everything a renderer needs to draw one chart.
type PlotConfig struct {
	Traces    []Trace               `json:"traces"`
	Layout    Layout                `json:"layout"`
	HasData   bool                  `json:"hasData"`
	Receipt   string                `json:"receipt"`
	Stats     map[string]TraceStats `json:"stats"`
	TraceKeys []TraceKey            `json:"generatedTraces,omitempty"`
}

// TraceKey identifies a generated trace for the customization editor.
type TraceKey struct {
	FullTraceName string `json:"fullTraceName"`
	YCol          string `json:"yCol"`
	GroupName     string `json:"groupName"`
}

type Trace struct {
	Type        string    `json:"type"`
	X           []Value   `json:"x"`
	Y           []Value   `json:"y,omitempty"`
	Name        string    `json:"name"`
	LegendGroup string    `json:"legendgroup,omitempty"`
	Color       string    `json:"color"`
	Mode        string    `json:"mode,omitempty"`
	Marker      Marker    `json:"marker"`
	Opacity     float64   `json:"opacity,omitempty"`
	ShowLegend  *bool     `json:"showlegend,omitempty"`
	HoverSkip   bool      `json:"hoverSkip,omitempty"`
	XBins       *XBins    `json:"xbins,omitempty"`
	Absorbed    []int     `json:"customdata,omitempty"`
	BinCounts   []float64 `json:"binCounts,omitempty"`
}

// Marker carries either one colour/symbol for the whole trace or one per
// point; per-point slices stay aligned with X and Y after decimation.
type Marker struct {
	Color   string    `json:"color,omitempty"`
	Colors  []string  `json:"colors,omitempty"`
	Symbol  string    `json:"symbol,omitempty"`
	Symbols []string  `json:"symbols,omitempty"`
	Size    float64   `json:"size"`
	Sizes   []float64 `json:"sizes,omitempty"`
}

type XBins struct {
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	Size  float64   `json:"size"`
	Edges []float64 `json:"edges,omitempty"`
}

type Axis struct {
	Title     string      `json:"title"`
	Type      string      `json:"type"`
	Range     *[2]float64 `json:"range,omitempty"`
	Autorange bool        `json:"autorange"`
}

type Layout struct {
	Title      string `json:"title"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	ShowLegend bool   `json:"showlegend"`
	Barmode    string `json:"barmode,omitempty"`
	Margin     Margin `json:"margin"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
	T int `json:"t"`
}

// TraceStats feeds the density filter panel.
type TraceStats struct {
	Filtered    int     `json:"filtered"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Avg         float64 `json:"avg"`
	AbsorbedMin int     `json:"absorbedMin"`
	AbsorbedMax int     `json:"absorbedMax"`
	AbsorbedAvg float64 `json:"absorbedAvg"`
}

type FunnelStep struct {
	FilterID         string  `json:"filterId"`
	Column           string  `json:"column"`
	InputCount       int     `json:"inputCount"`
	OutputCount      int     `json:"outputCount"`
	PercentRemaining float64 `json:"percentRemaining"`
}

type ColumnType string

const (
	ColumnNumber   ColumnType = "number"
	ColumnDate     ColumnType = "date"
	ColumnCategory ColumnType = "category"
)

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnSummary is the table header digest of one column.
type ColumnSummary struct {
	Column        string          `json:"column"`
	Type          ColumnType      `json:"type"`
	Count         int             `json:"count"`
	Min           float64         `json:"min,omitempty"`
	Max           float64         `json:"max,omitempty"`
	Avg           float64         `json:"avg,omitempty"`
	Median        float64         `json:"median,omitempty"`
	Sparkline     []int           `json:"sparkline,omitempty"`
	UniqueCount   int             `json:"uniqueCount,omitempty"`
	TopCategories []CategoryCount `json:"topCategories,omitempty"`
}
