package models

// FilterType selects the predicate a Filter applies.
type FilterType string

const (
	FilterNumber   FilterType = "number"
	FilterCategory FilterType = "category"
)

// FilterConfig holds the union of number and category filter settings.
//
// IncludedValues distinguishes nil (no selection made: every row passes) from
// an empty slice (everything deselected: no row passes). Both survive a JSON
// round trip as null and [] respectively.
type FilterConfig struct {
	Min            *float64 `json:"min,omitempty"`
	Max            *float64 `json:"max,omitempty"`
	IncludedValues []string `json:"includedValues"`
}

type Filter struct {
	ID     string       `json:"id"`
	Column string       `json:"column"`
	Type   FilterType   `json:"type"`
	Config FilterConfig `json:"config"`
}

type GroupMode string

const (
	GroupAuto   GroupMode = "auto"
	GroupManual GroupMode = "manual"
)

// UnmatchedPolicy decides what happens to rows that match no manual bin.
type UnmatchedPolicy string

const (
	UnmatchedDrop      UnmatchedPolicy = "drop"
	UnmatchedUngrouped UnmatchedPolicy = "ungrouped"
)

// UngroupedLabel is the group label used by UnmatchedUngrouped.
const UngroupedLabel = "Ungrouped"

type GroupBin struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
}

type GroupSettings struct {
	Mode      GroupMode       `json:"mode"`
	Bins      []GroupBin      `json:"bins"`
	Unmatched UnmatchedPolicy `json:"unmatched,omitempty"`
}

// GroupConfig is the group side menu state: the active group column and the
// settings remembered for every column that was ever used for grouping.
type GroupConfig struct {
	GroupAxis     *string                  `json:"groupAxis"`
	GroupSettings map[string]GroupSettings `json:"groupSettings"`
}

// Active returns the group column and its settings, or ok=false when the
// data is not grouped.
func (g GroupConfig) Active() (column string, settings GroupSettings, ok bool) {
	if g.GroupAxis == nil || *g.GroupAxis == "" {
		return "", GroupSettings{}, false
	}
	column = *g.GroupAxis
	settings, found := g.GroupSettings[column]
	if !found || settings.Mode == "" {
		settings.Mode = GroupAuto
	}
	return column, settings, true
}

type MappingSource string

const (
	SourceManual MappingSource = "manual"
	SourceGroup  MappingSource = "group"
	SourceColumn MappingSource = "column"
)

// AestheticMapping resolves one visual channel. Value is the constant for
// SourceManual and the column name for SourceColumn.
type AestheticMapping struct {
	Source MappingSource `json:"source"`
	Value  Value         `json:"value"`
}

type ColorConfig struct {
	Hue        AestheticMapping `json:"hue"`
	Saturation AestheticMapping `json:"saturation"`
	Lightness  AestheticMapping `json:"lightness"`
	Shape      AestheticMapping `json:"shape"`
}

func DefaultColorConfig() ColorConfig {
	return ColorConfig{
		Hue:        AestheticMapping{Source: SourceGroup, Value: Text("")},
		Saturation: AestheticMapping{Source: SourceManual, Value: Number(80)},
		Lightness:  AestheticMapping{Source: SourceManual, Value: Number(50)},
		Shape:      AestheticMapping{Source: SourceManual, Value: Text("circle")},
	}
}

type BinMode string

const (
	BinWidth BinMode = "width"
	BinCount BinMode = "count"
)

type HistogramBins struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Size      float64 `json:"size"`
	BinMode   BinMode `json:"binMode,omitempty"`
	Count     int     `json:"count,omitempty"`
	Underflow bool    `json:"underflow"`
	Overflow  bool    `json:"overflow"`
	// WidthSize remembers the width-mode size while in count mode.
	WidthSize float64 `json:"widthSize,omitempty"`
}

// TraceCustomization overrides the computed style of a trace. Keys in
// TraceConfig are either a bare Y column (shared by all its groups) or a full
// trace name such as "temp (city=Oslo)".
type TraceCustomization struct {
	DisplayName   string         `json:"displayName,omitempty"`
	Color         string         `json:"color,omitempty"`
	Mode          string         `json:"mode,omitempty"`
	Symbol        string         `json:"symbol,omitempty"`
	Size          float64        `json:"size,omitempty"`
	HistogramBins *HistogramBins `json:"histogramBins,omitempty"`
}

// Merge overlays the non-zero fields of o onto c.
func (c TraceCustomization) Merge(o TraceCustomization) TraceCustomization {
	if o.DisplayName != "" {
		c.DisplayName = o.DisplayName
	}
	if o.Color != "" {
		c.Color = o.Color
	}
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	if o.Symbol != "" {
		c.Symbol = o.Symbol
	}
	if o.Size != 0 {
		c.Size = o.Size
	}
	if o.HistogramBins != nil {
		bins := *o.HistogramBins
		c.HistogramBins = &bins
	}
	return c
}

type TraceConfig struct {
	TraceCustomizations  map[string]TraceCustomization `json:"traceCustomizations"`
	ColorPalette         string                        `json:"colorPalette"`
	CurrentPaletteColors []string                      `json:"currentPaletteColors"`
}

type PlotType string

const (
	PlotScatter   PlotType = "scatter"
	PlotHistogram PlotType = "histogram"
)

type AxisConfig struct {
	XAxis    string   `json:"xAxis"`
	YAxis    []string `json:"yAxis"`
	PlotType PlotType `json:"plotType"`
}

type PlotLayout struct {
	EnableLogAxis    bool        `json:"enableLogAxis"`
	PlotTitle        string      `json:"plotTitle"`
	XAxisTitle       string      `json:"xAxisTitle"`
	YAxisTitle       string      `json:"yAxisTitle"`
	XRange           *[2]float64 `json:"xRange"`
	YRange           *[2]float64 `json:"yRange"`
	HistogramBarmode string      `json:"histogramBarmode,omitempty"`
}

type AbsorptionMode string

const (
	AbsorbNone AbsorptionMode = "none"
	AbsorbSize AbsorptionMode = "size"
	AbsorbGlow AbsorptionMode = "glow"
)

// DensityConfig controls ink-ratio decimation of scatter traces.
type DensityConfig struct {
	InkRatio        float64        `json:"inkRatio"`
	ChartWidth      float64        `json:"chartWidth"`
	ChartHeight     float64        `json:"chartHeight"`
	PointRadius     float64        `json:"pointRadius"`
	UseCustomRadius bool           `json:"useCustomRadius"`
	CustomRadius    float64        `json:"customRadius"`
	AbsorptionMode  AbsorptionMode `json:"absorptionMode"`
	MaxRadiusRatio  float64        `json:"maxRadiusRatio"`
}

func DefaultDensityConfig() DensityConfig {
	return DensityConfig{
		InkRatio:       0,
		ChartWidth:     1280,
		ChartHeight:    720,
		PointRadius:    8,
		CustomRadius:   20,
		AbsorptionMode: AbsorbNone,
		MaxRadiusRatio: 3,
	}
}
