package workspace

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"webplots/internal/engine"
	"webplots/internal/models"
)

// MaxYColumns caps how many columns can be plotted against one X axis.
const MaxYColumns = 8

var (
	ErrFilterNotFound = errors.New("filter not found")
	ErrInvalidFilter  = errors.New("invalid filter")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrInvalidColor   = errors.New("invalid color")
	ErrInvalidSetting = errors.New("invalid setting")
)

// LoadDataset replaces the rows and columns. Axis selections that refer to
// columns which no longer exist are cleared; everything else is kept.
func LoadDataset(s *models.WorkspaceState, ds *engine.Dataset) {
	s.Data = ds.Rows
	s.Columns = ds.Columns

	if s.Axis.XAxis != "" && !ds.HasColumn(s.Axis.XAxis) {
		s.Axis.XAxis = ""
	}
	s.Axis.YAxis = slices.DeleteFunc(s.Axis.YAxis, func(c string) bool { return !ds.HasColumn(c) })
	if col, _, ok := s.Group.Active(); ok && !ds.HasColumn(col) {
		s.Group.GroupAxis = nil
	}
	normalize(s)
}

func hasColumn(s *models.WorkspaceState, column string) bool {
	return slices.Contains(s.Columns, column)
}

func SetXAxis(s *models.WorkspaceState, column string) error {
	if column != "" && !hasColumn(s, column) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	s.Axis.XAxis = column
	return nil
}

// AddYColumn appends column to the Y axis. Duplicates and columns beyond
// MaxYColumns are ignored.
func AddYColumn(s *models.WorkspaceState, column string) error {
	if !hasColumn(s, column) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	if slices.Contains(s.Axis.YAxis, column) || len(s.Axis.YAxis) >= MaxYColumns {
		return nil
	}
	s.Axis.YAxis = append(s.Axis.YAxis, column)
	return nil
}

// RemoveYColumn drops column from the Y axis. Its trace customizations stay,
// so re-adding the column restores its style.
func RemoveYColumn(s *models.WorkspaceState, column string) {
	s.Axis.YAxis = slices.DeleteFunc(s.Axis.YAxis, func(c string) bool { return c == column })
}

func SetPlotType(s *models.WorkspaceState, t models.PlotType) error {
	switch t {
	case models.PlotScatter, models.PlotHistogram:
		s.Axis.PlotType = t
		return nil
	}
	return fmt.Errorf("%w: unknown plot type %q", ErrInvalidSetting, t)
}

// AddFilter appends a filter on column and returns its id. A category
// filter without config starts with nothing selected.
func AddFilter(s *models.WorkspaceState, column string, t models.FilterType, cfg *models.FilterConfig) (string, error) {
	if t != models.FilterNumber && t != models.FilterCategory {
		return "", fmt.Errorf("%w: type %q", ErrInvalidFilter, t)
	}
	if column == "" {
		return "", fmt.Errorf("%w: column is required", ErrInvalidFilter)
	}
	if !hasColumn(s, column) {
		return "", fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	f := models.Filter{ID: "filter-" + uuid.NewString(), Column: column, Type: t}
	switch {
	case cfg != nil:
		f.Config = *cfg
		f.Config.IncludedValues = slices.Clone(cfg.IncludedValues)
	case t == models.FilterCategory:
		f.Config.IncludedValues = []string{}
	}
	s.Filters = append(s.Filters, f)
	return f.ID, nil
}

func filterIndex(s *models.WorkspaceState, id string) (int, error) {
	i := slices.IndexFunc(s.Filters, func(f models.Filter) bool { return f.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrFilterNotFound, id)
	}
	return i, nil
}

// UpdateFilter replaces the config of filter id.
func UpdateFilter(s *models.WorkspaceState, id string, cfg models.FilterConfig) error {
	i, err := filterIndex(s, id)
	if err != nil {
		return err
	}
	s.Filters[i].Config = cfg
	return nil
}

func RemoveFilter(s *models.WorkspaceState, id string) error {
	i, err := filterIndex(s, id)
	if err != nil {
		return err
	}
	s.Filters = slices.Delete(s.Filters, i, i+1)
	return nil
}

// ReorderFilters moves the filter at from to position to.
func ReorderFilters(s *models.WorkspaceState, from, to int) error {
	n := len(s.Filters)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: filter position out of range: %d -> %d (have %d)", ErrInvalidSetting, from, to, n)
	}
	f := s.Filters[from]
	s.Filters = slices.Delete(s.Filters, from, from+1)
	s.Filters = slices.Insert(s.Filters, to, f)
	return nil
}

func ClearFilters(s *models.WorkspaceState) {
	s.Filters = []models.Filter{}
}

// SetGroupAxis selects the group column; an empty column ungroups.
func SetGroupAxis(s *models.WorkspaceState, column string) error {
	if column == "" {
		s.Group.GroupAxis = nil
		return nil
	}
	if !hasColumn(s, column) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	s.Group.GroupAxis = &column
	return nil
}

// SetGroupSettings stores the settings for column. Settings of other
// columns are remembered for when they are grouped on again.
func SetGroupSettings(s *models.WorkspaceState, column string, gs models.GroupSettings) error {
	switch gs.Mode {
	case "", models.GroupAuto, models.GroupManual:
	default:
		return fmt.Errorf("%w: unknown group mode %q", ErrInvalidSetting, gs.Mode)
	}
	gs.Bins = slices.Clone(gs.Bins)
	for i, b := range gs.Bins {
		if b.ID == "" {
			gs.Bins[i].ID = uuid.NewString()
		}
	}
	if s.Group.GroupSettings == nil {
		s.Group.GroupSettings = map[string]models.GroupSettings{}
	}
	s.Group.GroupSettings[column] = gs
	return nil
}

// SetTraceCustomization merges c into the customization stored under key,
// a Y column or a full trace name.
func SetTraceCustomization(s *models.WorkspaceState, key string, c models.TraceCustomization) error {
	if c.Color != "" && !engine.ValidColor(c.Color) {
		return fmt.Errorf("%w: %s", ErrInvalidColor, c.Color)
	}
	if s.Trace.TraceCustomizations == nil {
		s.Trace.TraceCustomizations = map[string]models.TraceCustomization{}
	}
	s.Trace.TraceCustomizations[key] = s.Trace.TraceCustomizations[key].Merge(c)
	return nil
}

// SetColorPalette switches to a named palette and resets any edits.
func SetColorPalette(s *models.WorkspaceState, name string) {
	s.Trace.ColorPalette = name
	s.Trace.CurrentPaletteColors = engine.Palette(name)
}

func SetPaletteColorOrder(s *models.WorkspaceState, colors []string) error {
	for _, c := range colors {
		if !engine.ValidColor(c) {
			return fmt.Errorf("%w: %s", ErrInvalidColor, c)
		}
	}
	s.Trace.CurrentPaletteColors = append([]string(nil), colors...)
	return nil
}

// UpdatePaletteColor replaces one palette entry. Out of range indexes are
// ignored.
func UpdatePaletteColor(s *models.WorkspaceState, index int, color string) error {
	if !engine.ValidColor(color) {
		return fmt.Errorf("%w: %s", ErrInvalidColor, color)
	}
	if len(s.Trace.CurrentPaletteColors) == 0 {
		s.Trace.CurrentPaletteColors = engine.Palette(s.Trace.ColorPalette)
	}
	if index >= 0 && index < len(s.Trace.CurrentPaletteColors) {
		s.Trace.CurrentPaletteColors[index] = color
	}
	return nil
}

// SetAesthetic sets the mapping of one colour channel: hue, saturation,
// lightness or shape.
func SetAesthetic(s *models.WorkspaceState, channel string, m models.AestheticMapping) error {
	switch m.Source {
	case models.SourceManual, models.SourceGroup, models.SourceColumn:
	default:
		return fmt.Errorf("%w: unknown aesthetic source %q", ErrInvalidSetting, m.Source)
	}
	switch channel {
	case "hue":
		s.Color.Hue = m
	case "saturation":
		s.Color.Saturation = m
	case "lightness":
		s.Color.Lightness = m
	case "shape":
		s.Color.Shape = m
	default:
		return fmt.Errorf("%w: unknown aesthetic channel %q", ErrInvalidSetting, channel)
	}
	return nil
}

// SetInkRatio clamps ratio to [0, 1].
func SetInkRatio(s *models.WorkspaceState, ratio float64) {
	s.Density.InkRatio = min(max(ratio, 0), 1)
}

// SetDensity replaces the decimation settings. The ink ratio is clamped.
func SetDensity(s *models.WorkspaceState, d models.DensityConfig) error {
	switch d.AbsorptionMode {
	case "", models.AbsorbNone, models.AbsorbSize, models.AbsorbGlow:
	default:
		return fmt.Errorf("%w: unknown absorption mode %q", ErrInvalidSetting, d.AbsorptionMode)
	}
	if d.ChartWidth <= 0 || d.ChartHeight <= 0 {
		return fmt.Errorf("%w: chart size must be positive", ErrInvalidSetting)
	}
	s.Density = d
	SetInkRatio(s, d.InkRatio)
	return nil
}

func SetLayout(s *models.WorkspaceState, l models.PlotLayout) error {
	switch l.HistogramBarmode {
	case "", "overlay", "stack", "group":
	default:
		return fmt.Errorf("%w: unknown barmode %q", ErrInvalidSetting, l.HistogramBarmode)
	}
	s.Layout = l
	return nil
}
