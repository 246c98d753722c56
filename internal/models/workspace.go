package models

import (
	"fmt"

	"github.com/jinzhu/copier"
)

// WorkspaceState aggregates every configuration record of one workspace.
// The caller owns it; pipeline stages only ever read from a snapshot.
type WorkspaceState struct {
	Data    []Row         `json:"data"`
	Columns []string      `json:"columns"`
	Axis    AxisConfig    `json:"axis"`
	Group   GroupConfig   `json:"group"`
	Layout  PlotLayout    `json:"layout"`
	Trace   TraceConfig   `json:"trace"`
	Color   ColorConfig   `json:"color"`
	Density DensityConfig `json:"density"`
	Filters []Filter      `json:"filters"`
}

// NewWorkspaceState returns a state with the defaults every control starts with.
func NewWorkspaceState() *WorkspaceState {
	return &WorkspaceState{
		Data:    []Row{},
		Columns: []string{},
		Axis:    AxisConfig{YAxis: []string{}, PlotType: PlotScatter},
		Group:   GroupConfig{GroupSettings: map[string]GroupSettings{}},
		Layout:  PlotLayout{HistogramBarmode: "overlay"},
		Trace: TraceConfig{
			TraceCustomizations: map[string]TraceCustomization{},
			ColorPalette:        "Default",
		},
		Color:   DefaultColorConfig(),
		Density: DefaultDensityConfig(),
		Filters: []Filter{},
	}
}

// keepNilStrings stops copier from turning nil string slices into empty ones.
var keepNilStrings = copier.TypeConverter{
	SrcType: []string(nil),
	DstType: []string(nil),
	Fn: func(src interface{}) (interface{}, error) {
		s := src.([]string)
		if s == nil {
			return []string(nil), nil
		}
		return append(make([]string, 0, len(s)), s...), nil
	},
}

// Clone deep-copies the state. Nil string slices stay nil, so a category
// filter that selects nothing yet keeps passing every row.
func (s *WorkspaceState) Clone() (*WorkspaceState, error) {
	var out WorkspaceState
	opt := copier.Option{DeepCopy: true, Converters: []copier.TypeConverter{keepNilStrings}}
	if err := copier.CopyWithOption(&out, s, opt); err != nil {
		return nil, fmt.Errorf("failed to copy workspace state: %w", err)
	}
	return &out, nil
}
