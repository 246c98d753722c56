package project

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"webplots/internal/models"
)

// ErrInvalidProject wraps every decode and validation failure.
var ErrInvalidProject = errors.New("invalid project file")

// AxisMenu is the axis side menu as saved. Older files also carry the group
// selection here.
type AxisMenu struct {
	XAxis         string                          `json:"xAxis"`
	YAxis         []string                        `json:"yAxis"`
	PlotType      models.PlotType                 `json:"plotType,omitempty"`
	GroupAxis     *string                         `json:"groupAxis,omitempty"`
	GroupSettings map[string]models.GroupSettings `json:"groupSettings,omitempty"`
}

func (a *AxisMenu) hasGroup() bool {
	return a != nil && (a.GroupAxis != nil || a.GroupSettings != nil)
}

type GroupMenu struct {
	GroupAxis     *string                         `json:"groupAxis"`
	GroupSettings map[string]models.GroupSettings `json:"groupSettings"`
}

// legacyPlotArea is the pre-split layout record that also held the axis menu.
type legacyPlotArea struct {
	models.PlotLayout
	AxisMenuData *AxisMenu `json:"axisMenuData,omitempty"`
}

// File is the on-disk project document.
type File struct {
	Data              []models.Row          `json:"data"`
	Columns           []string              `json:"columns"`
	SideMenuData      *AxisMenu             `json:"sideMenuData,omitempty"`
	GroupSideMenuData *GroupMenu            `json:"groupSideMenuData,omitempty"`
	PlotLayout        *models.PlotLayout    `json:"plotLayout,omitempty"`
	PlotArea          *legacyPlotArea       `json:"plotArea,omitempty"`
	Filters           []models.Filter       `json:"filters"`
	TraceConfig       *models.TraceConfig   `json:"traceConfig,omitempty"`
	ColorData         *models.ColorConfig   `json:"colorData,omitempty"`
	InkRatio          *models.DensityConfig `json:"inkRatio,omitempty"`
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Validate checks b against the project schema.
func Validate(b []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("project schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			msgs[i] = e.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidProject, strings.Join(msgs, "; "))
	}
	return nil
}

// Decode validates and parses a project document.
func Decode(b []byte) (*File, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	return &f, nil
}

// axisMenu picks the axis selection: sideMenuData, then the legacy
// plotArea.axisMenuData.
func (f *File) axisMenu() *AxisMenu {
	if f.SideMenuData != nil {
		return f.SideMenuData
	}
	if f.PlotArea != nil {
		return f.PlotArea.AxisMenuData
	}
	return nil
}

// group picks the group selection: groupSideMenuData, then sideMenuData,
// then plotArea.axisMenuData.
func (f *File) group() (axis *string, settings map[string]models.GroupSettings, ok bool) {
	switch {
	case f.GroupSideMenuData != nil:
		return f.GroupSideMenuData.GroupAxis, f.GroupSideMenuData.GroupSettings, true
	case f.SideMenuData.hasGroup():
		return f.SideMenuData.GroupAxis, f.SideMenuData.GroupSettings, true
	case f.PlotArea != nil && f.PlotArea.AxisMenuData.hasGroup():
		return f.PlotArea.AxisMenuData.GroupAxis, f.PlotArea.AxisMenuData.GroupSettings, true
	}
	return nil, nil, false
}

// layout picks plotLayout, then the legacy plotArea.
func (f *File) layout() *models.PlotLayout {
	if f.PlotLayout != nil {
		return f.PlotLayout
	}
	if f.PlotArea != nil {
		l := f.PlotArea.PlotLayout
		return &l
	}
	return nil
}

// ApplyTo overwrites the parts of s the file carries. Sections the file
// does not mention keep their current value.
func (f *File) ApplyTo(s *models.WorkspaceState) {
	s.Data = f.Data
	s.Columns = f.Columns
	if s.Data == nil {
		s.Data = []models.Row{}
	}
	if s.Columns == nil {
		s.Columns = []string{}
	}

	if a := f.axisMenu(); a != nil {
		s.Axis.XAxis = a.XAxis
		s.Axis.YAxis = append([]string{}, a.YAxis...)
		s.Axis.PlotType = a.PlotType
		if s.Axis.PlotType == "" {
			s.Axis.PlotType = models.PlotScatter
		}
	}
	if axis, settings, ok := f.group(); ok {
		s.Group.GroupAxis = axis
		s.Group.GroupSettings = settings
		if s.Group.GroupSettings == nil {
			s.Group.GroupSettings = map[string]models.GroupSettings{}
		}
	}
	if l := f.layout(); l != nil {
		s.Layout = *l
	}
	if f.Filters != nil {
		s.Filters = f.Filters
	}
	if f.TraceConfig != nil {
		s.Trace = *f.TraceConfig
		if s.Trace.TraceCustomizations == nil {
			s.Trace.TraceCustomizations = map[string]models.TraceCustomization{}
		}
	}
	if f.ColorData != nil {
		s.Color = *f.ColorData
	}
	if f.InkRatio != nil {
		s.Density = *f.InkRatio
	}
}

// Apply decodes b and loads it into s. On any error s is left untouched.
func Apply(s *models.WorkspaceState, b []byte) error {
	f, err := Decode(b)
	if err != nil {
		return err
	}
	f.ApplyTo(s)
	return nil
}

// FromState builds the document for s in the current layout.
func FromState(s *models.WorkspaceState) *File {
	return &File{
		Data:    s.Data,
		Columns: s.Columns,
		SideMenuData: &AxisMenu{
			XAxis:    s.Axis.XAxis,
			YAxis:    s.Axis.YAxis,
			PlotType: s.Axis.PlotType,
		},
		GroupSideMenuData: &GroupMenu{
			GroupAxis:     s.Group.GroupAxis,
			GroupSettings: s.Group.GroupSettings,
		},
		PlotLayout:  &s.Layout,
		Filters:     s.Filters,
		TraceConfig: &s.Trace,
		ColorData:   &s.Color,
		InkRatio:    &s.Density,
	}
}

// Save encodes s as an indented project document.
func Save(s *models.WorkspaceState) ([]byte, error) {
	b, err := json.MarshalIndent(FromState(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	return b, nil
}
