package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsNilAndEmptySelections(t *testing.T) {
	s := NewWorkspaceState()
	s.Data = []Row{{"cat": Text("a")}}
	s.Filters = []Filter{
		{ID: "all", Column: "cat", Type: FilterCategory},
		{ID: "none", Column: "cat", Type: FilterCategory, Config: FilterConfig{IncludedValues: []string{}}},
		{ID: "some", Column: "cat", Type: FilterCategory, Config: FilterConfig{IncludedValues: []string{"a"}}},
	}

	out, err := s.Clone()
	require.NoError(t, err)
	assert.Nil(t, out.Filters[0].Config.IncludedValues)
	assert.NotNil(t, out.Filters[1].Config.IncludedValues)
	assert.Empty(t, out.Filters[1].Config.IncludedValues)
	assert.Equal(t, []string{"a"}, out.Filters[2].Config.IncludedValues)

	out.Filters[2].Config.IncludedValues[0] = "b"
	out.Data[0]["cat"] = Text("z")
	assert.Equal(t, "a", s.Filters[2].Config.IncludedValues[0])
	assert.Equal(t, Text("a"), s.Data[0]["cat"])
}
