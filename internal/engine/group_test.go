package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webplots/internal/models"
)

var highLow = models.GroupSettings{
	Mode: models.GroupManual,
	Bins: []models.GroupBin{
		{ID: "1", Label: "High", Operator: ">", Value: 10},
		{ID: "2", Label: "Low", Operator: "<=", Value: 10},
	},
}

func TestResolveGroupManualFirstMatchWins(t *testing.T) {
	label, ok := ResolveGroup(models.Row{"v": models.Number(15)}, "v", highLow)
	require.True(t, ok)
	assert.Equal(t, "High", label)

	label, ok = ResolveGroup(models.Row{"v": models.Number(10)}, "v", highLow)
	require.True(t, ok)
	assert.Equal(t, "Low", label)

	overlapping := highLow
	overlapping.Bins = append([]models.GroupBin{{Label: "Any", Operator: "!=", Value: -1}}, highLow.Bins...)
	label, _ = ResolveGroup(models.Row{"v": models.Number(15)}, "v", overlapping)
	assert.Equal(t, "Any", label)
}

func TestResolveGroupManualNumericText(t *testing.T) {
	label, ok := ResolveGroup(models.Row{"v": models.Text("12.5")}, "v", highLow)
	require.True(t, ok)
	assert.Equal(t, "High", label)
}

func TestResolveGroupManualNonNumeric(t *testing.T) {
	settings := models.GroupSettings{
		Mode: models.GroupManual,
		Bins: []models.GroupBin{
			{Label: "Big", Operator: ">", Value: 3},
			{Label: "NotThree", Operator: "!=", Value: 3},
		},
	}
	label, ok := ResolveGroup(models.Row{"v": models.Text("abc")}, "v", settings)
	require.True(t, ok)
	assert.Equal(t, "NotThree", label)
}

func TestResolveGroupUnmatchedPolicy(t *testing.T) {
	settings := models.GroupSettings{
		Mode: models.GroupManual,
		Bins: []models.GroupBin{{Label: "High", Operator: ">", Value: 10}},
	}
	row := models.Row{"v": models.Number(1)}

	_, ok := ResolveGroup(row, "v", settings)
	assert.False(t, ok, "unmatched rows are dropped by default")

	settings.Unmatched = models.UnmatchedUngrouped
	label, ok := ResolveGroup(row, "v", settings)
	require.True(t, ok)
	assert.Equal(t, models.UngroupedLabel, label)
}

func TestResolveGroupAuto(t *testing.T) {
	auto := models.GroupSettings{Mode: models.GroupAuto}

	label, ok := ResolveGroup(models.Row{"c": models.Number(3)}, "c", auto)
	require.True(t, ok)
	assert.Equal(t, "3", label)

	_, ok = ResolveGroup(models.Row{"c": models.Null()}, "c", auto)
	assert.False(t, ok)
	_, ok = ResolveGroup(models.Row{}, "c", auto)
	assert.False(t, ok)

	label, ok = ResolveGroup(models.Row{}, "", auto)
	require.True(t, ok)
	assert.Equal(t, "", label)
}

func TestEnumerateGroupsFirstOccurrenceOrder(t *testing.T) {
	rows := []models.Row{
		{"city": models.Text("Oslo")},
		{"city": models.Text("Bergen")},
		{"city": models.Null()},
		{"city": models.Text("Oslo")},
		{"city": models.Text("Alta")},
	}
	g := EnumerateGroups(rows, "city", models.GroupSettings{})

	assert.Equal(t, []string{"Oslo", "Bergen", "Alta"}, g.Labels)
	assert.Equal(t, []int{0, 3}, g.Rows("Oslo"))
	assert.Equal(t, 2, g.Index("Alta"))
	assert.Equal(t, -1, g.Index("Tromso"))
	assert.Equal(t, "city=Oslo", g.DisplayName("Oslo"))

	again := EnumerateGroups(rows, "city", models.GroupSettings{Mode: models.GroupAuto})
	assert.Equal(t, g.Labels, again.Labels)
}

func TestEnumerateGroupsUngrouped(t *testing.T) {
	g := EnumerateGroups(sequenceRows(3), "", models.GroupSettings{})
	assert.False(t, g.Grouped())
	assert.Equal(t, []string{""}, g.Labels)
	assert.Equal(t, []int{0, 1, 2}, g.Rows(""))
	assert.Equal(t, "", g.DisplayName(""))
}

func TestGroupingManualDisplayName(t *testing.T) {
	rows := []models.Row{{"v": models.Number(3)}, {"v": models.Number(30)}}
	g := EnumerateGroups(rows, "v", highLow)
	assert.Equal(t, []string{"Low", "High"}, g.Labels)
	assert.Equal(t, "High", g.DisplayName("High"))
}
