package engine

import (
	"webplots/internal/models"
)

// ResolveGroup assigns a row to a group label. With no group column every row
// belongs to the single implicit group "". ok is false when the row has no
// group and must be left out of grouped traces. Manual bins read the value
// the way a column holding only that value would be read; EnumerateGroups
// reads it with the type of the whole column.
func ResolveGroup(row models.Row, groupColumn string, settings models.GroupSettings) (label string, ok bool) {
	return resolveGroup(row, groupColumn, settings, NewNumberReader([]models.Value{row[groupColumn]}))
}

func resolveGroup(row models.Row, groupColumn string, settings models.GroupSettings, reader NumberReader) (string, bool) {
	if groupColumn == "" {
		return "", true
	}
	val := row[groupColumn]
	if settings.Mode != models.GroupManual {
		if val.IsNull() {
			return "", false
		}
		return val.String(), true
	}
	for _, bin := range settings.Bins {
		if matchBin(val, bin, reader) {
			return bin.Label, true
		}
	}
	if settings.Unmatched == models.UnmatchedUngrouped {
		return models.UngroupedLabel, true
	}
	return "", false
}

// matchBin evaluates "value operator bin.Value". Values that are not numbers
// can only be compared for (in)equality on their string form.
func matchBin(val models.Value, bin models.GroupBin, reader NumberReader) bool {
	if num, ok := reader.Number(val); ok {
		switch bin.Operator {
		case ">":
			return num > bin.Value
		case ">=":
			return num >= bin.Value
		case "<":
			return num < bin.Value
		case "<=":
			return num <= bin.Value
		case "==":
			return num == bin.Value
		case "!=":
			return num != bin.Value
		}
		return false
	}
	target := models.Number(bin.Value).String()
	switch bin.Operator {
	case "==":
		return val.String() == target
	case "!=":
		return val.String() != target
	}
	return false
}

// Grouping is the result of resolving every row of a dataset. Labels are in
// first-occurrence order, which is the group enumeration order used for trace
// ordering and group-derived aesthetics.
type Grouping struct {
	Column   string
	Settings models.GroupSettings
	Labels   []string
	members  map[string][]int
}

// EnumerateGroups resolves all rows. An empty groupColumn yields the implicit
// group "" containing every row.
func EnumerateGroups(rows []models.Row, groupColumn string, settings models.GroupSettings) *Grouping {
	g := &Grouping{
		Column:   groupColumn,
		Settings: settings,
		members:  make(map[string][]int),
	}
	var reader NumberReader
	if groupColumn != "" && settings.Mode == models.GroupManual {
		reader = columnReader(rows, groupColumn)
	}
	for i, row := range rows {
		label, ok := resolveGroup(row, groupColumn, settings, reader)
		if !ok {
			continue
		}
		if _, seen := g.members[label]; !seen {
			g.Labels = append(g.Labels, label)
		}
		g.members[label] = append(g.members[label], i)
	}
	return g
}

func (g *Grouping) Len() int { return len(g.Labels) }

// Index returns the enumeration index of label, or -1.
func (g *Grouping) Index(label string) int {
	for i, l := range g.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Rows returns the indices of the rows in a group, in dataset order.
func (g *Grouping) Rows(label string) []int {
	return g.members[label]
}

// Grouped reports whether a real group column is in use.
func (g *Grouping) Grouped() bool { return g.Column != "" }

// DisplayName is the suffix a group contributes to trace names. Auto groups
// are qualified with their column so "3" reads as "cyl=3".
func (g *Grouping) DisplayName(label string) string {
	if !g.Grouped() {
		return ""
	}
	if g.Settings.Mode == models.GroupManual {
		return label
	}
	return g.Column + "=" + label
}
