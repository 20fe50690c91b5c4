package patch

import (
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// formatPathTable renders the editable paths with the guidance that applies
// to each. A path without its own entry inherits its nearest parent's, so
// "/vibes/-" is described by "/vibes".
func formatPathTable(paths []string, guidance map[string]string) string {
	if len(paths) == 0 {
		return "all (no restriction)"
	}
	sorted := slices.Clone(paths)
	slices.Sort(sorted)

	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Path", "Guidance")
	for _, path := range sorted {
		_ = table.Append(path, guidanceFor(path, guidance))
	}
	_ = table.Render()
	return strings.TrimRight(buf.String(), "\n")
}

func guidanceFor(path string, guidance map[string]string) string {
	for p := path; p != ""; {
		if g, ok := guidance[p]; ok {
			return g
		}
		i := strings.LastIndexByte(p, '/')
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return ""
}
