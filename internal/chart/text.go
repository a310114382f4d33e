package chart

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	captionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	ascendantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderText renders c as a terminal table, one row per house.
func RenderText(c *Chart) string {
	rows := make([][]string, 0, len(c.Houses))
	for _, h := range c.Houses {
		rows = append(rows, []string{h.Number.Text, h.Sign.Text, bodies(h.Items)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("House", "Sign", "Bodies").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(captionStyle.Render(strings.Join(c.Caption, " · ")))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

func bodies(items []PlacedItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		label := it.Label
		if it.Degree != "" {
			label += " " + it.Degree
		}
		if it.Ascendant {
			label = ascendantStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}
