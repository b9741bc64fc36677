package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/aethersim/internal/grid"
)

const heatGlyphs = " ░▒▓█"

// Section extracts the 2D plane through the origin spanned by the first two
// axes of g, clipped to [-radius, radius]. A 1D grid becomes a single row.
func Section(g grid.Grid, radius int) ([][]int64, error) {
	for g.Dim() > 2 {
		var err error
		if g, err = grid.CrossSection(g, g.Dim()-1, 0); err != nil {
			return nil, err
		}
	}
	clip, err := grid.Region(g, grid.Cube(g.Dim(), radius))
	if err != nil {
		return nil, err
	}
	if clip.Dim() == 1 {
		line, err := grid.Line(clip)
		if err != nil {
			return nil, err
		}
		return [][]int64{line}, nil
	}
	return grid.Rows(clip)
}

// level maps v in [lo, hi] onto 0..n-1.
func level(v, lo, hi int64, n int) int {
	if hi <= lo {
		if v > lo {
			return n - 1
		}
		return 0
	}
	l := int(float64(v-lo) / float64(hi-lo) * float64(n-1))
	return min(max(l, 0), n-1)
}

// Heat renders rows as two-column shaded cells colored by theme.
func Heat(rows [][]int64, theme Theme) string {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ""
	}
	lo, hi := rows[0][0], rows[0][0]
	for _, row := range rows {
		for _, v := range row {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}

	glyphs := []rune(heatGlyphs)
	styles := make([]lipgloss.Style, len(theme.Heat))
	for i, c := range theme.Heat {
		styles[i] = lipgloss.NewStyle().Foreground(c)
	}

	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, v := range row {
			g := glyphs[level(v, lo, hi, len(glyphs))]
			cell := string([]rune{g, g})
			if len(styles) > 0 {
				cell = styles[level(v, lo, hi, len(styles))].Render(cell)
			}
			sb.WriteString(cell)
		}
	}
	return sb.String()
}
