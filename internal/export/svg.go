package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/aethersim/internal/grid"
)

// GridToSVG renders a 2D grid as a heat map, one square of side scale per
// point. Values are shaded linearly between the grid's min and max.
func GridToSVG(g grid.Grid, scale float64) (string, error) {
	rows, err := grid.Rows(g)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	lo, hi := rows[0][0], rows[0][0]
	for _, row := range rows {
		for _, v := range row {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	span := float64(hi - lo)
	if span == 0 {
		span = 1
	}

	width := float64(len(rows[0])) * scale
	height := float64(len(rows)) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for r, row := range rows {
		for c, v := range row {
			if v == lo {
				continue
			}
			level := int(float64(v-lo) / span * 255)
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#%02x%02x00"/>
`, float64(c)*scale, float64(r)*scale, scale, scale, level/3, level))
		}
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}

// SeriesToSVG draws values against their index as a polyline.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}

	// Add padding
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(len(values) - 1)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, v := range values {
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
