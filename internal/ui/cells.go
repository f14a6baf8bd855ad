package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-globe/internal/raster"
)

// glyphHalfBlock draws the top pixel of a cell in the foreground colour and
// the bottom pixel in the background colour.
const glyphHalfBlock = '▀'

// cell is one terminal character of the globe canvas.
type cell struct {
	r    rune
	fg   string
	bg   string
	bold bool
}

// canvasCells turns a canvas twice as tall as rows into half-block cells.
func canvasCells(c *raster.Canvas, cols, rows int) [][]cell {
	grid := make([][]cell, rows)
	for y := 0; y < rows; y++ {
		row := make([]cell, cols)
		for x := 0; x < cols; x++ {
			row[x] = cell{
				r:  glyphHalfBlock,
				fg: c.Pixel(x, 2*y).Hex(),
				bg: c.Pixel(x, 2*y+1).Hex(),
			}
		}
		grid[y] = row
	}
	return grid
}

// renderCells styles the grid, merging runs of identically coloured cells
// into a single lipgloss render.
func renderCells(grid [][]cell) string {
	var b strings.Builder
	var run []rune
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < len(row); {
			start := row[x]
			run = run[:0]
			for x < len(row) && row[x].fg == start.fg && row[x].bg == start.bg && row[x].bold == start.bold {
				run = append(run, row[x].r)
				x++
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(start.fg)).
				Background(lipgloss.Color(start.bg)).
				Bold(start.bold)
			b.WriteString(style.Render(string(run)))
		}
	}
	return b.String()
}

// writeText places s into row y starting at column x, keeping each cell's
// background.
func writeText(grid [][]cell, x, y int, s, fg string) {
	if y < 0 || y >= len(grid) {
		return
	}
	row := grid[y]
	for _, r := range s {
		if x >= len(row) {
			return
		}
		if x >= 0 {
			row[x] = cell{r: r, fg: fg, bg: row[x].bg}
		}
		x++
	}
}
