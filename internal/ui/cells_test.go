package ui

import (
	"strings"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-globe/internal/raster"
)

func TestCanvasCells(t *testing.T) {
	c := raster.New(3, 4)
	c.Clear(colorful.Color{R: 0, G: 0, B: 1})
	// Paint only the top pixel row red.
	c.Shade(func(x, y float64) (colorful.Color, float64, bool) {
		return colorful.Color{R: 1}, 1, y < 1
	})

	grid := canvasCells(c, 3, 2)
	if len(grid) != 2 || len(grid[0]) != 3 {
		t.Fatalf("grid = %dx%d, want 3x2", len(grid[0]), len(grid))
	}

	top := grid[0][1]
	if top.r != glyphHalfBlock {
		t.Errorf("glyph = %q, want %q", top.r, glyphHalfBlock)
	}
	if top.fg != "#ff0000" || top.bg != "#0000ff" {
		t.Errorf("top cell fg/bg = %s/%s, want #ff0000/#0000ff", top.fg, top.bg)
	}
	if bottom := grid[1][1]; bottom.fg != "#0000ff" || bottom.bg != "#0000ff" {
		t.Errorf("bottom cell fg/bg = %s/%s, want #0000ff/#0000ff", bottom.fg, bottom.bg)
	}
}

func TestRenderCells(t *testing.T) {
	grid := [][]cell{
		{{r: 'a', fg: "#ffffff", bg: "#000000"}, {r: 'b', fg: "#ffffff", bg: "#000000"}, {r: 'c', fg: "#ff0000", bg: "#000000"}},
		{{r: 'd', fg: "#ffffff", bg: "#000000"}, {r: 'e', fg: "#ffffff", bg: "#000000"}, {r: 'f', fg: "#ffffff", bg: "#000000"}},
	}

	out := renderCells(grid)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, want := range []string{"ab", "c", "def"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestWriteText(t *testing.T) {
	newGrid := func() [][]cell {
		g := make([][]cell, 2)
		for y := range g {
			g[y] = make([]cell, 5)
			for x := range g[y] {
				g[y][x] = cell{r: glyphHalfBlock, fg: "#111111", bg: "#222222"}
			}
		}
		return g
	}

	tests := []struct {
		name string
		x, y int
		text string
		want string
	}{
		{"inside", 1, 0, "ab", "▀ab▀▀"},
		{"clipped right", 3, 0, "xyz", "▀▀▀xy"},
		{"clipped left", -1, 0, "xyz", "yz▀▀▀"},
		{"row out of range", 0, 5, "xyz", "▀▀▀▀▀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid()
			writeText(g, tt.x, tt.y, tt.text, "#ffffff")

			var got strings.Builder
			for _, c := range g[0] {
				got.WriteRune(c.r)
			}
			if got.String() != tt.want {
				t.Errorf("row = %q, want %q", got.String(), tt.want)
			}
			for _, c := range g[0] {
				if c.bg != "#222222" {
					t.Errorf("background changed to %s", c.bg)
				}
			}
		})
	}
}
