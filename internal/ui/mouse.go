package ui

import (
	"math"
	"time"
)

// doubleClickWindow is the longest gap between the presses of a double
// click.
const doubleClickWindow = 400 * time.Millisecond

// clickTracker detects double clicks from a stream of left presses.
type clickTracker struct {
	at    time.Time
	x, y  int
	armed bool
}

// press records a left press at cell (x, y) and reports whether it
// completes a double click. A completed double click disarms the tracker,
// so a third quick press starts a new sequence.
func (t *clickTracker) press(x, y int, now time.Time) bool {
	if t.armed && x == t.x && y == t.y && now.Sub(t.at) <= doubleClickWindow {
		t.armed = false
		return true
	}
	t.at, t.x, t.y, t.armed = now, x, y, true
	return false
}

// cellToPixel maps a cell in the canvas to the surface pixel at its centre.
// Each cell is one pixel wide and two tall.
func cellToPixel(col, row int) (float64, float64) {
	return float64(col) + 0.5, float64(row)*2 + 1
}

// pixelToCell maps a surface pixel to the cell containing it.
func pixelToCell(x, y float64) (int, int) {
	return int(math.Floor(x)), int(math.Floor(y / 2))
}
