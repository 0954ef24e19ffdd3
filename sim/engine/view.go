package engine

import "strings"

const (
	ViewFree     = '.'
	ViewObstacle = '#'
)

// RoverGlyph returns the arrow drawn for a rover facing h
func RoverGlyph(h Heading) rune {
	switch h {
	case North:
		return '^'
	case East:
		return '>'
	case South:
		return 'v'
	case West:
		return '<'
	}
	return '?'
}

// LocalView returns the 3x3 neighbourhood around the rover, north row first
func LocalView(g *Grid, s RoverState) []string {
	rows := make([]string, 0, 3)
	for dy := 1; dy >= -1; dy-- {
		var b strings.Builder
		for dx := -1; dx <= 1; dx++ {
			b.WriteRune(cellGlyph(g, s, s.X+dx, s.Y+dy))
		}
		rows = append(rows, b.String())
	}
	return rows
}

// Render draws the grid's declared area, widened when needed so the rover
// is always visible. The top row is the highest y.
func Render(g *Grid, s RoverState) []string {
	width, height := g.Size()
	minX, minY := 0, 0
	maxX, maxY := width-1, height-1
	if maxX < minX {
		maxX = minX
	}
	if maxY < minY {
		maxY = minY
	}
	minX, maxX = widen(minX, maxX, s.X)
	minY, maxY = widen(minY, maxY, s.Y)

	rows := make([]string, 0, maxY-minY+1)
	for y := maxY; y >= minY; y-- {
		var b strings.Builder
		for x := minX; x <= maxX; x++ {
			b.WriteRune(cellGlyph(g, s, x, y))
		}
		rows = append(rows, b.String())
	}
	return rows
}

func cellGlyph(g *Grid, s RoverState, x, y int) rune {
	switch {
	case x == s.X && y == s.Y:
		return RoverGlyph(s.Heading)
	case g.IsObstacle(x, y):
		return ViewObstacle
	}
	return ViewFree
}

func widen(lo, hi, v int) (int, int) {
	if v < lo {
		lo = v
	}
	if v > hi {
		hi = v
	}
	return lo, hi
}
