package engine

import "sort"

// Grid holds the obstacle set a rover navigates. Width and height are
// recorded but do not bound movement or obstacle placement.
type Grid struct {
	width     int
	height    int
	obstacles map[Position]struct{}
}

// NewGrid creates a grid with the given size and obstacles. Duplicate
// obstacles collapse into one.
func NewGrid(width, height int, obstacles []Position) *Grid {
	g := &Grid{
		width:     width,
		height:    height,
		obstacles: make(map[Position]struct{}, len(obstacles)),
	}
	for _, o := range obstacles {
		g.obstacles[o] = struct{}{}
	}
	return g
}

// IsObstacle reports whether (x, y) exactly matches a stored obstacle
func (g *Grid) IsObstacle(x, y int) bool {
	_, ok := g.obstacles[Position{X: x, Y: y}]
	return ok
}

// Size returns the declared width and height
func (g *Grid) Size() (int, int) {
	return g.width, g.height
}

// ObstacleCount returns the number of distinct obstacles
func (g *Grid) ObstacleCount() int {
	return len(g.obstacles)
}

// Obstacles returns the obstacle set ordered by y, then x
func (g *Grid) Obstacles() []Position {
	result := make([]Position, 0, len(g.obstacles))
	for p := range g.obstacles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Y != result[j].Y {
			return result[i].Y < result[j].Y
		}
		return result[i].X < result[j].X
	})
	return result
}
