// Command analyze prints quick, human-readable statistics about the
// scenarios in a scenario directory: declared size, obstacle density and
// extent, distance from the start to the nearest obstacle, and the outcome
// of each scenario's default command script.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/wricardo/mcp-training/roversim/sim/engine"
	"github.com/wricardo/mcp-training/roversim/sim/scenario"
	"github.com/wricardo/mcp-training/roversim/sim/script"
)

// AnalysisBox is the smallest rectangle containing every obstacle
type AnalysisBox struct {
	Min, Max engine.Position
}

func main() {
	dir := "scenarios"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := analyzeDir(os.Stdout, dir); err != nil {
		log.Error("analysis failed", "dir", dir, "error", err)
		os.Exit(1)
	}
}

func analyzeDir(w io.Writer, dir string) error {
	manager, err := scenario.NewManager(dir)
	if err != nil {
		return err
	}
	infos, err := manager.ListScenarios()
	if err != nil {
		return err
	}

	for _, info := range infos {
		sc, err := manager.LoadScenario(info.ScenarioID)
		if err != nil {
			log.Warn("skipping scenario", "scenario", info.ScenarioID, "error", err)
			continue
		}
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.Filename)
		analyzeScenario(w, sc)
	}
	return nil
}

func analyzeScenario(w io.Writer, sc *engine.Scenario) {
	fmt.Fprintf(w, "Name: %s\n", sc.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", sc.Width, sc.Height)
	fmt.Fprintf(w, "Start: (%d, %d, %s)\n", sc.Start.X, sc.Start.Y, sc.Start.Heading)
	fmt.Fprintf(w, "Obstacles: %d\n", len(sc.Obstacles))

	if cells := sc.Width * sc.Height; cells > 0 {
		fmt.Fprintf(w, "Density: %.1f%%\n", 100*float64(len(sc.Obstacles))/float64(cells))
	}

	if box, ok := obstacleBox(sc.Obstacles); ok {
		fmt.Fprintf(w, "Obstacle Extent: %s to %s\n", box.Min, box.Max)
	}

	start := engine.Position{X: sc.Start.X, Y: sc.Start.Y}
	if d, ok := nearestObstacle(start, sc.Obstacles); ok {
		fmt.Fprintf(w, "Nearest Obstacle From Start: %d\n", d)
	}

	if sc.Commands == "" {
		fmt.Fprintf(w, "Default Commands: none\n")
		return
	}

	cmds, err := script.Compile(sc.Commands)
	if err != nil {
		fmt.Fprintf(w, "Default Commands: invalid (%v)\n", err)
		return
	}
	eng, err := engine.NewEngine(sc)
	if err != nil {
		fmt.Fprintf(w, "Default Commands: cannot place rover (%v)\n", err)
		return
	}
	if _, err := eng.BulkExecute(cmds); err != nil {
		fmt.Fprintf(w, "Default Commands: failed (%v)\n", err)
		return
	}

	state := eng.GetState()
	fmt.Fprintf(w, "Default Commands: %d\n", len(cmds))
	fmt.Fprintf(w, "%s\n", state.FinalPosition)
	if state.BlockedMoves > 0 {
		fmt.Fprintf(w, "WARNING: %d moves blocked by obstacles\n", state.BlockedMoves)
	} else {
		fmt.Fprintf(w, "No moves blocked\n")
	}
}

func obstacleBox(obstacles []engine.Position) (AnalysisBox, bool) {
	if len(obstacles) == 0 {
		return AnalysisBox{}, false
	}
	box := AnalysisBox{Min: obstacles[0], Max: obstacles[0]}
	for _, o := range obstacles[1:] {
		box.Min.X = min(box.Min.X, o.X)
		box.Min.Y = min(box.Min.Y, o.Y)
		box.Max.X = max(box.Max.X, o.X)
		box.Max.Y = max(box.Max.Y, o.Y)
	}
	return box, true
}

// nearestObstacle returns the Manhattan distance from p to the closest obstacle
func nearestObstacle(p engine.Position, obstacles []engine.Position) (int, bool) {
	if len(obstacles) == 0 {
		return 0, false
	}
	best := -1
	for _, o := range obstacles {
		d := abs(p.X-o.X) + abs(p.Y-o.Y)
		if best < 0 || d < best {
			best = d
		}
	}
	return best, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
