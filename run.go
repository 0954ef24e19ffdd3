package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/roversim/sim/engine"
	"github.com/wricardo/mcp-training/roversim/sim/scenario"
	"github.com/wricardo/mcp-training/roversim/sim/script"
)

var (
	freeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	obstacleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	roverStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	frameStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	traceBlocked = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a scenario and print the final position and status report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scenario",
				Aliases: []string{"s"},
				Usage:   "scenario name in the scenario directory (default: directory default or built-in)",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "scenario file to load instead of the scenario directory",
			},
			&cli.StringFlag{
				Name:    "commands",
				Aliases: []string{"c"},
				Usage:   "command script to run instead of the scenario's own",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print every step before the report",
			},
			&cli.BoolFlag{
				Name:  "map",
				Usage: "draw the grid after the run",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sc, err := resolveScenario(cmd)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Root().Writer, sc, cmd.String("commands"), cmd.Bool("trace"), cmd.Bool("map"))
		},
	}
}

// resolveScenario picks the scenario for the run command: an explicit file,
// a named scenario, the directory default, or the built-in classic scenario
func resolveScenario(cmd *cli.Command) (*engine.Scenario, error) {
	if path := cmd.String("file"); path != "" {
		sc, err := engine.LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if err := scenario.Validate(sc); err != nil {
			return nil, err
		}
		return sc, nil
	}

	name := cmd.String("scenario")
	mgr, err := scenario.NewManager(cmd.String("scenario-dir"))
	if err != nil {
		if name != "" {
			return nil, err
		}
		log.Debug("no scenario directory, using built-in scenario", "error", err)
		return engine.DefaultScenario(), nil
	}

	if name == "" {
		return mgr.GetDefault(), nil
	}
	return mgr.LoadScenario(name)
}

// runSimulation executes the script on a fresh rover and writes the two
// report lines, optionally preceded by a trace and followed by a map
func runSimulation(w io.Writer, sc *engine.Scenario, commands string, trace, drawMap bool) error {
	eng, err := engine.NewEngine(sc)
	if err != nil {
		return err
	}

	if commands == "" {
		commands = sc.Commands
	}
	cmds, err := script.Compile(commands)
	if err != nil {
		return err
	}

	log.Debug("running scenario", "scenario", sc.Name, "commands", script.Format(cmds))

	steps, err := eng.BulkExecute(cmds)
	if err != nil {
		return err
	}

	if trace {
		for _, step := range steps {
			fmt.Fprintln(w, formatTraceStep(step))
		}
	}

	rover := eng.Rover()
	fmt.Fprintln(w, rover.FinalPosition())
	fmt.Fprintln(w, rover.StatusReport())

	if drawMap {
		fmt.Fprintln(w, renderMap(eng.Grid(), rover.State()))
	}
	return nil
}

func formatTraceStep(step engine.Step) string {
	line := fmt.Sprintf("%3d %s %s -> %s", step.Index, step.Command, step.From, step.To)
	if step.Blocked {
		line += traceBlocked.Render(" blocked")
	}
	return line
}

// renderMap draws the grid with styled cells inside a frame
func renderMap(g *engine.Grid, s engine.RoverState) string {
	rows := engine.Render(g, s)
	styled := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for _, r := range row {
			switch r {
			case engine.ViewFree:
				b.WriteString(freeStyle.Render(string(r)))
			case engine.ViewObstacle:
				b.WriteString(obstacleStyle.Render(string(r)))
			default:
				b.WriteString(roverStyle.Render(string(r)))
			}
		}
		styled[i] = b.String()
	}
	return frameStyle.Render(strings.Join(styled, "\n"))
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check scenario files",
		ArgsUsage: "FILE...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("validate: at least one scenario file is required")
			}
			if failed := validateFiles(cmd.Root().Writer, paths); failed > 0 {
				return fmt.Errorf("%d of %d scenario files invalid", failed, len(paths))
			}
			return nil
		},
	}
}

// validateFiles reports each file's status and notes and returns the
// failure count
func validateFiles(w io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		result := scenario.CheckFile(path)
		if !result.Valid {
			fmt.Fprintf(w, "FAIL %s: %s\n", path, strings.Join(result.Errors, "; "))
			failed++
			continue
		}
		sc := result.Scenario
		fmt.Fprintf(w, "ok   %s (%s, %dx%d, %d obstacles, start %s)\n",
			path, sc.Name, sc.Width, sc.Height, len(sc.Obstacles),
			engine.RoverState{X: sc.Start.X, Y: sc.Start.Y, Heading: sc.Start.Heading})
		for _, note := range result.Notes {
			fmt.Fprintf(w, "     note: %s\n", note)
		}
	}
	return failed
}
