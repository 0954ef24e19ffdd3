package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/roversim/sim/scenario"
	"github.com/wricardo/mcp-training/roversim/sim/service"
	"github.com/wricardo/mcp-training/roversim/sim/session"
)

const (
	Version = "1.0.0"
	AppName = "Rover Grid Simulator"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn("error loading .env file", "error", err)
		}
	} else {
		log.Debug("loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newApp builds the root command and all subcommands
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "roversim",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("ROVER_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "scenario-dir",
				Usage:   "directory containing scenario files",
				Value:   "scenarios",
				Sources: cli.EnvVars("SCENARIO_DIR"),
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
			serverCommand(),
			stdioMCPCommand(),
		},
		DefaultCommand: "run",
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "roversim",
	})
	if cmd.Bool("debug") {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	}
	log.SetDefault(logger)
	return ctx, nil
}

// initializeServices wires the scenario and session managers into the rover
// service. The scenario directory must exist.
func initializeServices(scenarioDir string) (service.RoverService, *session.Manager, error) {
	scenarios, err := scenario.NewManager(scenarioDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scenario manager: %w", err)
	}

	sessions := session.NewManager()
	return service.NewRoverService(sessions, scenarios), sessions, nil
}

// sessionCleanupRoutine prunes sessions idle for longer than ttl until ctx
// is cancelled
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Info("cleaned up expired sessions", "removed", removed)
			}
		}
	}
}
