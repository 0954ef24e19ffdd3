package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/roversim/api"
	"github.com/wricardo/mcp-training/roversim/sim/service"
	"github.com/wricardo/mcp-training/roversim/transport/mcp"
	"github.com/wricardo/mcp-training/roversim/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

// ngrokOptions configures the optional public tunnel
type ngrokOptions struct {
	enabled   bool
	authToken string
	domain    string
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"http"},
		Usage:   "serve the REST API, websocket stream and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("ROVER_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("ROVER_PORT"),
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Value: 24 * time.Hour,
				Usage: "drop sessions idle for longer than this",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			roverService, sessions, err := initializeServices(cmd.String("scenario-dir"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go sessionCleanupRoutine(ctx, sessions, cmd.Duration("session-ttl"))

			addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
			return runHTTPServer(ctx, roverService, addr, ngrokOptions{
				enabled:   cmd.Bool("ngrok"),
				authToken: cmd.String("ngrok-auth"),
				domain:    cmd.String("ngrok-domain"),
			})
		},
	}
}

// newRouter mounts the REST API and the MCP endpoint on one handler
func newRouter(roverService service.RoverService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(roverService, hub)
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mux
}

// runHTTPServer serves until ctx is cancelled or the listener fails, then
// shuts down gracefully
func runHTTPServer(ctx context.Context, roverService service.RoverService, addr string, tunnel ngrokOptions) error {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	handler := newRouter(roverService, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", "addr", addr)
		log.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"ws", fmt.Sprintf("ws://%s/ws?session=<id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr),
		)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if tunnel.enabled {
		g.Go(func() error {
			serveNgrok(gctx, handler, tunnel)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	err := g.Wait()
	log.Info("server stopped")
	return err
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is cancelled
func serveNgrok(ctx context.Context, handler http.Handler, opts ngrokOptions) {
	if opts.authToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var endpoint ngrokConfig.Tunnel
	if opts.domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.domain))
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(opts.authToken))
	if err != nil {
		log.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	url := tun.URL()
	log.Info("ngrok tunnel established", "url", url, "api", url+"/api", "mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Error("ngrok server error", "error", err)
	}
	log.Info("ngrok tunnel closed")
}

func stdioMCPCommand() *cli.Command {
	return &cli.Command{
		Name:    "stdio-mcp",
		Aliases: []string{"mcp"},
		Usage:   "serve MCP over stdio, reusing a running API server when one is found",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "API server to reuse when reachable",
				Sources: cli.EnvVars("ROVER_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			baseURL, shutdown, err := resolveAPI(ctx, cmd.String("api-url"), cmd.String("scenario-dir"))
			if err != nil {
				return err
			}
			defer shutdown()

			log.Info("MCP stdio server ready", "api", baseURL)
			return server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())
		},
	}
}

// resolveAPI returns externalURL when it answers the health check,
// otherwise it starts an internal API server on a loopback port
func resolveAPI(ctx context.Context, externalURL, scenarioDir string) (string, func(), error) {
	probe := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, externalURL+"/api/health", nil)
	if err == nil {
		if resp, err := probe.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				log.Info("using external API server", "url", externalURL)
				return externalURL, func() {}, nil
			}
		}
	}

	roverService, _, err := initializeServices(scenarioDir)
	if err != nil {
		return "", nil, err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	httpServer := &http.Server{Handler: api.NewServer(roverService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("internal HTTP server error", "error", err)
		}
	}()

	baseURL := "http://" + listener.Addr().String()
	log.Info("started internal API server", "url", baseURL)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
		hub.Stop()
	}
	return baseURL, shutdown, nil
}
