// Command reserve-solitaire starts the Reserve Solitaire server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, profile and data directories, the stats backend,
// debug logging, version output, and optional ngrok tunneling for easy
// external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/reserve-solitaire/api"
	"github.com/wricardo/reserve-solitaire/game/config"
	"github.com/wricardo/reserve-solitaire/game/engine"
	"github.com/wricardo/reserve-solitaire/game/service"
	"github.com/wricardo/reserve-solitaire/game/session"
	"github.com/wricardo/reserve-solitaire/game/stats"
	"github.com/wricardo/reserve-solitaire/transport/mcp"
	"github.com/wricardo/reserve-solitaire/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Reserve Solitaire Server"
)

// Background job intervals
const (
	elapsedTick     = time.Second
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
	syncInterval    = 5 * time.Second
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", getConfigDirDefault(), "Directory containing table profiles")
	dataDir      = flag.String("data-dir", getDataDirDefault(), "Directory for saved sessions and stats")
	redisAddr    = flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the stats store (file store when empty)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigDirDefault returns the default profile directory.
// It first honors the CONFIG_DIR environment variable, then falls back to "configs".
func getConfigDirDefault() string {
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		return configDir
	}
	return "configs"
}

// getDataDirDefault honors DATA_DIR, then the XDG data home
func getDataDirDefault() string {
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		return dataDir
	}
	return filepath.Join(xdg.DataHome, "reserve-solitaire")
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090               # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -redis-addr localhost:6379 # Keep stats in redis\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                # Run MCP stdio server\n", os.Args[0])
	}
}

// app holds the wired services shared by both modes
type app struct {
	service service.GameService
	hub     *websocket.Hub
	closers []io.Closer
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("Error loading .env file: %v", err)
		}
	} else {
		logrus.Info("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	logrus.Infof("Starting %s v%s (mode: %s)", AppName, Version, mode)

	a, err := initializeServices(context.Background())
	if err != nil {
		logrus.Fatalf("Failed to initialize services: %v", err)
	}
	defer a.shutdown()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		// MCP speaks on stdout, so logs must stay on stderr
		logrus.SetOutput(os.Stderr)
		runStdioMCPWithInternalServer(a)

	case "server", "http":
		runHTTPServer(a)

	default:
		logrus.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// newStatsStore picks the redis store when an address is configured
func newStatsStore(ctx context.Context, addr, dir string) (stats.Store, io.Closer, error) {
	if addr != "" {
		store, err := stats.NewRedisStore(ctx, addr, "reserve-solitaire:stats")
		if err != nil {
			return nil, nil, err
		}
		logrus.Infof("Stats stored in redis at %s", addr)
		return store, store, nil
	}

	store, err := stats.NewFileStore(filepath.Join(dir, "stats.json"))
	if err != nil {
		return nil, nil, err
	}
	logrus.Infof("Stats stored in %s", store.Path())
	return store, nil, nil
}

// initializeServices wires profile, session and stats storage, the websocket
// hub and the game service, then starts the background routines.
func initializeServices(ctx context.Context) (*app, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	persistence, err := session.NewFilePersistence(filepath.Join(*dataDir, "sessions"), configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logrus.Warnf("Failed to load persisted sessions: %v", err)
	}

	store, closer, err := newStatsStore(ctx, *redisAddr, *dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats store: %w", err)
	}
	recorder := stats.NewRecorder(store, configManager.GetDefault().MaxStatsHistory)
	recorder.OnRecord(func(o engine.Outcome) {
		logrus.WithFields(logrus.Fields{
			"run_id":  o.RunID,
			"outcome": o.Outcome,
			"moves":   o.MoveCount,
		}).Info("Run finished")
	})

	hub := websocket.NewHub()
	go hub.Run()

	gameService := service.NewGameService(sessionManager, configManager,
		service.WithRecorder(recorder),
		service.WithPresenters(hub.Presenter),
	)

	// Clock presence follows the browser tabs watching the table
	hub.OnPresence(func(sessionID string, present bool) {
		if _, err := gameService.SetPresence(context.Background(), sessionID, present); err != nil {
			logrus.WithField("session", sessionID).WithError(err).Debug("presence update skipped")
		}
	})

	a := &app{
		service: gameService,
		hub:     hub,
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	go elapsedRoutine(gameService)
	go sessionCleanupRoutine(gameService)
	go filesystemSyncRoutine(sessionManager, persistence)

	return a, nil
}

// shutdown saves every session and releases the stores
func (a *app) shutdown() {
	if err := a.service.SaveAll(context.Background()); err != nil {
		logrus.Warnf("Failed to save sessions on shutdown: %v", err)
	}
	a.hub.Close()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logrus.Warnf("Failed to close store: %v", err)
		}
	}
}

// elapsedRoutine advances the play clock of every present session
func elapsedRoutine(gameService service.GameService) {
	ticker := time.NewTicker(elapsedTick)
	defer ticker.Stop()

	for range ticker.C {
		gameService.TickElapsed(context.Background(), elapsedTick)
	}
}

// sessionCleanupRoutine periodically evicts sessions that have not been
// accessed within the retention window. Evicted sessions stay on disk.
func sessionCleanupRoutine(gameService service.GameService) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		if removed := gameService.EvictIdle(context.Background(), sessionMaxAge); removed > 0 {
			logrus.Infof("Evicted %d idle sessions", removed)
		}
	}
}

// filesystemSyncRoutine drops in-memory sessions whose files were deleted
func filesystemSyncRoutine(manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for range ticker.C {
		pruned := 0
		for _, s := range manager.List() {
			if persistence.Exists(s.ID) {
				continue
			}
			if err := manager.DeleteFromMemory(s.ID); err == nil {
				pruned++
				logrus.Infof("Pruned session %s from memory (file deleted)", s.ID)
			}
		}

		if pruned > 0 {
			logrus.Infof("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
		}
	}
}

// mcpHandler forwards JSON-RPC bodies to the MCP server
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
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
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(a *app) {
	apiServer := api.NewServer(a.service, a.hub, Version)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logrus.Infof("HTTP server listening on %s", addr)
		logrus.Infof("REST API: http://%s/api", addr)
		logrus.Infof("WebSocket: ws://%s/ws?session=<session_id>", addr)
		logrus.Infof("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, mainRouter)
		}()
	}

	sig := <-stop
	logrus.Infof("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	logrus.Info("Server stopped")
}

// ngrokAuthToken reads the token from the flag or either env var spelling
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, handler http.Handler) {
	authToken := ngrokAuthToken()
	if authToken == "" {
		logrus.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logrus.Info("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logrus.Infof("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logrus.Errorf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logrus.Warnf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	logrus.Infof("Ngrok tunnel established: %s", ngrokURL)
	logrus.Infof("  REST API (ngrok): %s/api", ngrokURL)
	logrus.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	logrus.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		logrus.Debugf("Ngrok server stopped: %v", err)
	}
	logrus.Info("Ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(a *app) {
	var baseURL string

	externalURL := "http://localhost:8080"
	logrus.Infof("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logrus.Infof("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		logrus.Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logrus.Fatalf("Failed to get available port: %v", err)
		}

		internalAddr := listener.Addr().String()
		logrus.Infof("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		httpServer := &http.Server{
			Handler: api.NewServer(a.service, a.hub, Version),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logrus.Errorf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	logrus.Infof("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		logrus.Errorf("MCP stdio server error: %v", err)
	}
}
