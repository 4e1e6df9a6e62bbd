// ABOUTME: Entry point for the fold-login authentication server
// ABOUTME: Wires backends, token store and HTTP session layer together

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/fold-login/internal/admin"
	"github.com/2389/fold-login/internal/backend"
	"github.com/2389/fold-login/internal/config"
	"github.com/2389/fold-login/internal/events"
	"github.com/2389/fold-login/internal/httpapi"
	"github.com/2389/fold-login/internal/login"
	"github.com/2389/fold-login/internal/session"
	"github.com/2389/fold-login/internal/store"
	"github.com/2389/fold-login/internal/token"
	"github.com/2389/fold-login/internal/user"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  __       _     _       _             _
 / _| ___ | | __| |     | | ___   __ _(_)_ __
| |_ / _ \| |/ _' |_____| |/ _ \ / _' | | '_ \
|  _| (_) | | (_| |_____| | (_) | (_| | | | | |
|_|  \___/|_|\__,_|     |_|\___/ \__, |_|_| |_|
                                 |___/
`

// getConfigPath returns the path to the fold-login config file.
// Priority: FOLD_LOGIN_CONFIG env var > XDG_CONFIG_HOME/fold/login.yaml > ~/.config/fold/login.yaml
func getConfigPath() string {
	if envPath := os.Getenv("FOLD_LOGIN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "login.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "fold", "login.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: fold-login <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                  Start the login server")
		fmt.Println("  adduser --uid UID      Provision a user in the database backend")
		fmt.Println("  version                Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "adduser":
		err = runAddUser(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	logger.Info("starting fold-login",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	registry := backend.NewRegistry(logger.With("component", "backend"))
	registry.RegisterDriver("database", backend.DatabaseConstructor(db))
	registry.RegisterDriver("dummy", backend.DummyConstructor())
	registry.RegisterDriver("trustedheader", backend.TrustedHeaderConstructor())

	if err := registry.RegisterByName("database"); err != nil {
		return fmt.Errorf("registering default backend: %w", err)
	}
	if !cfg.Backends.DefaultEnabled() {
		registry.Clear()
	}
	registry.SetupFromConfig(cfg.Backends.Extra)

	if cfg.Auth.RemoteUserHeader != "" {
		// Header trust is configured out-of-band of the backend list; make
		// sure the SSO adapter is present so assertions get picked up.
		if registry.Lookup("trustedheader") == nil {
			registry.Register(backend.NewTrustedHeader(""))
		}
	}

	dispatcher := events.NewDispatcher()
	dispatcher.OnUserLoggedIn(func(ev events.UserLoggedIn) {
		logger.Info("user logged in", "uid", ev.UID, "token_login", ev.TokenLogin)
	})
	dispatcher.OnLoggedOut(func(ev events.LoggedOut) {
		logger.Info("user logged out", "uid", ev.UID)
	})

	tokens := token.NewProvider(db, logger.With("component", "token"))
	sessions := session.NewRegistry()

	controller := login.NewController(login.Deps{
		Registry:      registry,
		Users:         db,
		Groups:        db,
		Tokens:        tokens,
		Events:        dispatcher,
		Filesystem:    &localFilesystem{root: filepath.Dir(cfg.Database.Path), logger: logger},
		Routes:        httpapi.RouteTable{},
		CSRF:          httpapi.NewRequestTokenSource([]byte(cfg.Auth.RequestTokenSecret), cfg.Auth.RequestTokenTTL),
		Cookies:       httpapi.CookieClearer{},
		ExtraBackends: cfg.Backends.Extra,
		Logger:        logger.With("component", "login"),
	})
	api := httpapi.NewAPI(controller, sessions, logger.With("component", "httpapi"))
	adminAPI := admin.NewService(db, tokens, logger.With("component", "admin"))

	mw := httpapi.NewMiddleware(sessions, db, db, controller, logger.With("component", "httpapi"))
	mw.TrustHeaders(cfg.Auth.RemoteUserHeader, cfg.Auth.RemoteSecretHeader)
	mw.PublicPrefixes(cfg.Auth.PublicPrefixes)

	mux := http.NewServeMux()
	api.Routes(mux)
	adminAPI.Routes(mux)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mw.Handler(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func runAddUser(ctx context.Context) error {
	fs := flag.NewFlagSet("adduser", flag.ExitOnError)
	uid := fs.String("uid", "", "user id (required)")
	display := fs.String("display", "", "display name")
	admin := fs.Bool("admin", false, "add to the admin group")
	disabled := fs.Bool("disabled", false, "create the account disabled")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if *uid == "" {
		return fmt.Errorf("--uid is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	u := &user.User{
		UID:         *uid,
		DisplayName: *display,
		Enabled:     !*disabled,
		Backend:     "database",
	}
	if err := db.CreateUser(ctx, u); err != nil {
		return err
	}
	if *admin {
		if err := db.SetAdmin(ctx, *uid, true); err != nil {
			return err
		}
	}

	green := color.New(color.FgGreen)
	green.Print("    ✓ ")
	fmt.Printf("user %s created\n", *uid)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// localFilesystem is the default storage collaborator: home folders are
// plain directories next to the database.
type localFilesystem struct {
	root   string
	logger *slog.Logger
}

func (f *localFilesystem) Setup(_ context.Context, uid string) error {
	return os.MkdirAll(filepath.Join(f.root, "home", uid), 0755)
}

func (f *localFilesystem) UserFolder(_ context.Context, uid string) error {
	return os.MkdirAll(filepath.Join(f.root, "home", uid, "files"), 0755)
}
