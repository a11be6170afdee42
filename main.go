package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/vote-for-me/auth"
	"github.com/danielhkuo/vote-for-me/broadcast"
	"github.com/danielhkuo/vote-for-me/cliparse"
	"github.com/danielhkuo/vote-for-me/mailer"
	"github.com/danielhkuo/vote-for-me/manager"
	"github.com/danielhkuo/vote-for-me/middleware"
	"github.com/danielhkuo/vote-for-me/router"
	"github.com/danielhkuo/vote-for-me/store"
)

func main() {
	// Load .env if present; real env always wins
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded .env file")
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open the file-backed session store
	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		slog.Error("store initialization failed", "error", err)
		os.Exit(1)
	}

	// Recover from any interrupted writes or relocations
	if err := st.RebuildIndexes(); err != nil {
		slog.Error("index rebuild failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store ready", "data_dir", cfg.DataDir)

	admin, err := auth.NewAdmin(cfg.AdminPassword, cfg.JWTSecret)
	if err != nil {
		slog.Error("admin setup failed", "error", err)
		os.Exit(1)
	}

	b := broadcast.New()
	mgr := manager.New(st, b)
	sender := mailer.FromConfig(cfg.Mail)

	// Create router
	mux := router.NewRouter(mgr, b, admin, sender, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "base_url", cfg.BaseURL)
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
