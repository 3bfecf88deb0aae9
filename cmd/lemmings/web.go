package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-lemmings/internal/platform/web"
	"github.com/vovakirdan/tui-lemmings/internal/storage"
)

var flagWebAddr string

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Stream a colony to browsers",
	Long: `Run one colony and stream it to every connected browser over a
websocket. Browsers can send viewer commands and drag obstacles around.

Routes:
  GET  /                 Browser client
  GET  /ws               Websocket state stream
  GET  /state            One state snapshot as JSON
  POST /command/{name}   spawn, destroy, reverse, pause, faster, slower, selector

Examples:
  lemmings web
  lemmings web --addr :9000 --stage overhang
  curl -X POST localhost:8080/command/spawn`,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&flagWebAddr, "addr", "", "HTTP listen address (default from config)")
}

func runWeb(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadStage(cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, "lemmings-web")
	if err != nil {
		return err
	}

	addr := flagWebAddr
	if addr == "" {
		addr = cfg.Server.WebAddr
	}

	hubCfg := web.Config{Stage: st, App: cfg, Logger: logger}
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Warn("could not open incident journal", "error", err)
		store = nil // Continue without storage
	}
	if store != nil {
		defer store.Close()
		hubCfg.Journal = store
	}

	hub := web.NewHub(hubCfg)
	srv := &http.Server{
		Addr:              addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx) }()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		//nolint:errcheck // Shutdown errors are reported by ListenAndServe
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Serving stage %s on http://%s\n", hub.StageID(), addr)
	fmt.Println("Press Ctrl+C to stop")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-hubDone
		return fmt.Errorf("web server: %w", err)
	}
	if err := <-hubDone; err != nil {
		return err
	}

	if store != nil {
		spawned, faults, elapsed := hub.Summary()
		if _, err := store.SaveRun(storage.RunEntry{
			StageID:  hub.StageID(),
			Mode:     "web",
			Spawned:  spawned,
			Faults:   faults,
			Duration: elapsed.Round(time.Millisecond),
		}); err != nil {
			logger.Warn("could not record run", "error", err)
		}
	}
	logger.Info("stopped")
	return nil
}
