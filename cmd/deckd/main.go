// Command deckd serves one presentation over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/text/language"

	deck "github.com/ArtemEIPS/presentation-maker"
	"github.com/ArtemEIPS/presentation-maker/server"
	"github.com/ArtemEIPS/presentation-maker/store"
	"github.com/ArtemEIPS/presentation-maker/store/file"
	"github.com/ArtemEIPS/presentation-maker/store/redis"
	"github.com/ArtemEIPS/presentation-maker/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deckd: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.newLogger(os.Stderr)
	slog.SetDefault(logger)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(shutdownCtx, cfg, logger); err != nil {
		logger.Error("deckd stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg StoreConfig) (store.DocumentStore, io.Closer, error) {
	switch cfg.Kind {
	case "file":
		s, err := file.New(cfg.DataDir)
		return s, nil, err
	case "redis":
		s, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return s, s, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, nil
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	docs, closer, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	lang, err := language.Parse(cfg.Language)
	if err != nil {
		logger.Warn("unknown language, using English", "language", cfg.Language)
		lang = language.English
	}

	fonts := deck.NewFontCache(cfg.Export.FontDirs...)
	exportOpts := deck.DefaultExportOptions()
	exportOpts.FontPath = cfg.Export.FontPath
	exportOpts.FontFamily = cfg.Export.FontFamily
	exportOpts.FontCache = fonts
	exportOpts.FetchTimeout = cfg.Export.FetchTimeout
	exportOpts.Logger = logger
	exporter := deck.NewExporter(exportOpts)

	renderOpts := deck.DefaultRenderOptions()
	renderOpts.Width = cfg.Preview.Width
	renderOpts.FontCache = fonts
	renderOpts.Loader = exporter.Loader()
	renderOpts.Logger = logger

	hub := server.NewHub(logger)
	go hub.Run(ctx)

	session := server.NewSession(ctx, hub, server.Options{
		Key:          cfg.Document,
		Store:        docs,
		HistoryDepth: cfg.HistoryDepth,
		Exporter:     exporter,
		Previews:     deck.NewPreviewRenderer(renderOpts),
		Language:     lang,
		Logger:       logger,
	})
	handler := server.NewHandler(ctx, session, hub, cfg.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr, "store", cfg.Store.Kind, "version", deck.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
