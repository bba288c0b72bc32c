package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/app"
	"github.com/hyperifyio/goextract/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error().Err(err).Msg("goextractd failed")
		os.Exit(1)
	}
}

// loadConfig parses flags and layers them over env and the config file.
func loadConfig(args []string, stderr io.Writer) (app.Config, bool, error) {
	fs := flag.NewFlagSet("goextractd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	parsed := app.DefaultConfig()
	var (
		configPath  string
		envFiles    string
		showVersion bool
	)
	fs.StringVar(&parsed.Addr, "addr", parsed.Addr, "Listen address")
	fs.Int64Var(&parsed.MaxBodyBytes, "max.body", parsed.MaxBodyBytes, "Maximum request body size in bytes")
	app.RegisterExtractionFlags(fs, &parsed)
	fs.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	fs.StringVar(&envFiles, "env", "", "Comma-separated dotenv files to load before reading the environment")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, false, err
	}
	if showVersion {
		return app.Config{}, true, nil
	}
	if err := app.LoadEnvFiles(app.SplitList(envFiles)...); err != nil {
		return app.Config{}, false, fmt.Errorf("load env files: %w", err)
	}
	var fc *app.FileConfig
	if configPath != "" {
		loaded, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, false, fmt.Errorf("load config: %w", err)
		}
		fc = &loaded
	}
	return app.Resolve(fc, parsed, app.SetFlags(fs)), false, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339})

	cfg, showVersion, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}
	if showVersion {
		fmt.Fprintln(stdout, app.VersionString())
		return nil
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	rc, err := app.OpenCache(cfg)
	if err != nil {
		return err
	}
	s, err := server.New(cfg.ExtractorConfig(rc), cfg.MaxBodyBytes, app.BuildVersion)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("version", app.BuildVersion).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
