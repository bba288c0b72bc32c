package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/app"
	"github.com/hyperifyio/goextract/internal/extractor"
)

// Exit codes.
const (
	exitOK         = 0
	exitOther      = 1
	exitConfig     = 2
	exitExtraction = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339})

	fs := flag.NewFlagSet("goextract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	parsed := app.DefaultConfig()
	var (
		configPath  string
		envFiles    string
		showVersion bool
	)
	fs.StringVar(&parsed.InputPath, "input", parsed.InputPath, "Input file path, - for stdin")
	fs.StringVar(&parsed.URL, "url", parsed.URL, "Download the document from this http(s) URL instead of -input")
	fs.StringVar(&parsed.OutputPath, "output", parsed.OutputPath, "Output file path, - for stdout")
	fs.StringVar(&parsed.MetaPath, "meta", parsed.MetaPath, "Metadata sidecar JSON path (default <output>.meta.json when output is a file)")
	fs.StringVar(&parsed.UserAgent, "user-agent", parsed.UserAgent, "User-Agent for -url downloads")
	app.RegisterExtractionFlags(fs, &parsed)
	fs.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	fs.StringVar(&envFiles, "env", "", "Comma-separated dotenv files to load before reading the environment")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}
	if showVersion {
		fmt.Fprintln(stdout, app.VersionString())
		return exitOK
	}

	if err := app.LoadEnvFiles(app.SplitList(envFiles)...); err != nil {
		log.Error().Err(err).Msg("load env files")
		return exitConfig
	}
	var fc *app.FileConfig
	if configPath != "" {
		loaded, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			return exitConfig
		}
		fc = &loaded
	}
	cfg := app.Resolve(fc, parsed, app.SetFlags(fs))

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init")
		return exitCode(err)
	}
	defer a.Close()
	a.Stdin = stdin
	a.Stdout = stdout

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps sentinel errors to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, extractor.ErrConfiguration):
		return exitConfig
	case errors.Is(err, extractor.ErrExtractionFailed):
		return exitExtraction
	}
	return exitOther
}
