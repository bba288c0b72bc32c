// Package convert runs external command-line converters (pdftotext,
// swf2html, djvutxt) over a document and turns their output into text and
// raw metadata.
//
// Every converter goes through Runner, which owns the temp-file protocol:
// the input is written to a fresh temp file, the tool writes to a second
// one, and both are removed before Run returns.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single converter run.
const DefaultTimeout = 2 * time.Minute

// ErrTimeout is returned when a converter exceeds its time budget.
var ErrTimeout = errors.New("converter timed out")

// Runner executes converter binaries. The zero value uses the system temp
// directory and DefaultTimeout.
type Runner struct {
	// TempDir holds the input and output files. When it does not exist or
	// is not a directory the system temp directory is used instead.
	TempDir string
	Timeout time.Duration
}

// Job describes one converter invocation.
type Job struct {
	Bin       string
	InSuffix  string
	OutSuffix string
	// Args builds the argument list from the temp file paths.
	Args func(in, out string) []string
}

// Run writes input to a temp file, runs the job and returns what the tool
// wrote to its output file.
func (r Runner) Run(ctx context.Context, job Job, input []byte) (out []byte, err error) {
	dir := r.dir()
	inFile, err := os.CreateTemp(dir, "goextract-in-*"+job.InSuffix)
	if err != nil {
		return nil, fmt.Errorf("create input file: %w", err)
	}
	inPath := inFile.Name()
	defer removeTemp(inPath)
	if _, err := inFile.Write(input); err != nil {
		_ = inFile.Close()
		return nil, fmt.Errorf("write input file: %w", err)
	}
	if err := inFile.Close(); err != nil {
		return nil, fmt.Errorf("close input file: %w", err)
	}

	outFile, err := os.CreateTemp(dir, "goextract-out-*"+job.OutSuffix)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	outPath := outFile.Name()
	defer removeTemp(outPath)
	_ = outFile.Close()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := job.Args(inPath, outPath)
	cmd := exec.CommandContext(runCtx, job.Bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	name := filepath.Base(job.Bin)
	log.Debug().Str("bin", job.Bin).Strs("args", args).Dur("timeout", timeout).Msg("run converter")
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%s: %w after %s", name, ErrTimeout, timeout)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	log.Debug().Str("bin", name).Dur("took", time.Since(start)).Msg("converter finished")

	out, err = os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%s: read output: %w", name, err)
	}
	return out, nil
}

func (r Runner) dir() string {
	if r.TempDir == "" {
		return os.TempDir()
	}
	fi, err := os.Stat(r.TempDir)
	if err != nil || !fi.IsDir() {
		log.Warn().Str("dir", r.TempDir).Msg("temp dir unusable; using system temp dir")
		return os.TempDir()
	}
	return r.TempDir
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Debug().Err(err).Str("path", path).Msg("remove temp file")
	}
}
