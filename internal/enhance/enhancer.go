// Package enhance invokes the external image upscaler on chapter
// directories.
package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Enhancer runs a waifu2x-ncnn-vulkan style upscaler as a subprocess,
// one invocation per chapter directory. A failed or missing upscaler is
// never fatal to the pipeline: callers fall back to the raw pages.
type Enhancer struct {
	command string
	noise   int
	scale   int
	timeout time.Duration
	log     *slog.Logger
}

// New creates an Enhancer invoking command with the given noise and
// scale parameters. timeout bounds a single directory invocation.
func New(command string, noise, scale int, timeout time.Duration, log *slog.Logger) *Enhancer {
	return &Enhancer{
		command: command,
		noise:   noise,
		scale:   scale,
		timeout: timeout,
		log:     log,
	}
}

// Verify checks that the upscaler executable is present and responds.
// Called once up front so a misconfigured command fails the whole
// enhancement feature early instead of every chapter individually.
func (e *Enhancer) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, "-h")
	if err := cmd.Run(); err != nil {
		// Upscalers commonly exit non-zero on -h; only a missing
		// executable or a timeout counts as unavailable.
		if _, isExit := err.(*exec.ExitError); isExit {
			return nil
		}
		return fmt.Errorf("upscaler %q not available: %w", e.command, err)
	}
	return nil
}

// Enhance upscales every image in srcDir into dstDir, creating dstDir.
// Returns an error when the subprocess fails, times out, or produces no
// output files.
func (e *Enhancer) Enhance(ctx context.Context, srcDir, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{
		"-i", srcDir,
		"-o", dstDir,
		"-n", strconv.Itoa(e.noise),
		"-s", strconv.Itoa(e.scale),
	}

	e.log.Debug("running upscaler", "command", e.command, "source", srcDir, "dest", dstDir)

	cmd := exec.CommandContext(ctx, e.command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("upscaler failed for %s: %w: %s", srcDir, err, strings.TrimSpace(string(output)))
	}

	produced, err := countImages(dstDir)
	if err != nil {
		return err
	}
	if produced == 0 {
		return fmt.Errorf("upscaler produced no output for %s", srcDir)
	}

	e.log.Debug("upscaler finished", "source", srcDir, "images", produced)
	return nil
}

func countImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			count++
		}
	}
	return count, nil
}
