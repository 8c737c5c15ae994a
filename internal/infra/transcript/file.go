// Package transcript connects the assistant to an external speech pipeline
// through a shared directory of text files.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"smart-home-assistant/internal/application"
)

const (
	transcriptExt = ".txt"
	replyExt      = ".reply.txt"
	processedExt  = ".processed"
)

// FileSource picks up "<id>.txt" files from dir, oldest name first, and
// answers each with "<id>.reply.txt". A consumed transcript is renamed to
// "<id>.txt.processed" so it is never submitted twice, even across restarts.
type FileSource struct {
	dir      string
	interval time.Duration
	logger   *slog.Logger

	mu sync.Mutex
	// stuck holds consumed transcripts that could not be renamed. Entries
	// leave once the file is gone from the inbox.
	stuck map[string]bool
}

func NewFileSource(dir string, interval time.Duration, logger *slog.Logger) *FileSource {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &FileSource{
		dir:      dir,
		interval: interval,
		logger:   logger,
		stuck:    make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating inbox dir: %w", err)
	}
	f.logger.Info("watching transcript inbox", "dir", f.dir, "interval", f.interval)
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

// Next blocks until a new transcript shows up. A failing inbox is reported
// at most once per poll interval.
func (f *FileSource) Next(ctx context.Context) (application.Transcript, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		t, ok, err := f.checkForNewFile()
		if ok {
			return t, nil
		}

		select {
		case <-ctx.Done():
			return application.Transcript{}, ctx.Err()
		case <-ticker.C:
		}

		if err != nil {
			return application.Transcript{}, err
		}
	}
}

func (f *FileSource) checkForNewFile() (application.Transcript, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return application.Transcript{}, false, fmt.Errorf("reading dir: %w", err)
	}

	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		present[filepath.Join(f.dir, entry.Name())] = true
	}
	for path := range f.stuck {
		if !present[path] {
			delete(f.stuck, path)
		}
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isTranscript(name) {
			continue
		}

		path := filepath.Join(f.dir, name)
		if f.stuck[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return application.Transcript{}, false, fmt.Errorf("reading file %s: %w", path, err)
		}

		if err := os.Rename(path, path+processedExt); err != nil {
			f.logger.Warn("marking transcript processed", "path", path, "error", err)
			f.stuck[path] = true
		}

		return application.Transcript{
			ID:   strings.TrimSuffix(name, transcriptExt),
			Text: strings.TrimSpace(string(data)),
		}, true, nil
	}

	return application.Transcript{}, false, nil
}

// Reply writes the answer next to the transcript. The file appears
// atomically so the speech pipeline never reads a partial reply.
func (f *FileSource) Reply(_ context.Context, t application.Transcript, text string) error {
	path := filepath.Join(f.dir, t.ID+replyExt)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing reply: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publishing reply: %w", err)
	}
	return nil
}

func isTranscript(name string) bool {
	return strings.HasSuffix(name, transcriptExt) && !strings.HasSuffix(name, replyExt)
}
