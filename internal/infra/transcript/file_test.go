package transcript_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smart-home-assistant/internal/application"
	"smart-home-assistant/internal/infra/transcript"
)

func newSource(t *testing.T) (*transcript.FileSource, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "inbox")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := transcript.NewFileSource(dir, 10*time.Millisecond, logger)
	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return source, dir
}

func TestFileSource_NextAndReply(t *testing.T) {
	source, dir := newSource(t)

	if err := os.WriteFile(filepath.Join(dir, "utt-001.txt"), []byte("  turn on the kitchen lamp\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.ID != "utt-001" || got.Text != "turn on the kitchen lamp" {
		t.Errorf("transcript: got %+v", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "utt-001.txt.processed")); err != nil {
		t.Errorf("transcript should be marked processed: %v", err)
	}

	if err := source.Reply(ctx, got, "✅ Kitchen Lamp turned on"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	reply, err := os.ReadFile(filepath.Join(dir, "utt-001.reply.txt"))
	if err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	if string(reply) != "✅ Kitchen Lamp turned on\n" {
		t.Errorf("reply: got %q", reply)
	}
}

func TestFileSource_EachTranscriptOnce(t *testing.T) {
	source, dir := newSource(t)

	for _, name := range []string{"b.txt", "a.txt", "a.reply.txt", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var ids []string
	for range 2 {
		got, err := source.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		ids = append(ids, got.ID)
	}
	if ids[0] != "a" || ids[1] != "b" {
		t.Errorf("order: got %v, want [a b]", ids)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelShort()

	if _, err := source.Next(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next on drained inbox: got %v, want deadline exceeded", err)
	}
}

func TestFileSource_WaitsForNewFiles(t *testing.T) {
	source, dir := newSource(t)

	go func() {
		time.Sleep(50 * time.Millisecond)
		tmp := filepath.Join(dir, "late.partial")
		os.WriteFile(tmp, []byte("what time is it"), 0o644)
		os.Rename(tmp, filepath.Join(dir, "late.txt"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Text != "what time is it" {
		t.Errorf("Text: got %q", got.Text)
	}
}

func TestFileSource_ImplementsTranscriptSource(t *testing.T) {
	var _ application.TranscriptSource = (*transcript.FileSource)(nil)
}

func TestFileSource_MissingInboxIsPolled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := transcript.NewFileSource(dir, 50*time.Millisecond, logger)
	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	failures := 0
	for ctx.Err() == nil {
		_, err := source.Next(ctx)
		if err == nil {
			t.Fatal("Next on a missing inbox should fail")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			break
		}
		failures++
	}

	if failures == 0 || failures > 5 {
		t.Errorf("failures in 200ms with a 50ms interval: got %d, want 1 to 5", failures)
	}
}
