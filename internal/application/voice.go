package application

import "context"

// Transcript is one utterance already turned into text by the speech
// pipeline.
type Transcript struct {
	ID   string
	Text string
}

// TranscriptSource is the voice interface: it yields transcripts and takes
// the rendered reply for speech synthesis.
type TranscriptSource interface {
	Start(ctx context.Context) error
	Stop() error
	Next(ctx context.Context) (Transcript, error)
	Reply(ctx context.Context, t Transcript, text string) error
	Name() string
}
