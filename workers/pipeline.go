package workers

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// ErrSubmissionInFlight is returned when a recording is submitted while the
// previous one is still being processed.
var ErrSubmissionInFlight = errors.New("a recording is already being processed")

// Processor turns a recording into a structured note.
type Processor interface {
	ProcessAudioNote(ctx context.Context, rec model.Recording) (model.StructuringResponse, error)
}

// NoteSaver persists structured notes.
type NoteSaver interface {
	Create(ctx context.Context, userID, transcript string, durationSeconds float64, title string) (model.Note, error)
}

// NotePipeline takes finished recordings through structuring and persistence
// for one user, one submission at a time.
type NotePipeline struct {
	userID    string
	processor Processor
	saver     NoteSaver
	logger    *slog.Logger

	busy atomic.Bool
}

func NewNotePipeline(userID string, processor Processor, saver NoteSaver, logger *slog.Logger) *NotePipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotePipeline{
		userID:    userID,
		processor: processor,
		saver:     saver,
		logger:    logger.With("component", "pipeline", "user_id", userID),
	}
}

// Busy reports whether a submission is in progress.
func (p *NotePipeline) Busy() bool {
	return p.busy.Load()
}

// Submit processes rec and saves the result. A note is only saved when
// structuring succeeds.
func (p *NotePipeline) Submit(ctx context.Context, rec model.Recording) (model.Note, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return model.Note{}, ErrSubmissionInFlight
	}
	defer p.busy.Store(false)

	resp, err := p.processor.ProcessAudioNote(ctx, rec)
	if err != nil {
		p.logger.Error("processing recording", "error", err)
		return model.Note{}, err
	}

	note, err := p.saver.Create(ctx, p.userID, resp.StructuredTranscript, rec.DurationSeconds, resp.Title)
	if err != nil {
		p.logger.Error("saving note", "error", err)
		return model.Note{}, err
	}
	p.logger.Info("note saved", "note_id", note.ID, "duration", note.DurationSeconds)
	return note, nil
}
