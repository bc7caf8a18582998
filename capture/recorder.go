package capture

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/queue"
)

// Status is the recorder state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRecording  Status = "recording"
	StatusProcessing Status = "processing"
)

const (
	DefaultChunkInterval = time.Second
	DefaultTickInterval  = 250 * time.Millisecond
)

// Options configures a Recorder. All callbacks are optional and are invoked
// without the recorder lock held.
type Options struct {
	// ChunkInterval is how often buffered audio is pulled from the stream.
	ChunkInterval time.Duration
	// TickInterval is how often OnTick receives the elapsed time.
	TickInterval time.Duration

	OnTick   func(elapsed time.Duration)
	OnStatus func(Status)
	// OnError receives failures that happen while recording, outside any call.
	OnError func(error)
	// OnFinished consumes the recording. The recorder stays in
	// StatusProcessing until it returns.
	OnFinished func(ctx context.Context, rec model.Recording) error

	Now    func() time.Time
	Logger *slog.Logger
}

// Recorder is the capture state machine: Idle → Recording → Processing → Idle.
type Recorder struct {
	device Device
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	status Status
	active *recording
	closed bool
}

// recording owns the device handle and both periodic activities of a
// single capture. teardown is the only way the stream gets closed.
type recording struct {
	stream  Stream
	started time.Time
	cancel  context.CancelFunc
	group   *errgroup.Group
	chunks  *queue.Queue[model.AudioChunk]

	release    sync.Once
	releaseErr error
}

// NewRecorder creates an idle recorder for device.
func NewRecorder(device Device, opts Options) *Recorder {
	if opts.ChunkInterval <= 0 {
		opts.ChunkInterval = DefaultChunkInterval
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		device: device,
		opts:   opts,
		logger: logger.With("component", "recorder"),
		status: StatusIdle,
	}
}

// Status returns the current state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Elapsed returns the time since the active recording started, or zero.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0
	}
	return r.opts.Now().Sub(r.active.started)
}

// Start opens the device and begins recording. It does nothing unless the
// recorder is idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.Wrap(ErrCaptureUnavailable, "recorder closed")
	}
	if r.status != StatusIdle {
		r.mu.Unlock()
		return nil
	}

	stream, err := r.device.Open(ctx)
	if err != nil {
		r.mu.Unlock()
		if !errors.Is(err, ErrCaptureUnavailable) {
			err = errors.Wrapf(ErrCaptureUnavailable, "open device: %v", err)
		}
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(runCtx)
	rec := &recording{
		stream:  stream,
		started: r.opts.Now(),
		cancel:  cancel,
		group:   group,
		chunks:  queue.New[model.AudioChunk](),
	}
	group.Go(func() error { return r.pump(groupCtx, rec) })
	group.Go(func() error { return r.tick(groupCtx, rec) })

	r.active = rec
	r.status = StatusRecording
	r.mu.Unlock()

	r.logger.Debug("recording started", "mime_type", stream.MimeType())
	r.notify(StatusRecording)
	go r.supervise(rec)
	return nil
}

// Stop finishes the recording and hands it to OnFinished. The device is
// released before the consumer runs. Calling Stop when not recording is a no-op.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.status != StatusRecording {
		r.mu.Unlock()
		return nil
	}
	rec := r.active
	r.active = nil
	r.status = StatusProcessing
	stoppedAt := r.opts.Now()
	r.mu.Unlock()

	r.notify(StatusProcessing)
	defer r.idle()

	rec.cancel()
	err := rec.group.Wait()
	if err == nil {
		err = rec.collect()
	}
	if releaseErr := rec.teardown(); releaseErr != nil {
		r.logger.Warn("releasing audio device", "error", releaseErr)
	}
	if err != nil {
		return err
	}

	result := model.Recording{
		DurationSeconds: stoppedAt.Sub(rec.started).Seconds(),
		Audio:           rec.audio(),
		MimeType:        rec.stream.MimeType(),
	}
	r.logger.Debug("recording finished", "bytes", len(result.Audio), "duration", result.DurationSeconds)

	if r.opts.OnFinished == nil {
		return nil
	}
	return r.opts.OnFinished(ctx, result)
}

// Discard drops the active recording without emitting a result.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	if r.status != StatusRecording {
		r.mu.Unlock()
		return nil
	}
	rec := r.active
	r.active = nil
	r.status = StatusIdle
	r.mu.Unlock()

	rec.cancel()
	_ = rec.group.Wait()
	err := rec.teardown()
	rec.chunks.Drain()

	r.logger.Debug("recording discarded")
	r.notify(StatusIdle)
	return err
}

// Close disposes of the recorder, discarding any active recording.
// It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.Discard()
}

func (r *Recorder) pump(ctx context.Context, rec *recording) error {
	ticker := time.NewTicker(r.opts.ChunkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := rec.collect(); err != nil {
				return err
			}
		}
	}
}

func (r *Recorder) tick(ctx context.Context, rec *recording) error {
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if r.opts.OnTick != nil {
				r.opts.OnTick(r.opts.Now().Sub(rec.started))
			}
		}
	}
}

// supervise handles a device failure while recording.
func (r *Recorder) supervise(rec *recording) {
	err := rec.group.Wait()
	if err == nil {
		return
	}

	r.mu.Lock()
	if r.active != rec {
		// Stop or Discard already took ownership.
		r.mu.Unlock()
		return
	}
	r.active = nil
	r.status = StatusIdle
	r.mu.Unlock()

	if releaseErr := rec.teardown(); releaseErr != nil {
		r.logger.Warn("releasing audio device", "error", releaseErr)
	}
	r.logger.Error("recording aborted", "error", err)
	r.notify(StatusIdle)
	if r.opts.OnError != nil {
		r.opts.OnError(err)
	}
}

func (r *Recorder) idle() {
	r.mu.Lock()
	r.status = StatusIdle
	r.mu.Unlock()
	r.notify(StatusIdle)
}

func (r *Recorder) notify(s Status) {
	if r.opts.OnStatus != nil {
		r.opts.OnStatus(s)
	}
}

func (rec *recording) collect() error {
	b, err := rec.stream.Chunk()
	if err != nil {
		return errors.Wrapf(ErrDeviceFailure, "read chunk: %v", err)
	}
	if len(b) > 0 {
		rec.chunks.Enqueue(b)
	}
	return nil
}

func (rec *recording) audio() []byte {
	chunks := rec.chunks.Drain()
	parts := make([][]byte, len(chunks))
	for i, c := range chunks {
		parts[i] = c
	}
	return bytes.Join(parts, nil)
}

func (rec *recording) teardown() error {
	rec.cancel()
	rec.release.Do(func() {
		rec.releaseErr = rec.stream.Close()
	})
	return rec.releaseErr
}
