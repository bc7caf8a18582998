package capture

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// DefaultMimeType is used when a source does not announce its container format.
const DefaultMimeType = "audio/webm"

var (
	// ErrCaptureUnavailable is returned when no audio source can be opened.
	ErrCaptureUnavailable = errors.New("audio capture unavailable")
	// ErrDeviceFailure is reported when the source fails while recording.
	ErrDeviceFailure = errors.New("audio device failure")
)

// Device is an audio input that can be opened for one recording at a time.
type Device interface {
	// Open acquires the device. Permission problems or a missing source
	// must be reported as ErrCaptureUnavailable.
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open audio input.
type Stream interface {
	// Chunk returns the audio captured since the previous call. It may be empty.
	Chunk() ([]byte, error)
	MimeType() string
	// Close releases the underlying device.
	Close() error
}

// ReaderDevice captures from a byte source such as a file, a pipe from
// arecord/ffmpeg, or stdin.
type ReaderDevice struct {
	open     func() (io.ReadCloser, error)
	mimeType string

	mu   sync.Mutex
	last *ReaderStream
}

// NewReaderDevice wraps an already open reader.
func NewReaderDevice(r io.Reader, mimeType string) *ReaderDevice {
	return &ReaderDevice{
		open: func() (io.ReadCloser, error) {
			if r == nil {
				return nil, errors.New("no reader")
			}
			if rc, ok := r.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(r), nil
		},
		mimeType: mimeType,
	}
}

// NewFileDevice opens path when the recording starts. "-" means stdin.
func NewFileDevice(path string, mimeType string) *ReaderDevice {
	return &ReaderDevice{
		open: func() (io.ReadCloser, error) {
			if path == "-" {
				return io.NopCloser(os.Stdin), nil
			}
			return os.Open(path)
		},
		mimeType: mimeType,
	}
}

// Open starts copying the source into an internal buffer.
func (d *ReaderDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(ErrCaptureUnavailable, err.Error())
	}
	rc, err := d.open()
	if err != nil {
		return nil, errors.Wrapf(ErrCaptureUnavailable, "open source: %v", err)
	}
	mimeType := d.mimeType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	s := &ReaderStream{
		rc:        rc,
		mimeType:  mimeType,
		exhausted: make(chan struct{}),
	}
	go s.copy()

	d.mu.Lock()
	d.last = s
	d.mu.Unlock()
	return s, nil
}

// Stream returns the most recently opened stream, or nil.
func (d *ReaderDevice) Stream() *ReaderStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// ReaderStream is the Stream returned by ReaderDevice.
type ReaderStream struct {
	rc        io.ReadCloser
	mimeType  string
	exhausted chan struct{}

	mu     sync.Mutex
	buf    bytes.Buffer
	err    error
	closed bool
}

func (s *ReaderStream) copy() {
	defer close(s.exhausted)
	p := make([]byte, 32*1024)
	for {
		n, err := s.rc.Read(p)
		s.mu.Lock()
		if n > 0 && !s.closed {
			s.buf.Write(p[:n])
		}
		closed := s.closed
		if err != nil && err != io.EOF && !closed {
			s.err = err
		}
		s.mu.Unlock()
		if err != nil || closed {
			return
		}
	}
}

// Exhausted is closed once the source has no more data.
func (s *ReaderStream) Exhausted() <-chan struct{} {
	return s.exhausted
}

func (s *ReaderStream) Chunk() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.buf.Len() == 0 {
		return nil, nil
	}
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	s.buf.Reset()
	return out, nil
}

func (s *ReaderStream) MimeType() string { return s.mimeType }

func (s *ReaderStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.buf.Reset()
	s.mu.Unlock()
	return s.rc.Close()
}

// FeedDevice is a device whose audio is pushed in by a network session,
// one binary frame at a time.
type FeedDevice struct {
	mu       sync.Mutex
	mimeType string
	current  *feedStream
	detached bool
}

// NewFeedDevice returns a device ready to be opened.
func NewFeedDevice() *FeedDevice {
	return &FeedDevice{mimeType: DefaultMimeType}
}

// SetMimeType sets the container announced by the peer for the next recording.
func (d *FeedDevice) SetMimeType(mimeType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	d.mimeType = mimeType
}

func (d *FeedDevice) Open(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detached {
		return nil, errors.Wrap(ErrCaptureUnavailable, "peer disconnected")
	}
	if d.current != nil {
		return nil, errors.Wrap(ErrCaptureUnavailable, "device busy")
	}
	d.current = &feedStream{device: d, mimeType: d.mimeType}
	return d.current, nil
}

// Write appends a frame to the open stream. Frames arriving while nothing
// is recording are dropped.
func (d *FeedDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return 0, nil
	}
	d.current.buf.Write(p)
	return len(p), nil
}

// Fail makes the open stream report err on its next read.
func (d *FeedDevice) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil && d.current.err == nil {
		d.current.err = err
	}
}

// Detach fails any open stream and refuses further opens.
func (d *FeedDevice) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detached = true
	if d.current != nil && d.current.err == nil {
		d.current.err = errors.New("peer disconnected")
	}
}

type feedStream struct {
	device   *FeedDevice
	mimeType string
	buf      bytes.Buffer
	err      error
}

func (s *feedStream) Chunk() ([]byte, error) {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.buf.Len() == 0 {
		return nil, nil
	}
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	s.buf.Reset()
	return out, nil
}

func (s *feedStream) MimeType() string { return s.mimeType }

func (s *feedStream) Close() error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	if s.device.current == s {
		s.device.current = nil
	}
	s.buf.Reset()
	return nil
}
