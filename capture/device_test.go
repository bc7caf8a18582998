package capture

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-notes/model"
)

func TestReaderDeviceBuffersSource(t *testing.T) {
	d := NewReaderDevice(bytes.NewReader([]byte("hello audio")), "")
	s, err := d.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	rs := s.(*ReaderStream)
	assert.Same(t, rs, d.Stream())
	select {
	case <-rs.Exhausted():
	case <-time.After(time.Second):
		t.Fatal("reader never reached EOF")
	}

	b, err := s.Chunk()
	require.NoError(t, err)
	assert.Equal(t, "hello audio", string(b))
	assert.Equal(t, DefaultMimeType, s.MimeType())

	b, err = s.Chunk()
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestFileDeviceMissingSource(t *testing.T) {
	d := NewFileDevice(filepath.Join(t.TempDir(), "missing.webm"), "audio/webm")
	_, err := d.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCaptureUnavailable))
}

func TestFeedDevice(t *testing.T) {
	d := NewFeedDevice()
	d.SetMimeType("audio/ogg")

	n, err := d.Write([]byte("dropped"))
	require.NoError(t, err)
	assert.Zero(t, n)

	s, err := d.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", s.MimeType())

	_, err = d.Open(context.Background())
	assert.True(t, errors.Is(err, ErrCaptureUnavailable))

	_, _ = d.Write([]byte("ab"))
	_, _ = d.Write([]byte("cd"))
	b, err := s.Chunk()
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(b))

	d.Detach()
	_, err = s.Chunk()
	assert.Error(t, err)
	require.NoError(t, s.Close())

	_, err = d.Open(context.Background())
	assert.True(t, errors.Is(err, ErrCaptureUnavailable))
}

func TestRecorderWithFeedDevice(t *testing.T) {
	d := NewFeedDevice()
	var audio []byte
	r := NewRecorder(d, Options{
		ChunkInterval: 5 * time.Millisecond,
		OnFinished: func(ctx context.Context, rec model.Recording) error {
			audio = rec.Audio
			return nil
		},
	})

	require.NoError(t, r.Start(context.Background()))
	_, _ = d.Write([]byte("frame-1 "))
	time.Sleep(15 * time.Millisecond)
	_, _ = d.Write([]byte("frame-2"))
	require.NoError(t, r.Stop(context.Background()))

	assert.Equal(t, "frame-1 frame-2", string(audio))

	// The device can be reopened for the next recording.
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Discard())
}
