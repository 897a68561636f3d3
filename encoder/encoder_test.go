package encoder

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSink struct {
	buf      bytes.Buffer
	writeErr error
	waitErr  error
	closed   bool
	writes   int
}

func (s *fakeSink) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.writes++
	return s.buf.Write(p)
}

func (s *fakeSink) Close() error { s.closed = true; return nil }

func (s *fakeSink) Wait() error { return s.waitErr }

func smallOpts() Options {
	return Options{Width: 2, Height: 2, FPS: 30, Codec: "h264", Output: "out.mp4"}
}

func TestEncoderWritesFramesInOrder(t *testing.T) {
	sink := &fakeSink{}
	enc := New(sink, smallOpts(), nil)

	var g errgroup.Group
	g.Go(enc.Run)

	for i := 0; i < 5; i++ {
		px := bytes.Repeat([]byte{byte(i)}, 16)
		require.NoError(t, enc.SendVideo(context.Background(), &Frame{Pixels: px, PTS: int64(i)}))
	}
	enc.Close()
	require.NoError(t, g.Wait())

	assert.True(t, sink.closed)
	assert.Equal(t, 5, sink.writes)
	out := sink.buf.Bytes()
	require.Len(t, out, 80)
	assert.Equal(t, byte(0), out[0])
	assert.Equal(t, byte(4), out[79])
}

func TestEncoderRejectsWrongFrameSize(t *testing.T) {
	sink := &fakeSink{}
	enc := New(sink, smallOpts(), nil)

	var g errgroup.Group
	g.Go(enc.Run)

	require.NoError(t, enc.SendVideo(context.Background(), &Frame{Pixels: make([]byte, 3)}))
	err := g.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 16")
	assert.True(t, sink.closed, "sink is closed even on failure")

	assert.ErrorIs(t, enc.SendVideo(context.Background(), &Frame{Pixels: make([]byte, 16)}), ErrStopped)
	enc.Close()
}

func TestEncoderWriteFailureStops(t *testing.T) {
	boom := errors.New("broken pipe")
	sink := &fakeSink{writeErr: boom}
	enc := New(sink, smallOpts(), nil)

	var g errgroup.Group
	g.Go(enc.Run)

	require.NoError(t, enc.SendVideo(context.Background(), &Frame{Pixels: make([]byte, 16)}))
	assert.ErrorIs(t, g.Wait(), boom)
	enc.Close()
}

func TestEncoderReportsSinkWaitError(t *testing.T) {
	boom := errors.New("ffmpeg exited 1")
	enc := New(&fakeSink{waitErr: boom}, smallOpts(), nil)

	var g errgroup.Group
	g.Go(enc.Run)
	enc.Close()
	assert.ErrorIs(t, g.Wait(), boom)
}

func TestSendVideoHonoursContext(t *testing.T) {
	enc := New(&fakeSink{}, smallOpts(), nil)
	// Run is not started, so the queue fills up.
	for i := 0; i < cap(enc.videoFrames); i++ {
		require.NoError(t, enc.SendVideo(context.Background(), &Frame{Pixels: make([]byte, 16)}))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, enc.SendVideo(ctx, &Frame{Pixels: make([]byte, 16)}), context.Canceled)
	enc.Close()
}

func TestArgs(t *testing.T) {
	in, out := Args(Options{Width: 640, Height: 360, FPS: 60, Codec: "h264", Output: "a.mp4"})
	assert.Equal(t, "rawvideo", in["f"])
	assert.Equal(t, "rgba", in["pix_fmt"])
	assert.Equal(t, "640x360", in["s"])
	assert.Equal(t, "60", in["framerate"])
	assert.Equal(t, "vflip", out["vf"])
	assert.NotContains(t, out, "tag:v")

	_, out = Args(Options{Width: 640, Height: 360, FPS: 60, Codec: "hevc", Output: "a.mp4"})
	assert.Equal(t, "hvc1", out["tag:v"])
	if runtime.GOOS != "darwin" {
		assert.Equal(t, "libx265", out["c:v"])
	}

	_, out = Args(Options{Width: 640, Height: 360, FPS: 60, Codec: "hevc", Output: "a.mkv"})
	assert.NotContains(t, out, "tag:v")
}
