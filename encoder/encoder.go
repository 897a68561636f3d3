// Package encoder streams raw RGBA frames into an ffmpeg process.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// ErrStopped is returned by SendVideo once the encoder has stopped
// consuming frames.
var ErrStopped = errors.New("encoder stopped")

// Frame represents a single rendered video frame's data, ready for encoding.
// Pixels are tightly packed RGBA rows, bottom row first, as read back from
// OpenGL.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// Options describes the video stream.
type Options struct {
	Width      int
	Height     int
	FPS        int
	Codec      string // h264, hevc
	Output     string
	FFmpegPath string
}

func (o Options) frameSize() int { return o.Width * o.Height * 4 }

// Sink receives the raw video stream. Wait blocks until the consumer of the
// stream has finished, after Close.
type Sink interface {
	io.WriteCloser
	Wait() error
}

// Args builds the ffmpeg input and output arguments for opts.
func Args(opts Options) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": strconv.Itoa(opts.FPS),
	}

	outputArgs = ffmpeg.KwArgs{
		// GL rows arrive bottom-up.
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
	}

	switch runtime.GOOS {
	case "darwin":
		if opts.Codec == "hevc" {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if opts.Codec == "hevc" {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}
	outputArgs["b:v"] = "25M"

	if opts.Codec == "hevc" && strings.HasSuffix(opts.Output, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

type ffmpegSink struct {
	pipeWriter *io.PipeWriter
	errc       chan error
}

// NewFFmpegSink starts ffmpeg reading raw frames from a pipe and writing
// opts.Output.
func NewFFmpegSink(opts Options, logger *zap.Logger) (Sink, error) {
	if opts.Output == "" {
		return nil, fmt.Errorf("no output file")
	}
	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := Args(opts)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.Output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()

	if opts.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(opts.FFmpegPath)
	}
	logger.Info("Starting ffmpeg", zap.String("output", opts.Output), zap.Any("codec", outputArgs["c:v"]))

	s := &ffmpegSink{pipeWriter: pipeWriter, errc: make(chan error, 1)}
	go func() {
		err := ffmpegCmd.Run()
		if err != nil {
			pipeReader.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
		} else {
			pipeReader.Close()
		}
		s.errc <- err
	}()
	return s, nil
}

func (s *ffmpegSink) Write(p []byte) (int, error) { return s.pipeWriter.Write(p) }

func (s *ffmpegSink) Close() error { return s.pipeWriter.Close() }

func (s *ffmpegSink) Wait() error { return <-s.errc }

// Encoder feeds frames to a Sink from its own goroutine.
type Encoder struct {
	sink   Sink
	opts   Options
	logger *zap.Logger

	videoFrames chan *Frame
	stopped     chan struct{}
	closeOnce   sync.Once
}

// New returns an Encoder writing to sink. Start consuming with Run.
func New(sink Sink, opts Options, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{
		sink:        sink,
		opts:        opts,
		logger:      logger,
		videoFrames: make(chan *Frame, 3),
		stopped:     make(chan struct{}),
	}
}

// Run consumes frames until Close, then closes the sink and waits for it.
// A failed write stops consumption; later SendVideo calls get ErrStopped.
func (e *Encoder) Run() error {
	defer close(e.stopped)

	var writeErr error
	var written int64
	for frame := range e.videoFrames {
		if len(frame.Pixels) != e.opts.frameSize() {
			writeErr = fmt.Errorf("frame %d has %d bytes, want %d", frame.PTS, len(frame.Pixels), e.opts.frameSize())
			break
		}
		if _, err := e.sink.Write(frame.Pixels); err != nil {
			writeErr = fmt.Errorf("failed to write frame %d: %w", frame.PTS, err)
			break
		}
		written++
	}

	closeErr := e.sink.Close()
	waitErr := e.sink.Wait()
	e.logger.Info("Encoder finished", zap.Int64("frames", written))
	return errors.Join(writeErr, closeErr, waitErr)
}

// SendVideo queues frame. It blocks while the queue is full.
func (e *Encoder) SendVideo(ctx context.Context, frame *Frame) error {
	select {
	case <-e.stopped:
		return ErrStopped
	default:
	}
	select {
	case e.videoFrames <- frame:
		return nil
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Run returns once the sink is drained.
func (e *Encoder) Close() {
	e.closeOnce.Do(func() { close(e.videoFrames) })
}
