package camera

import (
	"bufio"
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"sync"

	"github.com/eleven-am/emotion-monitor/internal/frame"
)

const maxJPEGSize = 8 * 1024 * 1024

// streamSource keeps the most recent JPEG read from an MJPEG stream and
// decodes it on demand.
type streamSource struct {
	logger  *slog.Logger
	closeFn func() error

	mu      sync.Mutex
	latest  []byte
	seq     uint64
	decoded image.Image
	decSeq  uint64
	size    frame.Size
	err     error
	closed  bool
	done    chan struct{}
}

func newStreamSource(r io.Reader, closeFn func() error, logger *slog.Logger) *streamSource {
	s := &streamSource{
		logger:  logger,
		closeFn: closeFn,
		done:    make(chan struct{}),
	}
	go s.readLoop(r)
	return s
}

func (s *streamSource) readLoop(r io.Reader) {
	defer close(s.done)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512*1024), maxJPEGSize)
	scanner.Split(SplitJPEG)

	for scanner.Scan() {
		data := bytes.Clone(scanner.Bytes())
		s.mu.Lock()
		s.latest = data
		s.seq++
		if s.size.Empty() {
			if cfg, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
				s.size = frame.Size{Width: cfg.Width, Height: cfg.Height}
			}
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := scanner.Err(); err != nil && !s.closed {
		s.logger.Warn("camera stream ended", "error", err)
		s.err = err
	} else if !s.closed {
		s.err = io.EOF
	}
}

// Frame returns the newest frame. Once the stream has ended it returns the
// read error instead of the last cached frame.
func (s *streamSource) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.latest == nil {
		return nil, ErrNoFrame
	}
	if s.decoded != nil && s.decSeq == s.seq {
		return s.decoded, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(s.latest))
	if err != nil {
		return nil, err
	}
	s.decoded = img
	s.decSeq = s.seq
	s.size = frame.SizeOf(img)
	return img, nil
}

func (s *streamSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.err == nil && s.latest != nil
}

func (s *streamSource) Size() frame.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *streamSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var err error
	if s.closeFn != nil {
		err = s.closeFn()
	}
	<-s.done
	if errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
