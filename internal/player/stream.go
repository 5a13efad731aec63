package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Stream is a decoded track in the device output format. The sink reads it
// from the audio goroutine while the engine polls Exhausted and Err, so the
// read state is guarded.
type Stream struct {
	file     io.Closer
	dec      audioDecoder
	duration time.Duration

	mu        sync.Mutex
	pos       int64
	exhausted bool
	err       error
}

// Open opens and decodes path.
func Open(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	out, err := toOutputFormat(dec)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return newStream(out, f), nil
}

func newStream(dec audioDecoder, closer io.Closer) *Stream {
	return &Stream{
		file:     closer,
		dec:      dec,
		duration: bytesToDuration(dec.Length()),
	}
}

// Read implements io.Reader. A decode error ends the stream: it is
// recorded for Err and reported to the sink as io.EOF.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.dec.Read(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos += int64(n)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF):
		s.exhausted = true
		return n, io.EOF
	default:
		s.exhausted = true
		s.err = err
		return n, io.EOF
	}
}

// SkipTo moves the stream to offset from the track start. It seeks when the
// decoder allows it and otherwise decodes and discards up to the target.
// Reaching the end while skipping returns io.EOF.
func (s *Stream) SkipTo(offset time.Duration) error {
	target := durationToBytes(max(offset, 0))

	s.mu.Lock()
	length := s.dec.Length()
	s.mu.Unlock()
	if length > 0 && target >= length {
		s.markExhausted()
		return io.EOF
	}

	if got, err := s.dec.Seek(target, io.SeekStart); err == nil {
		s.mu.Lock()
		s.pos = got
		s.exhausted = false
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	cur := s.pos
	s.mu.Unlock()
	if target == cur {
		return nil
	}
	if target < cur {
		return fmt.Errorf("cannot rewind stream to %s", offset)
	}
	if _, err := io.CopyN(io.Discard, s, target-cur); err != nil {
		return io.EOF
	}
	return nil
}

func (s *Stream) markExhausted() {
	s.mu.Lock()
	s.exhausted = true
	s.mu.Unlock()
}

// Exhausted reports whether the decoder has produced its last sample.
func (s *Stream) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

// Err returns the decode error that ended the stream, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Position returns how much audio has been handed to the sink.
func (s *Stream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytesToDuration(s.pos)
}

// Duration returns the decoded track length, or 0 when unknown.
func (s *Stream) Duration() time.Duration { return s.duration }

// Close releases the underlying file.
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func bytesToDuration(n int64) time.Duration {
	return time.Duration(float64(n) / bytesPerSecond * float64(time.Second))
}

func durationToBytes(d time.Duration) int64 {
	n := int64(d.Seconds() * bytesPerSecond)
	return n - n%outputFrameSize
}
