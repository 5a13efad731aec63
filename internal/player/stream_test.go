package player

import (
	"errors"
	"io"
	"testing"
	"time"
)

type countingCloser struct{ calls int }

func (c *countingCloser) Close() error {
	c.calls++
	return nil
}

// oneSecond returns a second of silence in the output format.
func oneSecond() []byte {
	return make([]byte, bytesPerSecond)
}

func TestStreamReportsDurationAndExhaustion(t *testing.T) {
	closer := &countingCloser{}
	s := newStream(&stubPCMDecoder{data: oneSecond(), sampleRate: outputSampleRate, channels: 2}, closer)

	if got := s.Duration(); got != time.Second {
		t.Fatalf("Duration() = %v, want 1s", got)
	}
	if s.Exhausted() {
		t.Fatal("fresh stream must not be exhausted")
	}
	if _, err := io.Copy(io.Discard, s); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if !s.Exhausted() {
		t.Fatal("expected stream to be exhausted after reading to the end")
	}
	if s.Err() != nil {
		t.Fatalf("Err() = %v, want nil", s.Err())
	}
	if got := s.Position(); got != time.Second {
		t.Fatalf("Position() = %v, want 1s", got)
	}
	if err := s.Close(); err != nil || closer.calls != 1 {
		t.Fatalf("Close() = %v, calls = %d", err, closer.calls)
	}
}

func TestStreamDecodeErrorEndsStream(t *testing.T) {
	boom := errors.New("corrupt frame")
	s := newStream(&stubPCMDecoder{data: oneSecond(), sampleRate: outputSampleRate, channels: 2, readErr: boom}, nil)

	n, err := s.Read(make([]byte, 64))
	if n != 0 || err != io.EOF {
		t.Fatalf("Read() = %d, %v; want 0, io.EOF", n, err)
	}
	if !s.Exhausted() {
		t.Fatal("expected decode error to exhaust the stream")
	}
	if !errors.Is(s.Err(), boom) {
		t.Fatalf("Err() = %v, want %v", s.Err(), boom)
	}
}

func TestStreamSkipToSeeks(t *testing.T) {
	s := newStream(&stubPCMDecoder{data: oneSecond(), sampleRate: outputSampleRate, channels: 2}, nil)

	if err := s.SkipTo(500 * time.Millisecond); err != nil {
		t.Fatalf("SkipTo() error = %v", err)
	}
	if got := s.Position(); got != 500*time.Millisecond {
		t.Fatalf("Position() = %v, want 500ms", got)
	}
}

func TestStreamSkipToDiscardsWhenSeekUnsupported(t *testing.T) {
	dec := &stubPCMDecoder{data: oneSecond(), sampleRate: outputSampleRate, channels: 2, seekErr: errors.New("not seekable")}
	s := newStream(dec, nil)

	if err := s.SkipTo(250 * time.Millisecond); err != nil {
		t.Fatalf("SkipTo() error = %v", err)
	}
	if got, want := dec.pos, durationToBytes(250*time.Millisecond); got != want {
		t.Fatalf("decoder position = %d, want %d", got, want)
	}
	if s.Exhausted() {
		t.Fatal("stream must not be exhausted after a partial skip")
	}
}

func TestStreamSkipToCurrentPositionWithoutSeek(t *testing.T) {
	dec := &stubPCMDecoder{data: oneSecond(), sampleRate: outputSampleRate, channels: 2, seekErr: errors.New("not seekable")}
	s := newStream(dec, nil)

	if err := s.SkipTo(0); err != nil {
		t.Fatalf("SkipTo(0) on a fresh stream error = %v", err)
	}
	if err := s.SkipTo(-time.Second); err != nil {
		t.Fatalf("SkipTo(-1s) error = %v, want clamp to start", err)
	}
	if got := s.Position(); got != 0 {
		t.Fatalf("Position() = %v, want 0", got)
	}

	if err := s.SkipTo(250 * time.Millisecond); err != nil {
		t.Fatalf("SkipTo(250ms) error = %v", err)
	}
	if err := s.SkipTo(100 * time.Millisecond); err == nil {
		t.Fatal("rewinding an unseekable stream should fail")
	}
}

func TestStreamSkipPastEndReportsEOF(t *testing.T) {
	s := newStream(&stubPCMDecoder{data: oneSecond(), sampleRate: outputSampleRate, channels: 2}, nil)

	if err := s.SkipTo(5 * time.Second); err != io.EOF {
		t.Fatalf("SkipTo() error = %v, want io.EOF", err)
	}
	if !s.Exhausted() {
		t.Fatal("expected skip past the end to exhaust the stream")
	}
}
