package player

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Sink is one playing voice on the output device.
type Sink interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// Output creates sinks fed from PCM readers in the device format.
type Output interface {
	NewSink(r io.Reader) Sink
}

// Source is a decoded track the engine can play, skip within and poll for
// exhaustion.
type Source interface {
	io.Reader
	io.Closer
	SkipTo(offset time.Duration) error
	Exhausted() bool
	Err() error
	Duration() time.Duration
}

var _ Source = (*Stream)(nil)

// Device is the process-wide audio output.
type Device struct {
	ctx *oto.Context
}

// NewDevice opens the default output device and waits until it is ready.
func NewDevice() (*Device, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   outputSampleRate,
		ChannelCount: outputChannels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("no audio output device: %w", err)
	}
	<-ready
	return &Device{ctx: ctx}, nil
}

// NewSink returns a paused player reading from r.
func (d *Device) NewSink(r io.Reader) Sink {
	return d.ctx.NewPlayer(r)
}

// Close suspends the device.
func (d *Device) Close() error {
	return d.ctx.Suspend()
}
