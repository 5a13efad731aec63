package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioDecoder yields interleaved signed 16-bit little-endian PCM at the
// source's native rate and channel count.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// pcmCursor tracks the output byte position of a decoder and holds
// converted PCM that did not fit into the caller's buffer.
type pcmCursor struct {
	pending []byte
	pos     int64
	total   int64
}

func (c *pcmCursor) drain(p []byte) int {
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	c.pos += int64(n)
	return n
}

func (c *pcmCursor) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		c.pending = raw[n:]
	}
	c.pos += int64(n)
	return n
}

// target resolves a Seek request to an absolute, clamped byte offset.
func (c *pcmCursor) target(offset int64, whence int) int64 {
	next := offset
	switch whence {
	case io.SeekCurrent:
		next = c.pos + offset
	case io.SeekEnd:
		next = c.total + offset
	}
	return min(max(next, 0), c.total)
}

func (c *pcmCursor) moved(pos int64) {
	c.pending = nil
	c.pos = pos
}

func clampSample(v int) int16 {
	return int16(min(max(v, -32768), 32767))
}

type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

type wavDecoder struct {
	pcmCursor
	file      *os.File
	dataStart int64
	rate      int
	channels  int
	bitDepth  int
	srcFrame  int64
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels < 1 || bitDepth%8 != 0 || bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported WAV layout: %d channels, %d bits", channels, bitDepth)
	}
	srcFrame := int64(channels * bitDepth / 8)

	dataStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating WAV PCM data: %w", err)
	}

	frames := dec.PCMLen() / srcFrame
	return &wavDecoder{
		pcmCursor: pcmCursor{total: frames * int64(channels) * 2},
		file:      f,
		dataStart: dataStart,
		rate:      int(dec.SampleRate),
		channels:  channels,
		bitDepth:  bitDepth,
		srcFrame:  srcFrame,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}
	if d.pos >= d.total {
		return 0, io.EOF
	}

	width := d.bitDepth / 8
	want := max(len(p)/2, 1)
	if remaining := int((d.total - d.pos) / 2); want > remaining {
		want = remaining
	}
	src := make([]byte, want*width)
	n, err := io.ReadFull(d.file, src)
	samples := n / width
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		b := src[i*width:]
		var v int
		switch d.bitDepth {
		case 8:
			v = (int(b[0]) - 128) << 8
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			s := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			v = int(s >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(b)) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clampSample(v)))
	}

	written := d.emit(p, raw)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return written, err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	next := d.target(offset, whence)
	frame := next / int64(d.channels*2)
	if _, err := d.file.Seek(d.dataStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moved(frame * int64(d.channels*2))
	return d.pos, nil
}

func (d *wavDecoder) Length() int64     { return d.total }
func (d *wavDecoder) SampleRate() int   { return d.rate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

type flacDecoder struct {
	pcmCursor
	stream   *flac.Stream
	rate     int
	channels int
	bps      int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcmCursor: pcmCursor{total: int64(info.NSamples) * int64(channels) * 2},
		stream:    stream,
		rate:      int(info.SampleRate),
		channels:  channels,
		bps:       int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	n := int(frame.Subframes[0].NSamples)
	raw := make([]byte, n*d.channels*2)
	for i := 0; i < n; i++ {
		for ch := 0; ch < d.channels; ch++ {
			v := int(frame.Subframes[ch].Samples[i])
			if d.bps > 16 {
				v >>= d.bps - 16
			} else if d.bps < 16 {
				v <<= 16 - d.bps
			}
			binary.LittleEndian.PutUint16(raw[(i*d.channels+ch)*2:], uint16(clampSample(v)))
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	next := d.target(offset, whence)
	frame := uint64(next / int64(d.channels*2))
	got, err := d.stream.Seek(frame)
	if err != nil {
		return d.pos, err
	}
	d.moved(int64(got) * int64(d.channels*2))
	return d.pos, nil
}

func (d *flacDecoder) Length() int64     { return d.total }
func (d *flacDecoder) SampleRate() int   { return d.rate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

type oggDecoder struct {
	pcmCursor
	reader   *oggvorbis.Reader
	channels int
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		pcmCursor: pcmCursor{total: reader.Length() * int64(channels) * 2},
		reader:    reader,
		channels:  channels,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	samples := make([]float32, max(len(p)/2, d.channels))
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		s = min(max(s, -1), 1)
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	next := d.target(offset, whence)
	frame := next / int64(d.channels*2)
	if err := d.reader.SetPosition(frame); err != nil {
		return d.pos, err
	}
	d.moved(frame * int64(d.channels*2))
	return d.pos, nil
}

func (d *oggDecoder) Length() int64     { return d.total }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.channels }
