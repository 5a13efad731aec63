package player

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Every sink on the device plays this fixed format.
const (
	outputSampleRate = 44100
	outputChannels   = 2
	outputFrameSize  = outputChannels * 2
	bytesPerSecond   = outputSampleRate * outputFrameSize
)

// resampler converts a decoder's native PCM to the output format using
// linear interpolation. Mono sources are duplicated into both channels.
type resampler struct {
	src       audioDecoder
	srcFrame  int
	step      float64 // source frames per output frame
	totalOut  int64
	outFrame  int64
	window    []int16 // stereo frames starting at windowAt
	windowAt  int64
	carry     []byte
	srcDone   bool
	readChunk []byte
}

func toOutputFormat(src audioDecoder) (audioDecoder, error) {
	rate, channels := src.SampleRate(), src.ChannelCount()
	if rate <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", rate)
	}
	if channels < 1 || channels > outputChannels {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if rate == outputSampleRate && channels == outputChannels {
		return src, nil
	}

	srcFrames := src.Length() / int64(channels*2)
	totalOut := srcFrames * outputSampleRate / int64(rate)
	if srcFrames > 0 && totalOut == 0 {
		totalOut = 1
	}
	return &resampler{
		src:       src,
		srcFrame:  channels * 2,
		step:      float64(rate) / outputSampleRate,
		totalOut:  totalOut,
		readChunk: make([]byte, 4096*channels),
	}, nil
}

func (r *resampler) Length() int64     { return r.totalOut * outputFrameSize }
func (r *resampler) SampleRate() int   { return outputSampleRate }
func (r *resampler) ChannelCount() int { return outputChannels }

func (r *resampler) Read(p []byte) (int, error) {
	frames := len(p) / outputFrameSize
	if frames == 0 {
		return 0, nil
	}

	n := 0
	for n < frames && r.outFrame < r.totalOut {
		pos := float64(r.outFrame) * r.step
		i0 := int64(pos)
		if err := r.fill(i0 + 1); err != nil {
			return n * outputFrameSize, err
		}
		avail := r.windowAt + int64(len(r.window)/2)
		if i0 >= avail {
			if avail == r.windowAt {
				break
			}
			i0 = avail - 1
		}
		i1 := min(i0+1, avail-1)
		frac := pos - float64(i0)
		if frac < 0 || i1 == i0 {
			frac = 0
		}
		for ch := 0; ch < outputChannels; ch++ {
			a := float64(r.window[int(i0-r.windowAt)*2+ch])
			b := float64(r.window[int(i1-r.windowAt)*2+ch])
			v := int(a + (b-a)*frac)
			binary.LittleEndian.PutUint16(p[n*outputFrameSize+ch*2:], uint16(clampSample(v)))
		}
		n++
		r.outFrame++
		r.trim(i0)
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n * outputFrameSize, nil
}

// fill reads source frames until frame index upto is buffered or the
// source is exhausted.
func (r *resampler) fill(upto int64) error {
	for !r.srcDone && r.windowAt+int64(len(r.window)/2) <= upto {
		n, err := r.src.Read(r.readChunk)
		data := append(r.carry, r.readChunk[:n]...)
		whole := len(data) / r.srcFrame * r.srcFrame
		for off := 0; off < whole; off += r.srcFrame {
			left := int16(binary.LittleEndian.Uint16(data[off:]))
			right := left
			if r.srcFrame == 4 {
				right = int16(binary.LittleEndian.Uint16(data[off+2:]))
			}
			r.window = append(r.window, left, right)
		}
		r.carry = append(r.carry[:0], data[whole:]...)
		if err == io.EOF {
			r.srcDone = true
		} else if err != nil {
			return err
		} else if n == 0 {
			r.srcDone = true
		}
	}
	return nil
}

// trim drops buffered frames before keep.
func (r *resampler) trim(keep int64) {
	drop := int(keep - r.windowAt)
	if drop <= 0 || drop*2 > len(r.window) {
		return
	}
	r.window = append(r.window[:0], r.window[drop*2:]...)
	r.windowAt = keep
}

func (r *resampler) Seek(offset int64, whence int) (int64, error) {
	cur := r.outFrame * outputFrameSize
	next := offset
	switch whence {
	case io.SeekCurrent:
		next = cur + offset
	case io.SeekEnd:
		next = r.Length() + offset
	}
	next = min(max(next, 0), r.Length())

	outFrame := next / outputFrameSize
	srcFrame := int64(float64(outFrame) * r.step)
	if _, err := r.src.Seek(srcFrame*int64(r.srcFrame), io.SeekStart); err != nil {
		return cur, err
	}
	r.outFrame = outFrame
	r.window = r.window[:0]
	r.windowAt = srcFrame
	r.carry = r.carry[:0]
	r.srcDone = false
	return outFrame * outputFrameSize, nil
}
