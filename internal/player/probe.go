package player

import (
	"os"
	"time"
)

// Probe decodes just enough of path to report its length.
func Probe(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := newDecoder(f)
	if err != nil {
		return 0, err
	}
	frames := dec.Length() / int64(dec.ChannelCount()*2)
	if dec.SampleRate() <= 0 || frames <= 0 {
		return 0, nil
	}
	return time.Duration(frames) * time.Second / time.Duration(dec.SampleRate()), nil
}
