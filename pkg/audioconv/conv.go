// Package audioconv decodes wav, mp3 and ogg (vorbis or opus) files into the
// 16 kHz mono float PCM that whisper expects.
package audioconv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const TargetRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	MaxSamples int
}

// decoder returns interleaved float samples, the channel count and the
// sample rate.
type decoder func(r io.ReadSeeker) (pcm []float32, channels, rate int, err error)

var byExt = map[string][]decoder{
	".wav":  {decodeWAV},
	".mp3":  {decodeMP3},
	".ogg":  {decodeVorbis, decodeOpus},
	".oga":  {decodeVorbis, decodeOpus},
	".opus": {decodeOpus},
}

var byMagic = map[string][]decoder{
	"RIFF": {decodeWAV},
	"OggS": {decodeVorbis, decodeOpus},
	"ID3\x03": {decodeMP3},
	"ID3\x04": {decodeMP3},
}

func DecodeFile(path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decs, ok := byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		magic, _ := bufio.NewReader(f).Peek(4)
		decs, ok = byMagic[string(magic)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
	}

	var errs []error
	for _, dec := range decs {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		pcm, ch, rate, err := dec(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return ToMono16k(pcm, ch, rate, opt), nil
	}
	return nil, fmt.Errorf("decode %s: %w", path, errors.Join(errs...))
}

// ToMono16k downmixes interleaved pcm and resamples it to TargetRate.
func ToMono16k(pcm []float32, channels, rate int, opt Options) []float32 {
	x := downmix(pcm, channels)
	x = resample(x, rate, TargetRate)
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x
}
