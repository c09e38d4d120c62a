package audiofile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dh1tw/audioEngine/audio"
	ga "github.com/go-audio/audio"
	wav "github.com/go-audio/wav"
)

// DefaultBitDepth is used by SaveWav for unsupported bit depths.
const DefaultBitDepth = 16

// LoadWav reads a PCM wav file into memory. The integer samples are
// normalized to [-1, 1) according to the bit depth of the file.
func LoadWav(path string) (audio.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Data{}, err
	}
	defer f.Close()

	return DecodeWav(f)
}

// DecodeWav decodes a PCM wav stream.
func DecodeWav(r io.ReadSeeker) (audio.Data, error) {

	dec := wav.NewDecoder(r)

	if !dec.IsValidFile() {
		return audio.Data{}, errors.New("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Data{}, fmt.Errorf("unable to decode WAV file: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return audio.Data{}, fmt.Errorf("unsupported WAV bit depth: %d", bitDepth)
	}

	samples := make([]float32, len(buf.Data))

	switch bitDepth {
	case 8:
		// 8 bit PCM is unsigned
		for i, v := range buf.Data {
			samples[i] = float32(v-128) / 128
		}
	default:
		scale := float32(int64(1) << (bitDepth - 1))
		for i, v := range buf.Data {
			samples[i] = float32(v) / scale
		}
	}

	data := audio.Data{
		Samples:    samples,
		Samplerate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}

	return data, data.Validate()
}

// SaveWav writes the audio data as PCM wav file with the given bit depth
// (16, 24 or 32). Samples are clipped to [-1, 1]. An incomplete last frame
// is padded with silence.
func SaveWav(path string, data audio.Data, bitDepth int) error {
	if data.Empty() {
		return fmt.Errorf("%w: no samples", audio.ErrInvalidData)
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// make sure we only allow the bit depths the encoder supports
	switch bitDepth {
	case 16, 24, 32:
	default:
		bitDepth = DefaultBitDepth
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, data.Samplerate, bitDepth, data.Channels, 1)

	buf := &ga.IntBuffer{
		Format: &ga.Format{
			SampleRate:  data.Samplerate,
			NumChannels: data.Channels,
		},
		Data:           make([]int, data.Frames()*data.Channels),
		SourceBitDepth: bitDepth,
	}

	scale := int64(1) << (bitDepth - 1)

	for i, s := range data.Samples {
		v := int64(s * float32(scale))
		if v > scale-1 {
			v = scale - 1
		} else if v < -scale {
			v = -scale
		}
		buf.Data[i] = int(v)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("unable to write WAV file: %w", err)
	}

	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
