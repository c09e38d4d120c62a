package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dh1tw/audioEngine/audio"
	"github.com/hajimehoshi/go-mp3"
)

// LoadMp3 decodes an mp3 file into memory.
func LoadMp3(path string) (audio.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Data{}, err
	}
	defer f.Close()

	return DecodeMp3(f)
}

// DecodeMp3 decodes an mp3 stream. The decoder always produces 16 bit
// stereo samples.
func DecodeMp3(r io.Reader) (audio.Data, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return audio.Data{}, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return audio.Data{}, fmt.Errorf("mp3 decode error: %w", err)
	}

	// 2 bytes per int16 sample
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(s) / 32768
	}

	data := audio.Data{
		Samples:    samples,
		Samplerate: dec.SampleRate(),
		Channels:   audio.STEREO,
	}

	return data, data.Validate()
}
