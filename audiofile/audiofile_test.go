package audiofile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dh1tw/audioEngine/audio"
)

func TestSaveLoadWav(t *testing.T) {

	data := []struct {
		name     string
		bitDepth int
		in       audio.Data
	}{
		{"mono 16 bit", 16, audio.Data{
			Samples:    []float32{0, 0.5, -0.5, 0.25, -1},
			Samplerate: 8000,
			Channels:   audio.MONO,
		}},
		{"stereo 24 bit", 24, audio.Data{
			Samples:    []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3},
			Samplerate: 48000,
			Channels:   audio.STEREO,
		}},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.wav")
			if err := SaveWav(path, d.in, d.bitDepth); err != nil {
				t.Fatal(err)
			}

			res, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}

			if res.Samplerate != d.in.Samplerate || res.Channels != d.in.Channels {
				t.Fatalf("expected %d Hz / %d channels, got %d Hz / %d channels",
					d.in.Samplerate, d.in.Channels, res.Samplerate, res.Channels)
			}
			if len(res.Samples) != len(d.in.Samples) {
				t.Fatalf("expected %d samples, got %d", len(d.in.Samples), len(res.Samples))
			}

			tolerance := 1.0 / float32(int(1)<<(d.bitDepth-1))
			for i, s := range d.in.Samples {
				if diff := s - res.Samples[i]; diff > tolerance || diff < -tolerance {
					t.Errorf("sample %d: expected %v, got %v", i, s, res.Samples[i])
				}
			}
		})
	}
}

func TestSaveWavClipsAndPads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	in := audio.Data{
		Samples:    []float32{2, -2, 0.5},
		Samplerate: 8000,
		Channels:   audio.STEREO,
	}

	// unsupported bit depths fall back to 16 bit
	if err := SaveWav(path, in, 7); err != nil {
		t.Fatal(err)
	}

	res, err := LoadWav(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Samples) != 4 {
		t.Fatalf("expected the last frame to be padded to 4 samples, got %d", len(res.Samples))
	}
	if res.Samples[0] < 0.999 || res.Samples[1] != -1 || res.Samples[3] != 0 {
		t.Fatalf("unexpected samples %v", res.Samples)
	}
}

func TestSaveWavWithoutSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	err := SaveWav(path, audio.Data{Samplerate: 8000, Channels: 1}, 16)
	if !errors.Is(err, audio.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("song.flac"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadInvalidWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.wav")
	if err := os.WriteFile(path, []byte("this is not a wav file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid wav file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.mp3")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestDecodeInvalidMp3(t *testing.T) {
	if _, err := DecodeMp3(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error for empty mp3 stream")
	}
}
