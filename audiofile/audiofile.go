// Package audiofile decodes audio files into audio.Data and writes captured
// audio back to disk. It is the only package which knows about file
// formats.
package audiofile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dh1tw/audioEngine/audio"
)

// ErrUnsupportedFormat is returned for files which are neither wav nor mp3.
var ErrUnsupportedFormat = errors.New("unsupported audio file format")

// Load reads a wav or mp3 file (selected by the file extension) into
// memory.
func Load(path string) (audio.Data, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return LoadWav(path)
	case ".mp3":
		return LoadMp3(path)
	}
	return audio.Data{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}
