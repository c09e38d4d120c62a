package audio

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MONO   = 1
	STEREO = 2
)

// ErrInvalidData is returned when audio data carries samples but no usable
// sample rate or channel count.
var ErrInvalidData = errors.New("invalid audio data")

// Data contains decoded audio samples with their metadata. If Channels is
// > 1, the samples MUST be interleaved:
//
//	[Frame 0 | Channel 0]
//	[Frame 0 | Channel 1]
//	[Frame 1 | Channel 0]
//	[Frame 1 | Channel 1]
//
// len(Samples) does not have to be a multiple of Channels.
type Data struct {
	Samples    []float32
	Samplerate int // frames per second
	Channels   int
}

// Empty returns true if the Data does not contain any samples.
func (d Data) Empty() bool {
	return len(d.Samples) == 0
}

// Frames returns the number of (possibly incomplete) frames in the buffer.
func (d Data) Frames() int {
	if d.Channels <= 0 {
		return 0
	}
	return (len(d.Samples) + d.Channels - 1) / d.Channels
}

// Duration returns the length of the data in seconds.
func (d Data) Duration() float64 {
	if d.Samplerate <= 0 {
		return 0
	}
	return float64(d.Frames()) / float64(d.Samplerate)
}

// Validate checks that non-empty data has a positive sample rate and
// channel count. Empty data is always valid.
func (d Data) Validate() error {
	if d.Empty() {
		return nil
	}
	if d.Samplerate <= 0 {
		return fmt.Errorf("%w: samplerate %d", ErrInvalidData, d.Samplerate)
	}
	if d.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrInvalidData, d.Channels)
	}
	return nil
}

// Properties are the playback properties which can be changed at any time
// from the control side while a stream is running.
type Properties struct {
	Volume  float32 `json:"volume"`
	IsMuted bool    `json:"muted"`
	Loop    bool    `json:"loop"`
}

// DefaultProperties returns full volume, not muted, not looping.
func DefaultProperties() Properties {
	return Properties{Volume: 1.0}
}

// GetChannel converts "mono" / "stereo" into a channel count. 0 is
// returned for unknown values.
func GetChannel(ch string) int {
	switch strings.ToUpper(ch) {
	case "MONO":
		return MONO
	case "STEREO":
		return STEREO
	}
	return 0
}
