package device

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies an audio device within a Backend. NoDevice (0) is never a
// valid device.
type ID uint

// NoDevice is returned when no (default) device is available.
const NoDevice ID = 0

// Continue is the status a StreamCallback returns to keep the stream
// running. Any other value is backend specific.
const Continue = 0

var (
	ErrNoBackend        = errors.New("no compatible audio backend available")
	ErrUnknownHostAPI   = errors.New("unknown host api")
	ErrNoDevice         = errors.New("no audio device")
	ErrUnknownDevice    = errors.New("unknown audio device")
	ErrStreamOpen       = errors.New("stream already open")
	ErrStreamNotOpen    = errors.New("stream not open")
	ErrDirectionClaimed = errors.New("stream direction already claimed on this host")
	ErrNoInputChannels  = errors.New("audio device has no input channels")
)

// Info contains the properties of an audio device.
type Info struct {
	ID                  ID     `json:"id"`
	Name                string `json:"name"`
	InputChannels       int    `json:"input_channels"`
	OutputChannels      int    `json:"output_channels"`
	PreferredSamplerate int    `json:"preferred_samplerate"`
	IsDefaultInput      bool   `json:"default_input"`
	IsDefaultOutput     bool   `json:"default_output"`
}

// StreamParameters selects the device and the amount of channels for one
// direction of a stream.
type StreamParameters struct {
	Device       ID
	Channels     int
	FirstChannel int
}

// StreamCallback is executed by the backend on its own (real-time) thread
// once per buffer period. out holds frames*outChannels interleaved samples
// which must all be written; in holds frames*inChannels samples. Either span
// is nil when the stream has no such direction. The callback must never
// block or allocate.
type StreamCallback func(out, in []float32, frames int, streamTime float64, flags StatusFlags) int

// StreamConfig contains everything needed to open a stream. At least one of
// Output and Input must be set. Samples are always 32bit float.
type StreamConfig struct {
	Output          *StreamParameters
	Input           *StreamParameters
	Samplerate      int
	FramesPerBuffer int // 0 lets the backend pick the smallest possible size
	Callback        StreamCallback
}

// Backend is the interface to the audio subsystem of the OS. A Backend owns
// at most one stream at a time.
type Backend interface {
	DefaultOutputDevice() ID
	DefaultInputDevice() ID
	DeviceIDs() []ID
	DeviceInfo(ID) (Info, error)

	// OpenStream opens a stream and returns the amount of frames per buffer
	// which will be used.
	OpenStream(StreamConfig) (int, error)
	StartStream() error
	// StopStream returns after the last callback has finished.
	StopStream() error
	// CloseStream stops the stream if necessary. Once it returns, the
	// callback will not be executed anymore.
	CloseStream() error
	IsStreamOpen() bool
	IsStreamRunning() bool

	SetErrorCallback(func(error))
	// Terminate closes any open stream and releases the backend.
	Terminate() error
}

// StatusFlags are reported by the backend to the callback whenever the
// stream had trouble keeping up.
type StatusFlags uint32

const (
	InputUnderflow StatusFlags = 1 << iota
	InputOverflow
	OutputUnderflow
	OutputOverflow
	PrimingOutput
)

func (f StatusFlags) String() string {
	if f == 0 {
		return "ok"
	}
	names := []string{}
	for _, n := range []struct {
		flag StatusFlags
		name string
	}{
		{InputUnderflow, "input underflow"},
		{InputOverflow, "input overflow"},
		{OutputUnderflow, "output underflow"},
		{OutputOverflow, "output overflow"},
		{PrimingOutput, "priming output"},
	} {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ", ")
}

// InputDevices filters the device ids of a backend down to the devices
// which provide at least one input channel.
func InputDevices(b Backend) []ID {
	ids := []ID{}
	for _, id := range b.DeviceIDs() {
		info, err := b.DeviceInfo(id)
		if err != nil || info.InputChannels == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// OutputDevices filters the device ids of a backend down to the devices
// which provide at least one output channel.
func OutputDevices(b Backend) []ID {
	ids := []ID{}
	for _, id := range b.DeviceIDs() {
		info, err := b.DeviceInfo(id)
		if err != nil || info.OutputChannels == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ByName returns the first device whose name matches (case insensitive).
func ByName(b Backend, name string) (Info, error) {
	for _, id := range b.DeviceIDs() {
		info, err := b.DeviceInfo(id)
		if err != nil {
			continue
		}
		if strings.EqualFold(info.Name, name) {
			return info, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
}
