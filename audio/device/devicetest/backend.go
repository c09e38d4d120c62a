// Package devicetest provides an in-memory device.Backend for tests. The
// stream callback is executed synchronously through Pull and Push instead
// of on a hardware thread.
package devicetest

import (
	"fmt"
	"sync"

	"github.com/dh1tw/audioEngine/audio/device"
)

// Backend is a fake device.Backend. Like a hardware backend, StopStream
// and CloseStream wait for a running callback to return.
type Backend struct {
	sync.Mutex
	callback sync.Mutex // held while the stream callback runs
	devices       []device.Info
	defaultOutput device.ID
	defaultInput  device.ID

	cfg     device.StreamConfig
	open    bool
	running bool
	errCb   func(error)

	// errors returned by the next stream operations, if set
	OpenErr  error
	StartErr error
	StopErr  error

	Opened     int
	Closed     int
	Started    int
	Stopped    int
	Terminated bool
}

// New returns a Backend with the given devices. The first device with
// output channels becomes the default output, the first with input channels
// the default input.
func New(devices ...device.Info) *Backend {
	b := &Backend{}
	for _, d := range devices {
		b.devices = append(b.devices, d)
		if b.defaultOutput == device.NoDevice && d.OutputChannels > 0 {
			b.defaultOutput = d.ID
		}
		if b.defaultInput == device.NoDevice && d.InputChannels > 0 {
			b.defaultInput = d.ID
		}
	}
	return b
}

// Speaker returns an output device for tests.
func Speaker(id device.ID, name string) device.Info {
	return device.Info{ID: id, Name: name, OutputChannels: 2, PreferredSamplerate: 48000}
}

// Microphone returns an input device for tests.
func Microphone(id device.ID, name string, samplerate int) device.Info {
	return device.Info{ID: id, Name: name, InputChannels: 1, PreferredSamplerate: samplerate}
}

// Factory returns a device.Factory which always returns b.
func (b *Backend) Factory() device.Factory {
	return func() (device.Backend, error) {
		return b, nil
	}
}

// SetDefaultOutput changes the default output device, as if the user had
// plugged in a pair of headphones.
func (b *Backend) SetDefaultOutput(id device.ID) {
	b.Lock()
	defer b.Unlock()
	b.defaultOutput = id
}

// SetDefaultInput changes the default input device.
func (b *Backend) SetDefaultInput(id device.ID) {
	b.Lock()
	defer b.Unlock()
	b.defaultInput = id
}

func (b *Backend) DefaultOutputDevice() device.ID {
	b.Lock()
	defer b.Unlock()
	return b.defaultOutput
}

func (b *Backend) DefaultInputDevice() device.ID {
	b.Lock()
	defer b.Unlock()
	return b.defaultInput
}

func (b *Backend) DeviceIDs() []device.ID {
	b.Lock()
	defer b.Unlock()
	ids := make([]device.ID, 0, len(b.devices))
	for _, d := range b.devices {
		ids = append(ids, d.ID)
	}
	return ids
}

func (b *Backend) DeviceInfo(id device.ID) (device.Info, error) {
	b.Lock()
	defer b.Unlock()
	if id == device.NoDevice {
		return device.Info{}, device.ErrNoDevice
	}
	for _, d := range b.devices {
		if d.ID == id {
			d.IsDefaultOutput = id == b.defaultOutput
			d.IsDefaultInput = id == b.defaultInput
			return d, nil
		}
	}
	return device.Info{}, fmt.Errorf("%w: %d", device.ErrUnknownDevice, id)
}

func (b *Backend) OpenStream(cfg device.StreamConfig) (int, error) {
	b.Lock()
	defer b.Unlock()
	if b.open {
		return 0, device.ErrStreamOpen
	}
	if b.OpenErr != nil {
		return 0, b.OpenErr
	}
	b.cfg = cfg
	b.open = true
	b.running = false
	b.Opened++
	frames := cfg.FramesPerBuffer
	if frames == 0 {
		frames = 64
	}
	return frames, nil
}

func (b *Backend) StartStream() error {
	b.Lock()
	defer b.Unlock()
	if !b.open {
		return device.ErrStreamNotOpen
	}
	if b.StartErr != nil {
		return b.StartErr
	}
	if !b.running {
		b.running = true
		b.Started++
	}
	return nil
}

func (b *Backend) StopStream() error {
	b.callback.Lock()
	defer b.callback.Unlock()
	b.Lock()
	defer b.Unlock()
	if !b.open {
		return device.ErrStreamNotOpen
	}
	if b.StopErr != nil {
		return b.StopErr
	}
	if b.running {
		b.running = false
		b.Stopped++
	}
	return nil
}

func (b *Backend) CloseStream() error {
	b.callback.Lock()
	defer b.callback.Unlock()
	b.Lock()
	defer b.Unlock()
	if !b.open {
		return nil
	}
	b.open = false
	b.running = false
	b.Closed++
	return nil
}

func (b *Backend) IsStreamOpen() bool {
	b.Lock()
	defer b.Unlock()
	return b.open
}

func (b *Backend) IsStreamRunning() bool {
	b.Lock()
	defer b.Unlock()
	return b.open && b.running
}

func (b *Backend) SetErrorCallback(f func(error)) {
	b.Lock()
	defer b.Unlock()
	b.errCb = f
}

func (b *Backend) Terminate() error {
	b.CloseStream()
	b.Lock()
	defer b.Unlock()
	b.Terminated = true
	return nil
}

// Config returns the configuration of the last opened stream.
func (b *Backend) Config() device.StreamConfig {
	b.Lock()
	defer b.Unlock()
	return b.cfg
}

// Pull executes the stream callback for one output buffer of the given
// amount of frames, like the hardware would do. nil is returned if the
// stream is not running.
func (b *Backend) Pull(frames int) []float32 {
	return b.PullWithFlags(frames, 0)
}

// PullWithFlags is like Pull, but reports status flags to the callback.
func (b *Backend) PullWithFlags(frames int, flags device.StatusFlags) []float32 {
	b.callback.Lock()
	defer b.callback.Unlock()

	b.Lock()
	cfg := b.cfg
	running := b.open && b.running
	b.Unlock()

	if !running || cfg.Output == nil {
		return nil
	}
	out := make([]float32, frames*cfg.Output.Channels)
	for i := range out {
		out[i] = -99 // the callback must overwrite every sample
	}
	cfg.Callback(out, nil, frames, 0, flags)
	return out
}

// Push executes the stream callback with a buffer of captured mono (or
// interleaved) samples. It returns false if the stream is not running.
func (b *Backend) Push(in []float32) bool {
	return b.PushWithFlags(in, 0)
}

// PushWithFlags is like Push, but reports status flags to the callback.
func (b *Backend) PushWithFlags(in []float32, flags device.StatusFlags) bool {
	b.callback.Lock()
	defer b.callback.Unlock()

	b.Lock()
	cfg := b.cfg
	running := b.open && b.running
	b.Unlock()

	if !running || cfg.Input == nil {
		return false
	}
	channels := cfg.Input.Channels
	if channels < 1 {
		channels = 1
	}
	cfg.Callback(nil, in, len(in)/channels, 0, flags)
	return true
}

// ReportError executes the error callback of the backend.
func (b *Backend) ReportError(err error) {
	b.Lock()
	f := b.errCb
	b.Unlock()
	if f != nil {
		f(err)
	}
}
