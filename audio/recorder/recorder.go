package recorder

import (
	"fmt"
	"iter"
	"log"
	"strings"
	"sync"

	"github.com/dh1tw/audioEngine/audio"
	"github.com/dh1tw/audioEngine/audio/device"
)

// Recorder records mono audio from an input device (e.g. a microphone) and
// keeps the most recent samples, typically to draw a waveform or to
// measure the audio level.
type Recorder struct {
	sync.Mutex // serializes the control side
	options    Options
	host       *device.Host
	backend    device.Backend
	status     *device.StatusLog
	ring       *SampleRing

	deviceID   device.ID
	deviceName string
	samplerate int
}

// New claims the input direction of the host and starts recording from
// the configured input device. Without any input device the recorder
// stays idle until SetDevice is called.
func New(host *device.Host, opts ...Option) (*Recorder, error) {

	if host == nil {
		return nil, device.ErrNoBackend
	}

	r := &Recorder{
		options: Options{
			DeviceName:      "default",
			RetainedSamples: 256,
			FramesPerBuffer: 512,
			StatusLogSize:   32,
		},
	}

	for _, option := range opts {
		option(&r.options)
	}

	backend, err := host.Claim(device.Input)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}

	r.host = host
	r.backend = backend
	r.status = device.NewStatusLog(r.options.StatusLogSize)
	r.ring = NewSampleRing(r.options.RetainedSamples)

	backend.SetErrorCallback(func(err error) {
		log.Println("recorder:", err)
	})

	id := backend.DefaultInputDevice()
	if name := r.options.DeviceName; name != "" && strings.ToLower(name) != "default" {
		info, err := device.ByName(backend, name)
		if err != nil {
			host.Release(device.Input)
			return nil, fmt.Errorf("recorder: %w", err)
		}
		id = info.ID
	}

	if id == device.NoDevice {
		log.Println("recorder: no input device available")
		return r, nil
	}

	if err := r.SetDevice(id); err != nil {
		host.Release(device.Input)
		return nil, err
	}

	return r, nil
}

// Close closes the stream and releases the input direction of the host.
func (r *Recorder) Close() error {
	r.Lock()
	defer r.Unlock()

	if err := r.backend.CloseStream(); err != nil {
		log.Println("recorder: close stream:", err)
	}
	return r.host.Release(device.Input)
}

// SetRetainedSamples sets how many of the most recent samples are kept.
// It must be called before reading windows larger than the current bound.
// Shrinking discards the oldest excess samples immediately.
func (r *Recorder) SetRetainedSamples(n int) {
	r.ring.SetBound(n)
}

// RetainedSamples returns the current bound.
func (r *Recorder) RetainedSamples() int {
	return r.ring.Bound()
}

// ForEachSample executes fn for the count most recent samples, oldest
// first. fn is always executed count times; if fewer samples have been
// recorded, it receives zeros for the missing leading samples.
func (r *Recorder) ForEachSample(count int, fn func(float32)) {
	for s := range r.Samples(count) {
		fn(s)
	}
}

// Samples returns the count most recent samples as a sequence, zero-filled
// at the front like ForEachSample. Every iteration reads the current
// samples again.
func (r *Recorder) Samples(count int) iter.Seq[float32] {
	return func(yield func(float32) bool) {
		if count <= 0 {
			return
		}
		buf := make([]float32, count)
		r.ring.CopyLast(buf)

		for _, s := range buf {
			if !yield(s) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the count most recent samples, zero-filled at
// the front, as audio data with the sample rate of the current device.
func (r *Recorder) Snapshot(count int) audio.Data {
	buf := make([]float32, max(count, 0))
	r.ring.CopyLast(buf)
	return audio.Data{
		Samples:    buf,
		Samplerate: r.Samplerate(),
		Channels:   audio.MONO,
	}
}

// Level returns the RMS and the peak value of the count most recent
// samples.
func (r *Recorder) Level(count int) (rms, peak float32) {
	buf := make([]float32, max(count, 0))
	r.ring.CopyLast(buf)
	return audio.RMS(buf), audio.Peak(buf)
}

// recordCb is executed by the backend on the audio thread every time new
// samples have been captured.
func (r *Recorder) recordCb(out, in []float32, frames int, streamTime float64, flags device.StatusFlags) int {
	r.status.Record(streamTime, flags)
	r.ring.PushAll(in[:min(frames, len(in))])
	return device.Continue
}

// SetDevice (re)opens the recording stream on the given input device with
// the preferred sample rate of the device. The retained samples are
// discarded. Setting the current device again reopens the stream.
func (r *Recorder) SetDevice(id device.ID) error {
	r.Lock()
	defer r.Unlock()

	if err := r.backend.CloseStream(); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	r.ring.Clear()
	r.deviceID = device.NoDevice
	r.deviceName = ""
	r.samplerate = 0

	info, err := r.backend.DeviceInfo(id)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	if info.InputChannels < 1 {
		return fmt.Errorf("recorder: %w: %s", device.ErrNoInputChannels, info.Name)
	}

	frames, err := r.backend.OpenStream(device.StreamConfig{
		Input: &device.StreamParameters{
			Device:   id,
			Channels: audio.MONO,
		},
		Samplerate:      info.PreferredSamplerate,
		FramesPerBuffer: r.options.FramesPerBuffer,
		Callback:        r.recordCb,
	})
	if err != nil {
		return fmt.Errorf("recorder: unable to open recording stream on device %s: %w",
			info.Name, err)
	}

	if err := r.backend.StartStream(); err != nil {
		r.backend.CloseStream()
		return fmt.Errorf("recorder: %w", err)
	}

	r.deviceID = id
	r.deviceName = info.Name
	r.samplerate = info.PreferredSamplerate

	log.Printf("recorder: input sound device: %s (%d Hz, %d frames per buffer)\n",
		info.Name, info.PreferredSamplerate, frames)

	return nil
}

// Device returns the id of the device the recorder is recording from.
func (r *Recorder) Device() device.ID {
	r.Lock()
	defer r.Unlock()
	return r.deviceID
}

// CurrentDeviceName returns the name of the device the recorder is
// recording from, or an empty string.
func (r *Recorder) CurrentDeviceName() string {
	r.Lock()
	defer r.Unlock()
	return r.deviceName
}

// Samplerate returns the sample rate of the recording stream, or 0 if
// no stream is open.
func (r *Recorder) Samplerate() int {
	r.Lock()
	defer r.Unlock()
	return r.samplerate
}

// DeviceIDs returns the ids of all devices with at least one input channel.
func (r *Recorder) DeviceIDs() []device.ID {
	return device.InputDevices(r.backend)
}

// DeviceInfo returns the properties of a device.
func (r *Recorder) DeviceInfo(id device.ID) (device.Info, error) {
	return r.backend.DeviceInfo(id)
}

// IsStreamRunning returns true if the recorder is recording.
func (r *Recorder) IsStreamRunning() bool {
	return r.backend.IsStreamRunning()
}

// StreamEvents returns the most recent stream status events (e.g. input
// overflows), oldest first.
func (r *Recorder) StreamEvents() []device.StatusEvent {
	return r.status.Events()
}
