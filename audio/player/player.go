package player

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dh1tw/audioEngine/audio"
	"github.com/dh1tw/audioEngine/audio/device"
)

// Player plays audio data on the default output device of a host. Users
// usually want all the audio to come out of the default device (e.g. when
// they plug in headphones the audio should move there, and back to the
// speakers once they unplug them).
//
// The player does not watch the devices by itself. UpdateDeviceIfNecessary
// must be called regularly (e.g. once per application frame).
//
// The playback position and the properties are read by the audio callback
// without locking. A concurrent change becomes audible at the latest one
// buffer later. The audio data itself is only replaced while the stream is
// closed.
type Player struct {
	sync.Mutex // serializes the control side
	options    Options
	host       *device.Host
	backend    device.Backend
	status     *device.StatusLog

	data         audio.Data
	outputDevice device.ID

	volume        atomic.Uint32 // float32 bits
	muted         atomic.Bool
	loop          atomic.Bool
	nextFrame     atomic.Int64 // next frame of data.Samples to be played
	playRequested atomic.Bool
}

// New claims the output direction of the host and returns a Player bound
// to the current default output device. The player starts paused and
// without data.
func New(host *device.Host, opts ...Option) (*Player, error) {

	if host == nil {
		return nil, device.ErrNoBackend
	}

	p := &Player{
		options: Options{
			Channels:        audio.STEREO,
			FramesPerBuffer: 0,
			Gating:          GateSilence,
			Properties:      audio.DefaultProperties(),
			StatusLogSize:   32,
		},
	}

	for _, option := range opts {
		option(&p.options)
	}

	if p.options.Channels < 1 {
		return nil, fmt.Errorf("player: invalid amount of output channels: %d", p.options.Channels)
	}

	backend, err := host.Claim(device.Output)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	p.host = host
	p.backend = backend
	p.status = device.NewStatusLog(p.options.StatusLogSize)
	p.SetProperties(p.options.Properties)

	backend.SetErrorCallback(func(err error) {
		log.Println("player:", err)
	})

	if err := p.UpdateDeviceIfNecessary(); err != nil {
		host.Release(device.Output)
		return nil, err
	}

	return p, nil
}

// Close closes the stream and releases the output direction of the host.
func (p *Player) Close() error {
	p.Lock()
	defer p.Unlock()

	if err := p.backend.CloseStream(); err != nil {
		log.Println("player: close stream:", err)
	}
	return p.host.Release(device.Output)
}

// SetAudioData replaces the audio data of the player. The position in time
// is kept, so the frame index is converted to the sample rate of the new
// data. If Play has already been called, the new data starts playing as soon
// as the stream has been opened.
func (p *Player) SetAudioData(data audio.Data) error {
	if err := data.Validate(); err != nil {
		return err
	}

	p.Lock()
	defer p.Unlock()

	// once the stream is closed the callback can not access the data
	// anymore
	if err := p.backend.CloseStream(); err != nil {
		log.Println("player: close stream:", err)
	}

	t := p.time()
	p.data = data
	p.nextFrame.Store(int64(math.Round(t * float64(data.Samplerate))))

	return p.recreateStream()
}

// ResetAudioData removes the audio data. The stream is closed and will not
// be reopened until new data is set.
func (p *Player) ResetAudioData() error {
	return p.SetAudioData(audio.Data{})
}

// AudioData returns the current audio data. The returned samples must not
// be modified.
func (p *Player) AudioData() audio.Data {
	p.Lock()
	defer p.Unlock()
	return p.data
}

// HasAudioData returns true if data has been set and not reset.
func (p *Player) HasAudioData() bool {
	p.Lock()
	defer p.Unlock()
	return p.hasAudioData()
}

func (p *Player) hasAudioData() bool {
	return !p.data.Empty()
}

// Play starts or resumes playing. Calling Play while playing does nothing.
// Without data or device the player only remembers the request and starts
// as soon as both are available. With GateStream the error of starting
// the stream is returned.
func (p *Player) Play() error {
	p.playRequested.Store(true)

	if p.options.Gating == GateSilence {
		return nil
	}

	p.Lock()
	defer p.Unlock()

	// we will start when the stream gets opened
	if !p.backend.IsStreamOpen() || p.backend.IsStreamRunning() {
		return nil
	}
	return p.backend.StartStream()
}

// Pause pauses playing. Calling Pause while paused does nothing.
func (p *Player) Pause() error {
	p.playRequested.Store(false)

	if p.options.Gating == GateSilence {
		return nil
	}

	p.Lock()
	defer p.Unlock()

	if !p.backend.IsStreamRunning() {
		return nil
	}
	return p.backend.StopStream()
}

// IsPlaying returns true if Play has been called more recently than Pause.
func (p *Player) IsPlaying() bool {
	return p.playRequested.Load()
}

// SetTime makes the player jump to a moment in time (seconds). Values
// outside of the data are allowed; they result in silence or wrap around
// when looping.
func (p *Player) SetTime(seconds float64) {
	p.Lock()
	defer p.Unlock()
	p.nextFrame.Store(int64(math.Round(float64(p.data.Samplerate) * seconds)))
}

// Time returns the moment in time (seconds) the player is currently
// playing. Without data 0 is returned.
func (p *Player) Time() float64 {
	p.Lock()
	defer p.Unlock()
	return p.time()
}

func (p *Player) time() float64 {
	if p.data.Samplerate == 0 {
		return 0
	}
	return float64(p.nextFrame.Load()) / float64(p.data.Samplerate)
}

// Ended returns true if the player does not loop and its position is past
// the last frame of the data.
func (p *Player) Ended() bool {
	p.Lock()
	defer p.Unlock()
	if !p.hasAudioData() || p.loop.Load() {
		return false
	}
	return p.nextFrame.Load() >= int64(p.data.Frames())
}

// SetVolume sets the volume for all upcoming samples. The value is not
// limited; 1 is the original level.
func (p *Player) SetVolume(v float32) {
	p.volume.Store(math.Float32bits(v))
}

// Volume returns the current volume.
func (p *Player) Volume() float32 {
	return math.Float32frombits(p.volume.Load())
}

// SetMuted mutes or unmutes the player.
func (p *Player) SetMuted(m bool) {
	p.muted.Store(m)
}

// IsMuted returns true if the player is muted.
func (p *Player) IsMuted() bool {
	return p.muted.Load()
}

// SetLoop enables or disables looping.
func (p *Player) SetLoop(l bool) {
	p.loop.Store(l)
}

// Loops returns true if the player loops over its data.
func (p *Player) Loops() bool {
	return p.loop.Load()
}

// Properties returns a snapshot of the player properties.
func (p *Player) Properties() audio.Properties {
	return audio.Properties{
		Volume:  p.Volume(),
		IsMuted: p.IsMuted(),
		Loop:    p.Loops(),
	}
}

// SetProperties sets all player properties at once.
func (p *Player) SetProperties(props audio.Properties) {
	p.SetVolume(props.Volume)
	p.SetMuted(props.IsMuted)
	p.SetLoop(props.Loop)
}

// floorMod returns a mod b in the range [0, b) for b > 0, also for
// negative a.
func floorMod(a, b int64) int64 {
	res := a % b
	if res < 0 {
		res += b
	}
	return res
}

// Sample returns the value of the audio data at the given position, taking
// the player properties into account. Channels beyond the channels of the
// data wrap around. Positions outside of the data are silent unless the
// player loops.
//
// Sample is called from the audio callback. It does not allocate and must
// not be called concurrently with SetAudioData.
func (p *Player) Sample(frameIndex, channelIndex int64) float32 {
	if p.muted.Load() {
		return 0
	}

	n := int64(len(p.data.Samples))
	channels := int64(p.data.Channels)
	if n == 0 || channels <= 0 {
		return 0
	}

	ch := floorMod(channelIndex, channels)

	// frameIndex*channels can overflow, so the frame is reduced first
	var sampleIndex int64
	if p.loop.Load() {
		sampleIndex = floorMod(floorMod(frameIndex, n)*channels+ch, n)
	} else {
		if frameIndex < 0 || frameIndex >= (n+channels-1)/channels {
			return 0
		}
		sampleIndex = frameIndex*channels + ch
		if sampleIndex >= n {
			return 0
		}
	}

	return p.data.Samples[sampleIndex] * p.Volume()
}

// playCb is executed by the backend on the audio thread for every buffer;
// it must be short and never block.
func (p *Player) playCb(out, in []float32, frames int, streamTime float64, flags device.StatusFlags) int {
	p.status.Record(streamTime, flags)

	if !p.playRequested.Load() {
		clear(out)
		return device.Continue
	}

	channels := p.options.Channels
	frames = min(frames, len(out)/channels)

	start := p.nextFrame.Load()
	frame := start
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = p.Sample(frame, int64(ch))
		}
		frame++
	}
	clear(out[frames*channels:])

	// a position set by SetTime in the meantime wins
	p.nextFrame.CompareAndSwap(start, frame)

	return device.Continue
}

// UpdateDeviceIfNecessary checks if the default output device has changed
// (e.g. the user has just plugged in headphones) and moves the stream to
// the new device.
func (p *Player) UpdateDeviceIfNecessary() error {
	p.Lock()
	defer p.Unlock()

	id := p.backend.DefaultOutputDevice()
	if id == p.outputDevice {
		return nil
	}

	log.Printf("player: default output device changed (%d -> %d)\n", p.outputDevice, id)
	p.outputDevice = id

	return p.recreateStream()
}

// OutputDevice returns the device the player is bound to.
func (p *Player) OutputDevice() device.ID {
	p.Lock()
	defer p.Unlock()
	return p.outputDevice
}

// IsStreamOpen returns true if the player currently owns an open stream.
func (p *Player) IsStreamOpen() bool {
	return p.backend.IsStreamOpen()
}

// IsStreamRunning returns true if the stream is started.
func (p *Player) IsStreamRunning() bool {
	return p.backend.IsStreamRunning()
}

// StreamEvents returns the most recent stream status events (e.g. output
// underflows), oldest first.
func (p *Player) StreamEvents() []device.StatusEvent {
	return p.status.Events()
}

// recreateStream closes the current stream, if there is one, and opens a
// new one with a sample rate matching the audio data. Nothing is opened
// without data or without device (must hold p.Mutex).
func (p *Player) recreateStream() error {
	if p.backend.IsStreamOpen() {
		if err := p.backend.CloseStream(); err != nil {
			return fmt.Errorf("player: %w", err)
		}
	}

	if !p.hasAudioData() || p.outputDevice == device.NoDevice {
		return nil
	}

	// TODO: resample when the device does not support the sample rate of
	// the data; it is played too slow or too fast in that case.
	frames, err := p.backend.OpenStream(device.StreamConfig{
		Output: &device.StreamParameters{
			Device:   p.outputDevice,
			Channels: p.options.Channels,
		},
		Samplerate:      p.data.Samplerate,
		FramesPerBuffer: p.options.FramesPerBuffer,
		Callback:        p.playCb,
	})
	if err != nil {
		return fmt.Errorf("player: unable to open playback stream on device %d: %w",
			p.outputDevice, err)
	}

	log.Printf("player: output stream opened on device %d (%d Hz, %d channels, %d frames per buffer)\n",
		p.outputDevice, p.data.Samplerate, p.options.Channels, frames)

	if p.options.Gating == GateStream && !p.playRequested.Load() {
		return nil
	}

	if err := p.backend.StartStream(); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	return nil
}
