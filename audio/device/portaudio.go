package device

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	pa "github.com/gordonklaus/portaudio"
)

// PortAudio implements the Backend interface on top of the portaudio
// library. The default devices are the ones of the host API selected at
// construction; portaudio only detects device changes after a re-init.
type PortAudio struct {
	sync.Mutex
	hostAPI     *pa.HostApiInfo
	stream      *pa.Stream
	running     bool
	cb          StreamCallback
	outChannels int
	inChannels  int
	errCb       func(error)
}

// NewPortAudio initializes portaudio and returns a Backend for the default
// host API of the platform.
func NewPortAudio() (Backend, error) {

	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
	}

	var hostAPI *pa.HostApiInfo

	switch runtime.GOOS {
	case "windows":
		// try to use WASAPI since it provides lower latency than the
		// other windows audio apis
		ha, err := pa.HostApi(pa.WASAPI)
		if err != nil {
			ha, err = pa.DefaultHostApi()
			if err != nil {
				pa.Terminate()
				return nil, fmt.Errorf("%w: unable to determine the default host api", ErrNoBackend)
			}
		}
		hostAPI = ha
	default:
		ha, err := pa.DefaultHostApi()
		if err != nil {
			pa.Terminate()
			return nil, fmt.Errorf("%w: unable to determine the default host api", ErrNoBackend)
		}
		hostAPI = ha
	}

	if len(hostAPI.Devices) == 0 {
		pa.Terminate()
		return nil, fmt.Errorf("%w: host api %s has no devices", ErrNoBackend, hostAPI.Name)
	}

	return &PortAudio{hostAPI: hostAPI}, nil
}

func paID(d *pa.DeviceInfo) ID {
	if d == nil {
		return NoDevice
	}
	return ID(d.Index + 1)
}

func (p *PortAudio) paDevice(id ID) (*pa.DeviceInfo, error) {
	if id == NoDevice {
		return nil, ErrNoDevice
	}
	for _, d := range p.hostAPI.Devices {
		if paID(d) == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownDevice, id)
}

// DefaultOutputDevice returns the default output device of the host API.
func (p *PortAudio) DefaultOutputDevice() ID {
	return paID(p.hostAPI.DefaultOutputDevice)
}

// DefaultInputDevice returns the default input device of the host API.
func (p *PortAudio) DefaultInputDevice() ID {
	return paID(p.hostAPI.DefaultInputDevice)
}

// DeviceIDs returns the ids of all devices of the host API.
func (p *PortAudio) DeviceIDs() []ID {
	ids := make([]ID, 0, len(p.hostAPI.Devices))
	for _, d := range p.hostAPI.Devices {
		ids = append(ids, paID(d))
	}
	return ids
}

// DeviceInfo returns the properties of a device.
func (p *PortAudio) DeviceInfo(id ID) (Info, error) {
	d, err := p.paDevice(id)
	if err != nil {
		return Info{}, err
	}
	return Info{
		ID:                  id,
		Name:                d.Name,
		InputChannels:       d.MaxInputChannels,
		OutputChannels:      d.MaxOutputChannels,
		PreferredSamplerate: int(d.DefaultSampleRate),
		IsDefaultInput:      id == p.DefaultInputDevice(),
		IsDefaultOutput:     id == p.DefaultOutputDevice(),
	}, nil
}

// OpenStream opens a portaudio stream for the given config. The stream is
// not started.
func (p *PortAudio) OpenStream(cfg StreamConfig) (int, error) {
	p.Lock()
	defer p.Unlock()

	if p.stream != nil {
		return 0, ErrStreamOpen
	}
	if cfg.Callback == nil {
		return 0, fmt.Errorf("portaudio: no stream callback provided")
	}

	streamParm := pa.StreamParameters{
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      float64(cfg.Samplerate),
	}

	p.outChannels, p.inChannels = 0, 0

	if cfg.Output != nil {
		dev, err := p.paDevice(cfg.Output.Device)
		if err != nil {
			return 0, err
		}
		streamParm.Output = pa.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Output.Channels,
			Latency:  dev.DefaultLowOutputLatency,
		}
		p.outChannels = cfg.Output.Channels
	}

	if cfg.Input != nil {
		dev, err := p.paDevice(cfg.Input.Device)
		if err != nil {
			return 0, err
		}
		streamParm.Input = pa.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Input.Channels,
			Latency:  dev.DefaultLowInputLatency,
		}
		p.inChannels = cfg.Input.Channels
	}

	var paCb interface{}
	switch {
	case p.outChannels > 0 && p.inChannels > 0:
		paCb = p.duplexCb
	case p.outChannels > 0:
		paCb = p.outputCb
	case p.inChannels > 0:
		paCb = p.inputCb
	default:
		return 0, fmt.Errorf("portaudio: stream needs at least one channel")
	}

	p.cb = cfg.Callback

	stream, err := pa.OpenStream(streamParm, paCb)
	if err != nil {
		err = fmt.Errorf("unable to open portaudio stream: %w", err)
		p.reportError(err)
		return 0, err
	}

	p.stream = stream
	p.running = false

	return cfg.FramesPerBuffer, nil
}

// portaudio callbacks which will be called continuously when the stream is
// started; they should be short and never block
func (p *PortAudio) outputCb(out []float32,
	iTime pa.StreamCallbackTimeInfo,
	iFlags pa.StreamCallbackFlags) {
	p.cb(out, nil, len(out)/p.outChannels, iTime.CurrentTime.Seconds(), statusFlags(iFlags))
}

func (p *PortAudio) inputCb(in []float32,
	iTime pa.StreamCallbackTimeInfo,
	iFlags pa.StreamCallbackFlags) {
	p.cb(nil, in, len(in)/p.inChannels, iTime.CurrentTime.Seconds(), statusFlags(iFlags))
}

func (p *PortAudio) duplexCb(in, out []float32,
	iTime pa.StreamCallbackTimeInfo,
	iFlags pa.StreamCallbackFlags) {
	p.cb(out, in, len(out)/p.outChannels, iTime.CurrentTime.Seconds(), statusFlags(iFlags))
}

func statusFlags(f pa.StreamCallbackFlags) StatusFlags {
	var s StatusFlags
	if f&pa.InputUnderflow != 0 {
		s |= InputUnderflow
	}
	if f&pa.InputOverflow != 0 {
		s |= InputOverflow
	}
	if f&pa.OutputUnderflow != 0 {
		s |= OutputUnderflow
	}
	if f&pa.OutputOverflow != 0 {
		s |= OutputOverflow
	}
	if f&pa.PrimingOutput != 0 {
		s |= PrimingOutput
	}
	return s
}

// StartStream starts the stream; starting a running stream is a no-op.
func (p *PortAudio) StartStream() error {
	p.Lock()
	defer p.Unlock()

	if p.stream == nil {
		return ErrStreamNotOpen
	}
	if p.running {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		err = fmt.Errorf("unable to start portaudio stream: %w", err)
		p.reportError(err)
		return err
	}
	p.running = true
	return nil
}

// StopStream stops the stream; stopping a stopped stream is a no-op.
func (p *PortAudio) StopStream() error {
	p.Lock()
	defer p.Unlock()

	if p.stream == nil {
		return ErrStreamNotOpen
	}
	if !p.running {
		return nil
	}
	p.running = false
	if err := p.stream.Stop(); err != nil {
		err = fmt.Errorf("unable to stop portaudio stream: %w", err)
		p.reportError(err)
		return err
	}
	return nil
}

// CloseStream stops (if necessary) and closes the stream.
func (p *PortAudio) CloseStream() error {
	p.Lock()
	defer p.Unlock()
	return p.closeStream()
}

// closeStream must be called with p.Mutex held.
func (p *PortAudio) closeStream() error {
	if p.stream == nil {
		return nil
	}
	if p.running {
		if err := p.stream.Stop(); err != nil {
			log.Println("portaudio: stop stream:", err)
			p.stream.Abort()
		}
		p.running = false
	}
	err := p.stream.Close()
	p.stream = nil
	if err != nil {
		err = fmt.Errorf("unable to close portaudio stream: %w", err)
		p.reportError(err)
		return err
	}
	return nil
}

// IsStreamOpen returns true if a stream has been opened and not closed.
func (p *PortAudio) IsStreamOpen() bool {
	p.Lock()
	defer p.Unlock()
	return p.stream != nil
}

// IsStreamRunning returns true if the stream has been started.
func (p *PortAudio) IsStreamRunning() bool {
	p.Lock()
	defer p.Unlock()
	return p.stream != nil && p.running
}

// SetErrorCallback sets a function which is executed whenever a stream
// operation fails.
func (p *PortAudio) SetErrorCallback(f func(error)) {
	p.Lock()
	defer p.Unlock()
	p.errCb = f
}

// reportError must be called with p.Mutex held.
func (p *PortAudio) reportError(err error) {
	if p.errCb != nil {
		p.errCb(err)
	}
}

// Terminate closes the stream and releases portaudio.
func (p *PortAudio) Terminate() error {
	p.Lock()
	err := p.closeStream()
	p.Unlock()

	if tErr := pa.Terminate(); tErr != nil && err == nil {
		err = tErr
	}
	return err
}
