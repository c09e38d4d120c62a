package device

import (
	"fmt"
	"log"
	"sync"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// sample rate and channel counts reported for miniaudio devices which do
// not report a native format; miniaudio converts internally.
const (
	malgoSamplerate  = 48000
	malgoOutChannels = 2
	malgoInChannels  = 1
)

type malgoDevice struct {
	id          malgo.DeviceID
	info        Info
	outChannels int // native format, 0 until probed
	inChannels  int
}

// Malgo implements the Backend interface on top of miniaudio (malgo).
// Devices are re-enumerated on every query, so changes of the default
// device are picked up while the application is running.
type Malgo struct {
	sync.Mutex
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	running    bool
	ids        map[string]ID
	devices    map[ID]*malgoDevice
	nextID     ID
	defaultOut ID
	defaultIn  ID

	cb          StreamCallback
	samplerate  int
	frames      uint64 // only touched by the data callback
	outChannels int
	inChannels  int
	errCb       func(error)
}

// NewMalgo initializes a miniaudio context with the default backends of
// the platform.
func NewMalgo() (Backend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize malgo context: %v", ErrNoBackend, err)
	}

	m := &Malgo{
		ctx:     ctx,
		ids:     make(map[string]ID),
		devices: make(map[ID]*malgoDevice),
		nextID:  1,
	}

	m.Lock()
	defer m.Unlock()
	if err := m.enumerate(); err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
	}

	return m, nil
}

// enumerate refreshes the device list (must hold m.Mutex). IDs stay stable
// for devices which have been seen before.
func (m *Malgo) enumerate() error {
	m.defaultOut, m.defaultIn = NoDevice, NoDevice

	for _, d := range m.devices {
		d.info.InputChannels = 0
		d.info.OutputChannels = 0
		d.info.IsDefaultInput = false
		d.info.IsDefaultOutput = false
	}

	for _, kind := range []malgo.DeviceType{malgo.Playback, malgo.Capture} {
		infos, err := m.ctx.Devices(kind)
		if err != nil {
			return err
		}
		for _, info := range infos {
			key := string(info.ID[:])
			id, ok := m.ids[key]
			if !ok {
				id = m.nextID
				m.nextID++
				m.ids[key] = id
				m.devices[id] = &malgoDevice{
					id: info.ID,
					info: Info{
						ID:   id,
						Name: info.Name(),
					},
				}
			}
			d := m.devices[id]
			isDefault := info.IsDefault != 0
			m.probe(kind, d)
			if kind == malgo.Playback {
				d.info.OutputChannels = d.outChannels
				d.info.IsDefaultOutput = isDefault
				if isDefault {
					m.defaultOut = id
				}
			} else {
				d.info.InputChannels = d.inChannels
				d.info.IsDefaultInput = isDefault
				if isDefault {
					m.defaultIn = id
				}
			}
		}
	}
	return nil
}

// probe queries the native format of a device once per direction (must
// hold m.Mutex).
func (m *Malgo) probe(kind malgo.DeviceType, d *malgoDevice) {
	if kind == malgo.Playback && d.outChannels > 0 || kind == malgo.Capture && d.inChannels > 0 {
		return
	}

	var formats []malgo.DataFormat
	info, err := m.ctx.DeviceInfo(kind, d.id, malgo.Shared)
	if err != nil {
		log.Printf("malgo: unable to query %s: %v", d.info.Name, err)
	} else {
		formats = info.Formats[:min(int(info.FormatCount), len(info.Formats))]
	}

	channels, samplerate := nativeFormat(formats)

	if kind == malgo.Playback {
		d.outChannels = channels
		if channels == 0 {
			d.outChannels = malgoOutChannels
		}
	} else {
		d.inChannels = channels
		if channels == 0 {
			d.inChannels = malgoInChannels
		}
	}

	if d.info.PreferredSamplerate == 0 {
		d.info.PreferredSamplerate = samplerate
		if samplerate == 0 {
			d.info.PreferredSamplerate = malgoSamplerate
		}
	}
}

// nativeFormat returns the highest channel count and the sample rate of
// the first format reporting one. 0 means the device did not tell.
func nativeFormat(formats []malgo.DataFormat) (channels, samplerate int) {
	for _, f := range formats {
		channels = max(channels, int(f.Channels))
		if samplerate == 0 {
			samplerate = int(f.SampleRate)
		}
	}
	return channels, samplerate
}

func (m *Malgo) refresh() {
	if err := m.enumerate(); err != nil {
		log.Println("malgo: unable to enumerate devices:", err)
	}
}

// DefaultOutputDevice returns the current default playback device.
func (m *Malgo) DefaultOutputDevice() ID {
	m.Lock()
	defer m.Unlock()
	m.refresh()
	return m.defaultOut
}

// DefaultInputDevice returns the current default capture device.
func (m *Malgo) DefaultInputDevice() ID {
	m.Lock()
	defer m.Unlock()
	m.refresh()
	return m.defaultIn
}

// DeviceIDs returns the ids of all currently available devices.
func (m *Malgo) DeviceIDs() []ID {
	m.Lock()
	defer m.Unlock()
	m.refresh()

	ids := []ID{}
	for id := ID(1); id < m.nextID; id++ {
		d, ok := m.devices[id]
		if !ok || d.info.InputChannels+d.info.OutputChannels == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// DeviceInfo returns the properties of a device.
func (m *Malgo) DeviceInfo(id ID) (Info, error) {
	m.Lock()
	defer m.Unlock()
	if id == NoDevice {
		return Info{}, ErrNoDevice
	}
	d, ok := m.devices[id]
	if !ok {
		return Info{}, fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}
	return d.info, nil
}

// OpenStream initializes a miniaudio device for the given config. The
// device is not started.
func (m *Malgo) OpenStream(cfg StreamConfig) (int, error) {
	m.Lock()
	defer m.Unlock()

	if m.device != nil {
		return 0, ErrStreamOpen
	}
	if cfg.Callback == nil {
		return 0, fmt.Errorf("malgo: no stream callback provided")
	}

	var deviceConfig malgo.DeviceConfig
	switch {
	case cfg.Output != nil && cfg.Input != nil:
		deviceConfig = malgo.DefaultDeviceConfig(malgo.Duplex)
	case cfg.Output != nil:
		deviceConfig = malgo.DefaultDeviceConfig(malgo.Playback)
	case cfg.Input != nil:
		deviceConfig = malgo.DefaultDeviceConfig(malgo.Capture)
	default:
		return 0, fmt.Errorf("malgo: stream needs at least one direction")
	}

	m.outChannels, m.inChannels = 0, 0

	if cfg.Output != nil {
		d, ok := m.devices[cfg.Output.Device]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownDevice, cfg.Output.Device)
		}
		deviceConfig.Playback.Format = malgo.FormatF32
		deviceConfig.Playback.Channels = uint32(cfg.Output.Channels)
		deviceConfig.Playback.DeviceID = d.id.Pointer()
		m.outChannels = cfg.Output.Channels
	}

	if cfg.Input != nil {
		d, ok := m.devices[cfg.Input.Device]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownDevice, cfg.Input.Device)
		}
		deviceConfig.Capture.Format = malgo.FormatF32
		deviceConfig.Capture.Channels = uint32(cfg.Input.Channels)
		deviceConfig.Capture.DeviceID = d.id.Pointer()
		m.inChannels = cfg.Input.Channels
	}

	deviceConfig.SampleRate = uint32(cfg.Samplerate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	deviceConfig.Alsa.NoMMap = 1

	m.cb = cfg.Callback
	m.samplerate = cfg.Samplerate
	m.frames = 0

	callbacks := malgo.DeviceCallbacks{
		Data: m.dataCb,
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		err = fmt.Errorf("failed to initialize malgo device: %w", err)
		m.reportError(err)
		return 0, err
	}

	m.device = device
	m.running = false

	return cfg.FramesPerBuffer, nil
}

// dataCb is called by miniaudio on its audio thread.
func (m *Malgo) dataCb(pOutput, pInput []byte, frameCount uint32) {
	var streamTime float64
	if m.samplerate > 0 {
		streamTime = float64(m.frames) / float64(m.samplerate)
	}
	m.frames += uint64(frameCount)
	m.cb(float32s(pOutput), float32s(pInput), int(frameCount), streamTime, 0)
}

// float32s reinterprets a byte buffer in native float32 format without
// copying.
func float32s(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// StartStream starts the device; starting a running device is a no-op.
func (m *Malgo) StartStream() error {
	m.Lock()
	defer m.Unlock()

	if m.device == nil {
		return ErrStreamNotOpen
	}
	if m.running {
		return nil
	}
	if err := m.device.Start(); err != nil {
		err = fmt.Errorf("failed to start malgo device: %w", err)
		m.reportError(err)
		return err
	}
	m.running = true
	return nil
}

// StopStream stops the device; stopping a stopped device is a no-op.
func (m *Malgo) StopStream() error {
	m.Lock()
	defer m.Unlock()

	if m.device == nil {
		return ErrStreamNotOpen
	}
	if !m.running {
		return nil
	}
	m.running = false
	if err := m.device.Stop(); err != nil {
		err = fmt.Errorf("failed to stop malgo device: %w", err)
		m.reportError(err)
		return err
	}
	return nil
}

// CloseStream stops and uninitializes the device.
func (m *Malgo) CloseStream() error {
	m.Lock()
	defer m.Unlock()
	m.closeDevice()
	return nil
}

// closeDevice must be called with m.Mutex held.
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if m.running {
		if err := m.device.Stop(); err != nil {
			log.Printf("malgo: device stop error: %v", err)
		}
		m.running = false
	}
	m.device.Uninit()
	m.device = nil
}

// IsStreamOpen returns true if a device has been initialized.
func (m *Malgo) IsStreamOpen() bool {
	m.Lock()
	defer m.Unlock()
	return m.device != nil
}

// IsStreamRunning returns true if the device has been started.
func (m *Malgo) IsStreamRunning() bool {
	m.Lock()
	defer m.Unlock()
	return m.device != nil && m.running
}

// SetErrorCallback sets a function which is executed whenever a stream
// operation fails.
func (m *Malgo) SetErrorCallback(f func(error)) {
	m.Lock()
	defer m.Unlock()
	m.errCb = f
}

// reportError must be called with m.Mutex held.
func (m *Malgo) reportError(err error) {
	if m.errCb != nil {
		m.errCb(err)
	}
}

// Terminate closes the device and releases the miniaudio context.
func (m *Malgo) Terminate() error {
	m.Lock()
	defer m.Unlock()

	m.closeDevice()

	if m.ctx != nil {
		if err := m.ctx.Uninit(); err != nil {
			log.Printf("malgo: context uninit error: %v", err)
		}
		m.ctx.Free()
		m.ctx = nil
	}
	return nil
}
