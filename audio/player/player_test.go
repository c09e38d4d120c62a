package player

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/dh1tw/audioEngine/audio"
	"github.com/dh1tw/audioEngine/audio/device"
	"github.com/dh1tw/audioEngine/audio/device/devicetest"
)

func newTestPlayer(t *testing.T, b *devicetest.Backend, opts ...Option) *Player {
	t.Helper()
	host := device.NewHostFromFactory("test", b.Factory())
	p, err := New(host, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func speakers() *devicetest.Backend {
	return devicetest.New(
		devicetest.Speaker(1, "speakers"),
		devicetest.Speaker(2, "headphones"),
	)
}

func TestSampleLooping(t *testing.T) {
	p := newTestPlayer(t, speakers(), Loop(true))
	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3, 4},
		Samplerate: 4,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	data := []struct {
		frame int64
		exp   float32
	}{
		{0, 1},
		{3, 4},
		{4, 1},
		{-1, 4},
		{-4, 1},
		{9, 2},
	}

	for _, d := range data {
		if res := p.Sample(d.frame, 0); res != d.exp {
			t.Errorf("Sample(%d, 0): expected %v, got %v", d.frame, d.exp, res)
		}
	}
}

func TestSampleLoopingIsPeriodic(t *testing.T) {
	p := newTestPlayer(t, speakers(), Loop(true))
	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		Samplerate: 6,
		Channels:   audio.STEREO,
	}); err != nil {
		t.Fatal(err)
	}

	frames := int64(3)
	for f := int64(-10); f < 10; f++ {
		for ch := int64(0); ch < 4; ch++ {
			exp := p.Sample(f, ch)
			for k := int64(-3); k <= 3; k++ {
				if res := p.Sample(f+k*frames, ch); res != exp {
					t.Fatalf("Sample(%d, %d) = %v, but Sample(%d, %d) = %v",
						f, ch, exp, f+k*frames, ch, res)
				}
			}
		}
	}
}

func TestSampleHugeFrameIndex(t *testing.T) {
	stereo := audio.Data{
		Samples:    []float32{1, 2, 3, 4},
		Samplerate: 4,
		Channels:   audio.STEREO,
	}
	threeChannels := audio.Data{
		Samples:    []float32{1, 2, 3, 4, 5, 6},
		Samplerate: 4,
		Channels:   3,
	}

	data := []struct {
		name    string
		data    audio.Data
		loop    bool
		frame   int64
		channel int64
		exp     float32
	}{
		{"3 channels without loop", threeChannels, false, math.MaxInt64/3 + 1, 0, 0},
		{"3 channels without loop, max", threeChannels, false, math.MaxInt64, 2, 0},
		{"3 channels without loop, min", threeChannels, false, math.MinInt64, 0, 0},
		{"3 channels looping", threeChannels, true, math.MaxInt64/3 + 1, 0, 4},
		{"3 channels looping, second channel", threeChannels, true, math.MaxInt64/3 + 1, 1, 5},
		{"stereo looping", stereo, true, 3 * (math.MaxInt64 / 3), 0, 1},
		{"stereo looping, odd frame", stereo, true, math.MaxInt64, 1, 4},
		{"stereo looping, min", stereo, true, math.MinInt64, 0, 1},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			p := newTestPlayer(t, speakers(), Loop(d.loop))
			if err := p.SetAudioData(d.data); err != nil {
				t.Fatal(err)
			}
			if res := p.Sample(d.frame, d.channel); res != d.exp {
				t.Fatalf("Sample(%d, %d): expected %v, got %v", d.frame, d.channel, d.exp, res)
			}
		})
	}
}

func TestSampleWithoutLoop(t *testing.T) {
	p := newTestPlayer(t, speakers())
	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3, 4},
		Samplerate: 4,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	for _, f := range []int64{-100, -1, 4, 5, 1000} {
		if res := p.Sample(f, 0); res != 0 {
			t.Errorf("Sample(%d, 0): expected silence, got %v", f, res)
		}
	}
	if res := p.Sample(2, 0); res != 3 {
		t.Errorf("Sample(2, 0): expected 3, got %v", res)
	}
}

func TestSampleChannelWrapAround(t *testing.T) {
	p := newTestPlayer(t, speakers())
	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3},
		Samplerate: 3,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	if res := p.Sample(1, 1); res != 2 {
		t.Fatalf("expected mono sample on the right channel, got %v", res)
	}
	if res := p.Sample(1, -1); res != 2 {
		t.Fatalf("expected negative channel to wrap around, got %v", res)
	}
}

func TestSampleIncompleteLastFrame(t *testing.T) {
	p := newTestPlayer(t, speakers())
	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3, 4, 5},
		Samplerate: 3,
		Channels:   audio.STEREO,
	}); err != nil {
		t.Fatal(err)
	}

	if res := p.Sample(2, 0); res != 5 {
		t.Errorf("expected 5, got %v", res)
	}
	if res := p.Sample(2, 1); res != 0 {
		t.Errorf("expected missing sample to be silent, got %v", res)
	}

	p.SetLoop(true)
	if res := p.Sample(2, 1); res != 1 {
		t.Errorf("expected missing sample to wrap around, got %v", res)
	}
}

func TestSampleMutedAndVolume(t *testing.T) {
	p := newTestPlayer(t, speakers(), Volume(0.5), Loop(true))
	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{0.8, -0.4},
		Samplerate: 2,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	if res := p.Sample(1, 0); res != -0.2 {
		t.Errorf("expected -0.2, got %v", res)
	}

	p.SetMuted(true)
	for f := int64(-3); f < 3; f++ {
		if res := p.Sample(f, 0); res != 0 {
			t.Fatalf("expected muted player to be silent, got %v", res)
		}
	}

	p.SetMuted(false)
	p.SetVolume(2)
	if res := p.Sample(0, 0); res != 1.6 {
		t.Errorf("expected 1.6, got %v", res)
	}
}

func TestProperties(t *testing.T) {
	p := newTestPlayer(t, speakers())

	if !reflect.DeepEqual(p.Properties(), audio.DefaultProperties()) {
		t.Fatalf("unexpected default properties %+v", p.Properties())
	}

	props := audio.Properties{Volume: 0.3, IsMuted: true, Loop: true}
	p.SetProperties(props)
	if !reflect.DeepEqual(p.Properties(), props) {
		t.Fatalf("expected %+v, got %+v", props, p.Properties())
	}
}

func TestTimeWithoutData(t *testing.T) {
	p := newTestPlayer(t, speakers())
	p.SetTime(3)
	if res := p.Time(); res != 0 {
		t.Fatalf("expected 0, got %v", res)
	}
}

func TestSetTime(t *testing.T) {
	p := newTestPlayer(t, speakers())
	if err := p.SetAudioData(audio.Data{
		Samples:    make([]float32, 48000),
		Samplerate: 48000,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	for _, s := range []float64{0, 0.25, 0.5000001, 1.3, -2.7} {
		p.SetTime(s)
		if res := p.Time(); math.Abs(res-s) > 1.0/48000 {
			t.Errorf("SetTime(%v): got %v", s, res)
		}
	}
}

func TestSetAudioDataKeepsTime(t *testing.T) {
	p := newTestPlayer(t, speakers())
	if err := p.SetAudioData(audio.Data{
		Samples:    make([]float32, 8),
		Samplerate: 4,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	p.SetTime(1)
	if err := p.SetAudioData(audio.Data{
		Samples:    make([]float32, 16),
		Samplerate: 8,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	if res := p.Time(); res != 1 {
		t.Fatalf("expected time 1, got %v", res)
	}
	if res := p.nextFrame.Load(); res != 8 {
		t.Fatalf("expected next frame 8, got %v", res)
	}
}

func TestSetInvalidAudioData(t *testing.T) {
	p := newTestPlayer(t, speakers())
	err := p.SetAudioData(audio.Data{Samples: []float32{1}, Samplerate: 0, Channels: 1})
	if !errors.Is(err, audio.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
	if p.HasAudioData() {
		t.Fatal("invalid data must not be accepted")
	}
}

func TestNoStreamWithoutData(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b)

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if b.Opened != 0 || p.IsStreamOpen() {
		t.Fatal("no stream expected without audio data")
	}

	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3, 4},
		Samplerate: 4,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	if !p.IsStreamRunning() {
		t.Fatal("expected stream to run once data is available")
	}

	cfg := b.Config()
	if cfg.Samplerate != 4 || cfg.Output == nil || cfg.Output.Device != 1 || cfg.Output.Channels != 2 {
		t.Fatalf("unexpected stream config %+v", cfg)
	}

	exp := []float32{1, 1, 2, 2, 3, 3, 4, 4}
	if res := b.Pull(4); !reflect.DeepEqual(res, exp) {
		t.Fatalf("expected %v, got %v", exp, res)
	}
	if res := p.Time(); res != 1 {
		t.Fatalf("expected time 1 after one buffer, got %v", res)
	}
	if !p.Ended() {
		t.Fatal("expected player to have reached the end")
	}
	if res := b.Pull(2); !reflect.DeepEqual(res, make([]float32, 4)) {
		t.Fatalf("expected silence past the end, got %v", res)
	}
}

func TestResetAudioData(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b)

	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2},
		Samplerate: 2,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}
	if !p.HasAudioData() || !p.IsStreamOpen() {
		t.Fatal("expected data and open stream")
	}

	if err := p.ResetAudioData(); err != nil {
		t.Fatal(err)
	}
	if p.HasAudioData() || p.IsStreamOpen() {
		t.Fatal("expected no data and no stream after reset")
	}
	if res := p.Sample(0, 0); res != 0 {
		t.Fatalf("expected silence, got %v", res)
	}
	if p.Time() != 0 {
		t.Fatal("expected time 0 without data")
	}
}

func TestPauseEmitsSilence(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b, Channels(1))

	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3, 4},
		Samplerate: 4,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}

	// gating by silence: the stream runs although Play has not been called
	if !p.IsStreamRunning() {
		t.Fatal("expected running stream")
	}
	if res := b.Pull(2); !reflect.DeepEqual(res, []float32{0, 0}) {
		t.Fatalf("expected silence while paused, got %v", res)
	}
	if p.Time() != 0 {
		t.Fatal("time must not advance while paused")
	}

	p.Play()
	p.Play()
	if res := b.Pull(2); !reflect.DeepEqual(res, []float32{1, 2}) {
		t.Fatalf("expected [1 2], got %v", res)
	}

	p.Pause()
	p.Pause()
	if res := b.Pull(2); !reflect.DeepEqual(res, []float32{0, 0}) {
		t.Fatalf("expected silence while paused, got %v", res)
	}

	p.Play()
	if res := b.Pull(2); !reflect.DeepEqual(res, []float32{3, 4}) {
		t.Fatalf("expected playback to resume at [3 4], got %v", res)
	}

	if b.Started != 1 || b.Stopped != 0 {
		t.Fatalf("Play and Pause must not touch the stream (started %d, stopped %d)",
			b.Started, b.Stopped)
	}
}

func TestGateStream(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b, WithGating(GateStream))

	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3, 4},
		Samplerate: 4,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}
	if !p.IsStreamOpen() || p.IsStreamRunning() {
		t.Fatal("expected open but stopped stream")
	}

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if !p.IsStreamRunning() || b.Started != 1 {
		t.Fatalf("expected stream to be started once, got %d", b.Started)
	}

	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	if p.IsStreamRunning() || b.Stopped != 1 {
		t.Fatalf("expected stream to be stopped once, got %d", b.Stopped)
	}

	errStart := errors.New("device busy")
	b.StartErr = errStart
	if err := p.Play(); !errors.Is(err, errStart) {
		t.Fatalf("expected start error, got %v", err)
	}
}

func TestDeviceChange(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b)

	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 2, 3, 4},
		Samplerate: 4,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}
	p.Play()
	b.Pull(1)

	// nothing changed
	if err := p.UpdateDeviceIfNecessary(); err != nil {
		t.Fatal(err)
	}
	if b.Opened != 1 {
		t.Fatalf("expected stream to be opened once, got %d", b.Opened)
	}

	b.SetDefaultOutput(2)
	if err := p.UpdateDeviceIfNecessary(); err != nil {
		t.Fatal(err)
	}

	if p.OutputDevice() != 2 || b.Config().Output.Device != 2 {
		t.Fatal("expected stream on the new default device")
	}
	if b.Opened != 2 || b.Closed != 1 {
		t.Fatalf("expected stream to be reopened (opened %d, closed %d)", b.Opened, b.Closed)
	}
	if !p.IsStreamRunning() {
		t.Fatal("expected stream to keep running")
	}
	if res := b.Pull(1); !reflect.DeepEqual(res, []float32{2, 2}) {
		t.Fatalf("expected playback to continue at [2 2], got %v", res)
	}
}

func TestNoDevice(t *testing.T) {
	b := speakers()
	b.SetDefaultOutput(device.NoDevice)
	p := newTestPlayer(t, b)

	p.Play()
	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1},
		Samplerate: 1,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}
	if p.IsStreamOpen() {
		t.Fatal("no stream expected without device")
	}

	b.SetDefaultOutput(1)
	if err := p.UpdateDeviceIfNecessary(); err != nil {
		t.Fatal(err)
	}
	if !p.IsStreamRunning() {
		t.Fatal("expected stream once a device is available")
	}
}

func TestOpenStreamError(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b)

	errOpen := errors.New("invalid sample rate")
	b.OpenErr = errOpen
	err := p.SetAudioData(audio.Data{Samples: []float32{1}, Samplerate: 1, Channels: 1})
	if !errors.Is(err, errOpen) {
		t.Fatalf("expected open error, got %v", err)
	}
	if !p.HasAudioData() {
		t.Fatal("data must be kept when the stream can not be opened")
	}
}

func TestOutputClaimedOnce(t *testing.T) {
	b := speakers()
	host := device.NewHostFromFactory("test", b.Factory())

	p, err := New(host)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(host); !errors.Is(err, device.ErrDirectionClaimed) {
		t.Fatalf("expected ErrDirectionClaimed, got %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	p2, err := New(host)
	if err != nil {
		t.Fatal(err)
	}
	p2.Close()
}

func TestStreamEvents(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b)
	if err := p.SetAudioData(audio.Data{Samples: []float32{1}, Samplerate: 1, Channels: 1}); err != nil {
		t.Fatal(err)
	}

	b.Pull(1)
	b.PullWithFlags(1, device.OutputUnderflow)

	events := p.StreamEvents()
	if len(events) != 1 || events[0].Flags != device.OutputUnderflow {
		t.Fatalf("expected one underflow event, got %v", events)
	}
}

func TestParseGating(t *testing.T) {
	data := []struct {
		in  string
		exp Gating
		ok  bool
	}{
		{"", GateSilence, true},
		{"silence", GateSilence, true},
		{"stream", GateStream, true},
		{"foo", GateSilence, false},
	}

	for _, d := range data {
		g, ok := ParseGating(d.in)
		if g != d.exp || ok != d.ok {
			t.Errorf("ParseGating(%q): expected %v %v, got %v %v", d.in, d.exp, d.ok, g, ok)
		}
	}
}

func TestConcurrentPlaybackAndControl(t *testing.T) {
	b := speakers()
	p := newTestPlayer(t, b, Loop(true))

	if err := p.SetAudioData(audio.Data{
		Samples:    []float32{1, 1, 1, 1, 1, 1, 1, 1},
		Samplerate: 8,
		Channels:   audio.MONO,
	}); err != nil {
		t.Fatal(err)
	}
	p.Play()

	done := make(chan struct{})
	errs := make(chan float32, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	// audio thread
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			// nil while the stream is being recreated
			for _, s := range b.Pull(16) {
				if s != 0 && s != 1 && s != 0.5 {
					select {
					case errs <- s:
					default:
					}
				}
			}
		}
	}()

	for i := 0; i < 500; i++ {
		p.SetTime(float64(i%7) - 3)
		p.SetVolume([]float32{1, 0.5}[i%2])
		p.SetMuted(i%5 == 0)

		if i%25 == 0 {
			b.SetDefaultOutput(device.ID(1 + (i/25)%2))
		}
		if err := p.UpdateDeviceIfNecessary(); err != nil {
			t.Fatal(err)
		}
		if i%100 == 0 {
			if err := p.SetAudioData(p.AudioData()); err != nil {
				t.Fatal(err)
			}
		}
		_ = p.Time()
	}

	close(done)
	wg.Wait()

	select {
	case s := <-errs:
		t.Fatalf("unexpected sample %v", s)
	default:
	}

	if !p.IsStreamRunning() {
		t.Fatal("expected running stream")
	}
}
