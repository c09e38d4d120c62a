package player

import "github.com/dh1tw/audioEngine/audio"

// Gating determines how Play and Pause act on the hardware stream.
type Gating int

const (
	// GateSilence keeps the stream running once it is open. While paused
	// the callback emits silence. Play and Pause never touch the backend.
	GateSilence Gating = iota
	// GateStream starts the stream on Play and stops it on Pause.
	GateStream
)

func (g Gating) String() string {
	if g == GateStream {
		return "stream"
	}
	return "silence"
}

// ParseGating converts "silence" / "stream" into a Gating value.
func ParseGating(s string) (Gating, bool) {
	switch s {
	case "silence", "":
		return GateSilence, true
	case "stream":
		return GateStream, true
	}
	return GateSilence, false
}

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters for initializing a player.
type Options struct {
	Channels        int
	FramesPerBuffer int
	Gating          Gating
	Properties      audio.Properties
	StatusLogSize   int
}

// Channels is a functional option to set the amount of channels of the
// output stream. Audio data with fewer channels is repeated over the
// output channels (e.g. mono data is played on both stereo channels).
func Channels(chs int) Option {
	return func(args *Options) {
		args.Channels = chs
	}
}

// FramesPerBuffer is a functional option which sets the amount of frames
// the audio device will request when executing the callback. 0 lets the
// backend choose the smallest possible value.
func FramesPerBuffer(s int) Option {
	return func(args *Options) {
		args.FramesPerBuffer = s
	}
}

// WithGating is a functional option to select how Play and Pause control
// the hardware stream.
func WithGating(g Gating) Option {
	return func(args *Options) {
		args.Gating = g
	}
}

// Volume is a functional option to set the initial volume.
func Volume(v float32) Option {
	return func(args *Options) {
		args.Properties.Volume = v
	}
}

// Muted is a functional option to start the player muted.
func Muted(m bool) Option {
	return func(args *Options) {
		args.Properties.IsMuted = m
	}
}

// Loop is a functional option to make the player loop over its data.
func Loop(l bool) Option {
	return func(args *Options) {
		args.Properties.Loop = l
	}
}

// StatusLogSize is a functional option to set how many stream status
// events (e.g. output underflows) are retained.
func StatusLogSize(n int) Option {
	return func(args *Options) {
		args.StatusLogSize = n
	}
}
