package recorder

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters for initializing a recorder.
type Options struct {
	DeviceName      string
	RetainedSamples int
	FramesPerBuffer int
	StatusLogSize   int
}

// DeviceName is a functional option to specify the name of the input
// device. "default" selects the default input device of the host.
func DeviceName(name string) Option {
	return func(args *Options) {
		args.DeviceName = name
	}
}

// RetainedSamples is a functional option to set how many of the most
// recent samples are kept.
func RetainedSamples(n int) Option {
	return func(args *Options) {
		args.RetainedSamples = n
	}
}

// FramesPerBuffer is a functional option which sets the amount of frames
// the audio device provides when executing the callback.
func FramesPerBuffer(s int) Option {
	return func(args *Options) {
		args.FramesPerBuffer = s
	}
}

// StatusLogSize is a functional option to set how many stream status
// events (e.g. input overflows) are retained.
func StatusLogSize(n int) Option {
	return func(args *Options) {
		args.StatusLogSize = n
	}
}
