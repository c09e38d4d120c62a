package recorder

import "sync"

// SampleRing is a bounded FIFO of mono samples. Once the bound is reached,
// every pushed sample evicts the oldest one. It is safe for concurrent use;
// Push never allocates and only holds the lock for a single store.
type SampleRing struct {
	sync.Mutex
	buf  []float32 // len(buf) is the bound
	head int       // position of the oldest sample
	size int
}

// NewSampleRing returns an empty ring which retains at most bound samples.
func NewSampleRing(bound int) *SampleRing {
	return &SampleRing{buf: make([]float32, max(bound, 0))}
}

// Bound returns the maximum amount of retained samples.
func (r *SampleRing) Bound() int {
	r.Lock()
	defer r.Unlock()
	return len(r.buf)
}

// Len returns the amount of retained samples.
func (r *SampleRing) Len() int {
	r.Lock()
	defer r.Unlock()
	return r.size
}

// SetBound changes the maximum amount of retained samples. When shrinking,
// the oldest excess samples are discarded immediately.
func (r *SampleRing) SetBound(bound int) {
	bound = max(bound, 0)
	buf := make([]float32, bound)

	r.Lock()
	defer r.Unlock()

	if bound == len(r.buf) {
		return
	}
	keep := min(r.size, bound)
	r.copyLast(buf[:keep])
	r.buf = buf
	r.head = 0
	r.size = keep
}

// Push appends a sample.
func (r *SampleRing) Push(v float32) {
	r.Lock()
	r.push(v)
	r.Unlock()
}

// PushAll appends the samples one after another, so the bound holds after
// every single sample.
func (r *SampleRing) PushAll(samples []float32) {
	r.Lock()
	for _, v := range samples {
		r.push(v)
	}
	r.Unlock()
}

func (r *SampleRing) push(v float32) {
	n := len(r.buf)
	if n == 0 {
		return
	}
	if r.size < n {
		r.buf[(r.head+r.size)%n] = v
		r.size++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % n
}

// Clear discards all samples.
func (r *SampleRing) Clear() {
	r.Lock()
	defer r.Unlock()
	r.head = 0
	r.size = 0
}

// CopyLast fills dst with the len(dst) most recent samples, oldest first.
// If fewer samples are retained, the leading positions of dst are set to
// zero. The amount of real samples is returned.
func (r *SampleRing) CopyLast(dst []float32) int {
	r.Lock()
	defer r.Unlock()
	return r.copyLast(dst)
}

func (r *SampleRing) copyLast(dst []float32) int {
	available := min(len(dst), r.size)
	missing := len(dst) - available
	clear(dst[:missing])

	start := r.head + r.size - available
	for i := 0; i < available; i++ {
		dst[missing+i] = r.buf[(start+i)%len(r.buf)]
	}
	return available
}
