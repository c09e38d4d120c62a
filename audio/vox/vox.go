// Package vox detects voice (or any other signal) in windows of captured
// samples.
package vox

import (
	"log"
	"sync"
	"time"

	"github.com/dh1tw/audioEngine/audio"
)

// Vox detects if the audio level raises above or falls below a defined
// threshold level. Once active, the vox stays active for the hold time
// after the level has fallen below the threshold.
type Vox struct {
	sync.Mutex
	active         bool
	lastActivation time.Time
	onStateChange  func(voxOn bool)
	threshold      float32
	holdTime       time.Duration
	now            func() time.Time
}

// New is the constructor method for a Vox Object. By default the threshold
// is set to 0.1 and the hold time to 500ms.
func New(opts ...Option) *Vox {
	v := &Vox{
		holdTime:       time.Millisecond * 500,
		threshold:      0.1,
		lastActivation: time.Time{},
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Process calculates the RMS (root mean square) of a window of mono samples
// and updates the vox state. The StateChanged callback is executed when the
// state changes. Process returns the current state.
func (v *Vox) Process(samples []float32) bool {

	// empty window
	if len(samples) == 0 {
		return v.Active()
	}

	rmsValue := audio.RMS(samples)

	v.Lock()
	changed := false
	if rmsValue >= v.threshold {
		v.lastActivation = v.now()
		if !v.active {
			v.active = true
			changed = true
			log.Println("activating vox")
		}
	} else if v.active && v.now().Sub(v.lastActivation) > v.holdTime {
		v.active = false
		changed = true
		log.Println("deactivating vox")
	}
	active := v.active
	cb := v.onStateChange
	v.Unlock()

	if changed && cb != nil {
		cb(active)
	}

	return active
}

// Active returns true if the vox is currently triggered.
func (v *Vox) Active() bool {
	v.Lock()
	defer v.Unlock()
	return v.active
}

// SetThreshold sets the RMS threshold level.
func (v *Vox) SetThreshold(t float32) {
	v.Lock()
	defer v.Unlock()
	v.threshold = t
}

// Threshold returns the RMS threshold level.
func (v *Vox) Threshold() float32 {
	v.Lock()
	defer v.Unlock()
	return v.threshold
}

// SetHoldTime sets the hold time.
func (v *Vox) SetHoldTime(t time.Duration) {
	v.Lock()
	defer v.Unlock()
	v.holdTime = t
}

// HoldTime returns the hold time.
func (v *Vox) HoldTime() time.Duration {
	v.Lock()
	defer v.Unlock()
	return v.holdTime
}
