package device

import (
	"fmt"
	"strings"
	"sync"
)

// Direction of an audio stream.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Factory creates a new Backend.
type Factory func() (Backend, error)

// Host is the audio context shared by the playback and capture engines of
// an application. It creates the backends for one host API and makes sure
// that at most one output and one input stream owner exist at a time.
type Host struct {
	sync.Mutex
	api        string
	newBackend Factory
	claimed    map[Direction]Backend
}

// HostAPIs returns the names of the supported host APIs.
func HostAPIs() []string {
	return []string{"portaudio", "malgo"}
}

// NewHost returns a Host for the given host API ("portaudio", "malgo" or
// "default").
func NewHost(api string) (*Host, error) {
	var f Factory

	switch strings.ToLower(api) {
	case "", "default", "portaudio":
		api = "portaudio"
		f = NewPortAudio
	case "malgo", "miniaudio":
		api = "malgo"
		f = NewMalgo
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHostAPI, api)
	}

	return NewHostFromFactory(api, f), nil
}

// NewHostFromFactory returns a Host which uses f to create its backends.
func NewHostFromFactory(api string, f Factory) *Host {
	return &Host{
		api:        api,
		newBackend: f,
		claimed:    make(map[Direction]Backend),
	}
}

// API returns the name of the host API.
func (h *Host) API() string {
	return h.api
}

// Claim creates the Backend for a stream direction. A direction can only be
// claimed once until it is released again.
func (h *Host) Claim(dir Direction) (Backend, error) {
	h.Lock()
	defer h.Unlock()

	if _, ok := h.claimed[dir]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDirectionClaimed, dir)
	}

	b, err := h.newBackend()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNoBackend
	}

	h.claimed[dir] = b
	return b, nil
}

// Release terminates the backend of a claimed direction so that it can be
// claimed again.
func (h *Host) Release(dir Direction) error {
	h.Lock()
	b, ok := h.claimed[dir]
	delete(h.claimed, dir)
	h.Unlock()

	if !ok {
		return nil
	}
	return b.Terminate()
}

// Devices returns the properties of all devices known to the host API.
func (h *Host) Devices() ([]Info, error) {
	h.Lock()
	var b Backend
	for _, dir := range []Direction{Output, Input} {
		if cb, ok := h.claimed[dir]; ok {
			b = cb
			break
		}
	}
	h.Unlock()

	// borrow a claimed backend if possible, otherwise use a temporary one
	if b == nil {
		tb, err := h.newBackend()
		if err != nil {
			return nil, err
		}
		defer tb.Terminate()
		b = tb
	}

	infos := []Info{}
	for _, id := range b.DeviceIDs() {
		info, err := b.DeviceInfo(id)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
