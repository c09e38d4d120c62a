package webserver

import "github.com/dh1tw/audioEngine/audio/device"

// PlayerVolume is the message to read or change the player volume.
type PlayerVolume struct {
	Volume *float32 `json:"volume"`
}

// PlayerMuted is the message to read or change the mute state.
type PlayerMuted struct {
	Muted *bool `json:"muted"`
}

// PlayerLoop is the message to read or change looping.
type PlayerLoop struct {
	Loop *bool `json:"loop"`
}

// PlayerPlaying is the message to read or change the play intent.
type PlayerPlaying struct {
	Playing *bool `json:"playing"`
}

// PlayerTime is the message to read or change the playback position in
// seconds.
type PlayerTime struct {
	Time *float64 `json:"time"`
}

// PlayerState is the complete state of the player. It is also used by
// websocket clients to change several properties at once; nil fields are
// left untouched.
type PlayerState struct {
	Playing *bool    `json:"playing,omitempty"`
	Time    *float64 `json:"time,omitempty"`
	Volume  *float32 `json:"volume,omitempty"`
	Muted   *bool    `json:"muted,omitempty"`
	Loop    *bool    `json:"loop,omitempty"`
}

// RecorderSamples contains the most recent recorded samples.
type RecorderSamples struct {
	Samplerate int       `json:"samplerate"`
	Samples    []float32 `json:"samples"`
}

// RecorderLevel contains the audio level of the most recent samples.
type RecorderLevel struct {
	RMS  float32 `json:"rms"`
	Peak float32 `json:"peak"`
}

// RecorderDevice identifies the recording device.
type RecorderDevice struct {
	ID         device.ID `json:"id"`
	Name       string    `json:"name,omitempty"`
	Samplerate int       `json:"samplerate,omitempty"`
}

// ApplicationState is pushed to the websocket clients.
type ApplicationState struct {
	Player   *PlayerState    `json:"player,omitempty"`
	Recorder *RecorderDevice `json:"recorder,omitempty"`
}
