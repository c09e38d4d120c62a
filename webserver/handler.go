package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/dh1tw/audioEngine/audio/device"
)

// defaultWindow is the amount of samples returned by the recorder
// endpoints if the request does not specify a count.
const defaultWindow = 256

// maxWindow limits the amount of samples per request.
const maxWindow = 1 << 16

func encode(w http.ResponseWriter, msg interface{}) {
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("500 - unable to encode %T msg", msg)))
	}
}

// decode reads a JSON message from the request body. It writes the error
// response and returns false if the body is invalid.
func decode(w http.ResponseWriter, req *http.Request, msg interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(msg); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid JSON"))
		return false
	}
	return true
}

func invalidRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte("400 - invalid Request"))
}

func (web *WebServer) volumeHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		volume := web.player.Properties().Volume
		encode(w, &PlayerVolume{Volume: &volume})

	case "PUT":
		var volCtlMsg PlayerVolume
		if !decode(w, req, &volCtlMsg) {
			return
		}
		if volCtlMsg.Volume == nil || *volCtlMsg.Volume < 0 {
			invalidRequest(w)
			return
		}
		web.player.SetVolume(*volCtlMsg.Volume)
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) mutedHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		muted := web.player.Properties().IsMuted
		encode(w, &PlayerMuted{Muted: &muted})

	case "PUT":
		var mutedCtlMsg PlayerMuted
		if !decode(w, req, &mutedCtlMsg) {
			return
		}
		if mutedCtlMsg.Muted == nil {
			invalidRequest(w)
			return
		}
		web.player.SetMuted(*mutedCtlMsg.Muted)
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) loopHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		loop := web.player.Properties().Loop
		encode(w, &PlayerLoop{Loop: &loop})

	case "PUT":
		var loopCtlMsg PlayerLoop
		if !decode(w, req, &loopCtlMsg) {
			return
		}
		if loopCtlMsg.Loop == nil {
			invalidRequest(w)
			return
		}
		web.player.SetLoop(*loopCtlMsg.Loop)
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) playingHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		playing := web.player.IsPlaying()
		encode(w, &PlayerPlaying{Playing: &playing})

	case "PUT":
		var stateCtlMsg PlayerPlaying
		if !decode(w, req, &stateCtlMsg) {
			return
		}
		if stateCtlMsg.Playing == nil {
			invalidRequest(w)
			return
		}
		var err error
		if *stateCtlMsg.Playing {
			err = web.player.Play()
		} else {
			err = web.player.Pause()
		}
		if err != nil {
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf("500 - unable to change player state to %v", *stateCtlMsg.Playing)))
		}
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) timeHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		t := web.player.Time()
		encode(w, &PlayerTime{Time: &t})

	case "PUT":
		var timeCtlMsg PlayerTime
		if !decode(w, req, &timeCtlMsg) {
			return
		}
		if timeCtlMsg.Time == nil {
			invalidRequest(w)
			return
		}
		web.player.SetTime(*timeCtlMsg.Time)
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// windowSize parses the optional "count" query parameter.
func windowSize(req *http.Request) (int, error) {
	c := req.URL.Query().Get("count")
	if c == "" {
		return defaultWindow, nil
	}
	count, err := strconv.Atoi(c)
	if err != nil || count < 0 || count > maxWindow {
		return 0, fmt.Errorf("invalid count %q", c)
	}
	return count, nil
}

func (web *WebServer) samplesHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	count, err := windowSize(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - " + err.Error()))
		return
	}

	msg := &RecorderSamples{
		Samplerate: web.recorder.Samplerate(),
		Samples:    make([]float32, 0, count),
	}
	web.recorder.ForEachSample(count, func(s float32) {
		msg.Samples = append(msg.Samples, s)
	})

	encode(w, msg)
}

func (web *WebServer) levelHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	count, err := windowSize(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - " + err.Error()))
		return
	}

	rms, peak := web.recorder.Level(count)
	encode(w, &RecorderLevel{RMS: rms, Peak: peak})
}

func (web *WebServer) devicesHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	devices := []device.Info{}
	for _, id := range web.recorder.DeviceIDs() {
		info, err := web.recorder.DeviceInfo(id)
		if err != nil {
			log.Println(err)
			continue
		}
		devices = append(devices, info)
	}

	encode(w, devices)
}

func (web *WebServer) deviceHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		encode(w, &RecorderDevice{
			ID:         web.recorder.Device(),
			Name:       web.recorder.CurrentDeviceName(),
			Samplerate: web.recorder.Samplerate(),
		})

	case "PUT":
		var deviceCtlMsg RecorderDevice
		if !decode(w, req, &deviceCtlMsg) {
			return
		}
		err := web.recorder.SetDevice(deviceCtlMsg.ID)
		switch {
		case err == nil:
		case errors.Is(err, device.ErrNoDevice),
			errors.Is(err, device.ErrUnknownDevice),
			errors.Is(err, device.ErrNoInputChannels):
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - " + err.Error()))
		default:
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to set recording device"))
		}
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) stateHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	encode(w, web.appState())
}
