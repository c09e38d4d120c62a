// Package webserver exposes a running player and recorder through a REST
// api and pushes the player state to websocket clients.
package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sync"

	"github.com/dh1tw/audioEngine/audio"
	"github.com/dh1tw/audioEngine/audio/device"
	"github.com/gorilla/mux"
)

// Player is the part of the playback engine controlled through the
// webserver.
type Player interface {
	Properties() audio.Properties
	SetVolume(float32)
	SetMuted(bool)
	SetLoop(bool)
	Play() error
	Pause() error
	IsPlaying() bool
	SetTime(float64)
	Time() float64
}

// Recorder is the part of the capture engine exposed through the
// webserver.
type Recorder interface {
	ForEachSample(count int, fn func(float32))
	Level(count int) (rms, peak float32)
	Samplerate() int
	Device() device.ID
	CurrentDeviceName() string
	DeviceIDs() []device.ID
	DeviceInfo(device.ID) (device.Info, error)
	SetDevice(device.ID) error
}

// WebServer serves the REST api and the websocket endpoint. Either the
// player or the recorder may be nil; their routes are not registered then.
type WebServer struct {
	url        string
	router     *mux.Router
	server     *http.Server
	apiVersion string
	apiMatch   *regexp.Regexp
	player     Player
	recorder   Recorder

	wsClients      map[*wsClient]bool
	addWsClient    chan *wsClient
	removeWsClient chan *wsClient
	broadcast      chan []byte
	closed         chan struct{}
	closeOnce      sync.Once
}

// NewWebServer returns a WebServer listening on host:port. The websocket
// hub is running once NewWebServer returns.
func NewWebServer(host string, port int, p Player, r Recorder) (*WebServer, error) {

	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("invalid http port %d", port)
	}

	web := &WebServer{
		url:            fmt.Sprintf("%s:%d", host, port),
		router:         mux.NewRouter().StrictSlash(true),
		apiVersion:     "1.0",
		apiMatch:       regexp.MustCompile(`api\/v\d\.\d\/`),
		player:         p,
		recorder:       r,
		wsClients:      make(map[*wsClient]bool),
		addWsClient:    make(chan *wsClient),
		removeWsClient: make(chan *wsClient),
		broadcast:      make(chan []byte),
		closed:         make(chan struct{}),
	}

	web.routes()

	web.server = &http.Server{
		Addr:    web.url,
		Handler: web.Handler(),
	}

	go web.hub()

	return web, nil
}

// Handler returns the http.Handler with all routes of the webserver.
func (web *WebServer) Handler() http.Handler {
	return web.apiRedirectRouter(web.router)
}

// Start listens on the configured address. It blocks until the server is
// shut down.
func (web *WebServer) Start() error {
	log.Printf("webserver listening on http://%s\n", web.url)
	if err := web.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, closes all websocket connections and stops the
// hub.
func (web *WebServer) Shutdown(ctx context.Context) error {
	web.closeOnce.Do(func() { close(web.closed) })
	return web.server.Shutdown(ctx)
}

// UpdateState pushes the current application state to all websocket
// clients. It should be called whenever the state has changed outside of
// the webserver (e.g. the player time has advanced).
func (web *WebServer) UpdateState() {
	web.updateWsClients()
}

func (web *WebServer) appState() ApplicationState {
	state := ApplicationState{}

	if web.player != nil {
		props := web.player.Properties()
		playing := web.player.IsPlaying()
		t := web.player.Time()
		state.Player = &PlayerState{
			Playing: &playing,
			Time:    &t,
			Volume:  &props.Volume,
			Muted:   &props.IsMuted,
			Loop:    &props.Loop,
		}
	}

	if web.recorder != nil {
		state.Recorder = &RecorderDevice{
			ID:         web.recorder.Device(),
			Name:       web.recorder.CurrentDeviceName(),
			Samplerate: web.recorder.Samplerate(),
		}
	}

	return state
}

func (web *WebServer) updateWsClients() {
	data, err := json.Marshal(web.appState())
	if err != nil {
		log.Println(err)
		return
	}

	select {
	case web.broadcast <- data:
	case <-web.closed:
	}
}
