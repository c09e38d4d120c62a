package webserver

func (web *WebServer) routes() {
	if web.player != nil {
		web.router.HandleFunc("/api/v1.0/player/volume", web.volumeHdlr)
		web.router.HandleFunc("/api/v1.0/player/muted", web.mutedHdlr)
		web.router.HandleFunc("/api/v1.0/player/loop", web.loopHdlr)
		web.router.HandleFunc("/api/v1.0/player/state", web.playingHdlr)
		web.router.HandleFunc("/api/v1.0/player/time", web.timeHdlr)
	}
	if web.recorder != nil {
		web.router.HandleFunc("/api/v1.0/recorder/samples", web.samplesHdlr).Methods("GET")
		web.router.HandleFunc("/api/v1.0/recorder/level", web.levelHdlr).Methods("GET")
		web.router.HandleFunc("/api/v1.0/recorder/devices", web.devicesHdlr).Methods("GET")
		web.router.HandleFunc("/api/v1.0/recorder/device", web.deviceHdlr)
	}
	web.router.HandleFunc("/api/v1.0/state", web.stateHdlr).Methods("GET")
	web.router.HandleFunc("/ws", web.webSocketHdlr)
}
