package webserver

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

type wsClient struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

func (web *WebServer) webSocketHdlr(w http.ResponseWriter, req *http.Request) {

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("unable to open ws for %v\n", req.RemoteAddr)
		return
	}

	c := &wsClient{
		id:   uuid.New().String(),
		ws:   conn,
		send: make(chan []byte, 8),
	}

	select {
	case web.addWsClient <- c:
	case <-web.closed:
		conn.Close()
		return
	}

	go web.wsWrite(c)
	go web.wsRead(c)
}

// hub keeps track of the websocket clients and distributes the state
// updates. Slow clients miss updates instead of blocking the hub.
func (web *WebServer) hub() {
	for {
		select {
		case c := <-web.addWsClient:
			log.Printf("WebSocket %s connected\n", c.id)
			web.wsClients[c] = true
			if data, err := json.Marshal(web.appState()); err == nil {
				c.send <- data
			}

		case c := <-web.removeWsClient:
			if _, ok := web.wsClients[c]; ok {
				log.Printf("WebSocket %s disconnected\n", c.id)
				delete(web.wsClients, c)
				close(c.send)
			}

		case data := <-web.broadcast:
			for c := range web.wsClients {
				select {
				case c.send <- data:
				default:
				}
			}

		case <-web.closed:
			for c := range web.wsClients {
				delete(web.wsClients, c)
				close(c.send)
			}
			return
		}
	}
}

func (web *WebServer) wsWrite(c *wsClient) {
	defer c.ws.Close()

	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Println(err)
			break
		}
	}
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

func (web *WebServer) wsRead(c *wsClient) {
	defer func() {
		select {
		case web.removeWsClient <- c:
		case <-web.closed:
		}
		c.ws.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		web.handleClientMsg(c, data)
	}
}

// handleClientMsg applies a PlayerState message received from a websocket
// client.
func (web *WebServer) handleClientMsg(c *wsClient, data []byte) {
	if web.player == nil {
		return
	}

	msg := PlayerState{}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("webserver: unable to unmarshal message from %s: %s\n", c.id, string(data))
		return
	}

	if msg.Volume != nil && *msg.Volume >= 0 {
		web.player.SetVolume(*msg.Volume)
	}
	if msg.Muted != nil {
		web.player.SetMuted(*msg.Muted)
	}
	if msg.Loop != nil {
		web.player.SetLoop(*msg.Loop)
	}
	if msg.Time != nil {
		web.player.SetTime(*msg.Time)
	}
	if msg.Playing != nil {
		var err error
		if *msg.Playing {
			err = web.player.Play()
		} else {
			err = web.player.Pause()
		}
		if err != nil {
			log.Println(err)
		}
	}

	web.updateWsClients()
}
