package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/multiverse-rpg/world-engine/internal/constants"
	"github.com/multiverse-rpg/world-engine/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// subscribeMessage is one client command on the subscribe socket.
type subscribeMessage struct {
	Subscribe   string `json:"subscribe,omitempty"`
	Unsubscribe string `json:"unsubscribe,omitempty"`
}

// subscribe upgrades the connection and serves channel subscriptions until
// the client goes away. Events arrive as frames written by the hub.
func (a *API) subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", err, logging.Fields{
			constants.LogFieldAddr: c.Request.RemoteAddr,
		})
		return
	}
	sub := a.hub.Register(conn)
	defer a.hub.Drop(sub)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Subscribe != "" {
			a.hub.Subscribe(sub, msg.Subscribe)
		}
		if msg.Unsubscribe != "" {
			a.hub.Unsubscribe(sub, msg.Unsubscribe)
		}
	}
}
