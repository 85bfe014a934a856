package web

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tripbot/engine"
	gw "tripbot/gateway/gateway"
)

// MessageHandler is the synchronous webhook: one inbound message in, the
// rendered replies out.
func MessageHandler(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in gw.Inbound
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message payload"})
			return
		}
		if in.UserID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		replies := e.Handle(c.Request.Context(), in)
		c.JSON(http.StatusOK, gw.Outbound{UserID: in.UserID, Replies: replies})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// allow all origins for WebSocket connections
		// should only in dev
		return true
	},
}

// WebsocketHandler runs a chat connection: each frame is one inbound
// message, answered with one outbound frame.
func WebsocketHandler(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			var in gw.Inbound
			if err := conn.ReadJSON(&in); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket read failed: %v", err)
				}
				return
			}
			if in.UserID == 0 {
				if err := conn.WriteJSON(gin.H{"error": "user_id is required"}); err != nil {
					return
				}
				continue
			}

			replies := e.Handle(c.Request.Context(), in)
			if err := conn.WriteJSON(gw.Outbound{UserID: in.UserID, Replies: replies}); err != nil {
				log.Printf("websocket write failed: %v", err)
				return
			}
		}
	}
}
