package handlers

import (
	"io"
	"net/http"

	ws "four-line-dropper/backend/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// maxRequestBody bounds protocol request bodies; every valid message is tiny.
const maxRequestBody = 16 * 1024

// RegisterRoutes wires the protocol endpoint on both the root path (what the
// game client posts to) and /api, plus the websocket transport.
func RegisterRoutes(r *gin.Engine, api *API, reg *ws.Registry) {
	post := PostHandler(api)
	r.POST("/", post)
	r.POST("/api", post)
	r.GET("/ws", WebSocketHandler(api, reg))
}

// PostHandler answers one protocol message per POST. The reply is always
// HTTP 200; protocol failures are reported in the body's status field.
func PostHandler(api *API) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
		if err != nil {
			c.Data(http.StatusOK, "application/json", marshal(response{Type: "invalid_syntax"}))
			return
		}
		c.Data(http.StatusOK, "application/json", api.Dispatch(body))
	}
}
