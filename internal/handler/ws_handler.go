package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/yaycha/internal/hub"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/middleware"
	"github.com/weiawesome/yaycha/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades authenticated clients onto the notification hub.
type WSHandler struct {
	hub  *hub.Hub
	auth *middleware.AuthMiddleware
}

func NewWSHandler(h *hub.Hub, auth *middleware.AuthMiddleware) *WSHandler {
	return &WSHandler{hub: h, auth: auth}
}

// RegisterRoutes registers all routes.
func (h *WSHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/subscribe", h.Subscribe)
}

// Subscribe authenticates with ?token= or a bearer header, since browsers
// cannot set headers on websocket requests.
func (h *WSHandler) Subscribe(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	token := c.Query("token")
	if token == "" {
		var err error
		if token, err = middleware.BearerToken(c); err != nil {
			response.Unauthorized(c, "token required")
			return
		}
	}

	claims, err := h.auth.Validate(token)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn, claims.UserID)
	if err := h.hub.Register(client); err != nil {
		l.Warn().Err(err).Msg("rejecting websocket client")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	l.Info().Uint(log.FieldUserID, claims.UserID).Str("client_id", client.ID).Msg("websocket client connected")

	go client.WritePump()
	go client.ReadPump()
}
