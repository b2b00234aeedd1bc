package handler

import (
	"net/http"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	"pollbox/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// LiveHandler upgrades GET /v1/questions/:id/live to a websocket carrying
// tally updates for that question.
type LiveHandler struct {
	polls    *services.PollService
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewLiveHandler(polls *services.PollService, hub *ws.Hub) *LiveHandler {
	return &LiveHandler{
		polls: polls,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *LiveHandler) Live(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid question id", "INVALID_REQUEST"))
		return
	}

	if _, err := h.polls.GetQuestion(c.Request.Context(), questionID); err != nil {
		writeServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	ws.Serve(h.hub, questionID, conn)
}
