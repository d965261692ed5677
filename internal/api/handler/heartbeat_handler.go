package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

// HeartbeatHandler accepts session pings and hands them to the dispatcher.
type HeartbeatHandler struct {
	queue ports.HeartbeatQueue
}

func NewHeartbeatHandler(queue ports.HeartbeatQueue) *HeartbeatHandler {
	return &HeartbeatHandler{queue: queue}
}

// Create handles POST /session/heartbeat.
//
// The user is taken from the token, never from the body. Pings are
// processed asynchronously; a full queue answers 503 and the client simply
// tries again on its next tick.
//
// @Summary      Session heartbeat
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      heartbeatRequest  true  "Heartbeat"
// @Success      202   {object}  heartbeatResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /session/heartbeat [post]
func (h *HeartbeatHandler) Create(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req heartbeatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ok := h.queue.Enqueue(domain.Heartbeat{
		UserID:      user.ID,
		Fingerprint: req.Fingerprint,
		Device:      req.Device,
		SentAt:      req.SentAt,
	})
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "heartbeat queue full"})
	}
	return c.JSON(http.StatusAccepted, heartbeatResponse{Status: "accepted"})
}
