package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"plane-battle/internal/config"
	"plane-battle/internal/game"
	"plane-battle/internal/shared"
)

type ConfigHandler struct {
	cfg config.Config
}

func NewConfigHandler(cfg config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// GetGameConfigHandler returns the board constants
// @Summary Get game constants
// @Description Returns board size, plane count and room timers
// @Tags Config
// @Produce json
// @Success 200 {object} GameConfigResponse
// @Router /config [get]
func (h *ConfigHandler) GetGameConfigHandler(c *gin.Context) {
	c.JSON(http.StatusOK, GameConfigResponse{
		PlaneCount:         game.PlaneCount,
		Rows:               game.Rows,
		Columns:            strings.Split(game.Columns, ""),
		MaxPlayers:         shared.MaxPlayers,
		RoomGraceSeconds:   int(h.cfg.RoomGracePeriod.Seconds()),
		RoomsListIntervalS: int(h.cfg.RoomsListInterval.Seconds()),
	})
}
