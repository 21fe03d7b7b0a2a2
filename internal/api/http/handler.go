package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plane-battle/internal/api/ws"
	"plane-battle/internal/room"
)

// @Summary List open rooms
// @Description Rooms that have not started and still have a free seat
// @Tags Room
// @Produce json
// @Success 200 {array} shared.RoomSummary
// @Router /rooms [get]
func ListRoomsHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rm.RoomSummaries()})
	}
}

// @Summary Get room
// @Description Roster and match state of one room, without plane layouts
// @Tags Room
// @Produce json
// @Param code path string true "Room Code"
// @Success 200 {object} RoomResponse
// @Router /rooms/{code} [get]
func GetRoomHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := rm.Snapshot(c.Param("code"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, toRoomResponse(snap))
	}
}

func HealthHandler(rm *room.Manager, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:      "ok",
			Rooms:       rm.RoomCount(),
			Connections: hub.ClientCount(),
		})
	}
}
