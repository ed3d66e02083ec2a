package server

import (
	"time"

	"banterbus/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// SweepDisconnectedPlayers removes every player whose disconnect grace
// period has expired and returns the ids of those removed.
func (s *Server) SweepDisconnectedPlayers(c *fiber.Ctx) error {
	grace := time.Duration(s.config.DisconnectTimerInSeconds) * time.Second
	removed, err := s.playerService.SweepDisconnected(c.Context(), grace)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to sweep disconnected players",
		})
	}

	ids := make([]string, 0, len(removed))
	for _, player := range removed {
		ids = append(ids, player.PlayerID)
	}
	observability.DisconnectSweepRemovals.Add(float64(len(ids)))

	return c.JSON(fiber.Map{"players_removed": ids})
}
