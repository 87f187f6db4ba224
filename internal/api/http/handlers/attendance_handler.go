package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-registration/internal/api/dto"
	"github.com/spec-kit/event-registration/internal/service"
)

// AttendanceHandler serves door statistics for the committee dashboard.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Stats GET /attendance/stats.
func (h *AttendanceHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.attendance.Stats(c.UserContext())
	if err != nil {
		return err
	}
	liveGuest, liveSPH := h.attendance.LiveCounters(c.UserContext())
	return c.JSON(fiber.Map{"data": dto.AttendanceStatsResponse{
		GuestTotal:   stats.GuestTotal,
		GuestPresent: stats.GuestPresent,
		SPHTotal:     stats.SPHTotal,
		SPHPaid:      stats.SPHPaid,
		SPHPresent:   stats.SPHPresent,
		LiveGuest:    liveGuest,
		LiveSPH:      liveSPH,
	}})
}
