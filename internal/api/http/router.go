package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-registration/internal/api/http/handlers"
	"github.com/spec-kit/event-registration/internal/auth"
	"github.com/spec-kit/event-registration/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Participants   *handlers.ParticipantsHandler
	SPH            *handlers.SPHHandler
	Attendance     *handlers.AttendanceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Public registration endpoints.
	app.Post("/participants", cfg.Participants.Register)
	app.Post("/sph-participants/register", cfg.SPH.Register)

	// Operator endpoints. Check-in scanning and resends are open to committee
	// members; payment decisions are restricted to admins.
	operator := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())

	operator.Get("/participants", cfg.Participants.List)
	operator.Post("/participants/scan-qr", cfg.Participants.ScanQR)
	operator.Post("/participants/:id/resend-ticket", cfg.Participants.ResendTicket)

	operator.Get("/sph-participants", cfg.SPH.List)
	operator.Post("/sph-participants/scan-qr", cfg.SPH.ScanQR)
	operator.Post("/sph-participants/:id/resend-ticket", cfg.SPH.ResendTicket)

	operator.Get("/attendance/stats", cfg.Attendance.Stats)

	admin := operator.Group("", auth.RequireRole(domain.AdminRoleAdmin))
	admin.Put("/sph-participants/:id/accept-payment", cfg.SPH.AcceptPayment)
	admin.Put("/sph-participants/:id/reject-payment", cfg.SPH.RejectPayment)
}
