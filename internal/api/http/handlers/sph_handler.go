package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-registration/internal/api/dto"
	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/repository"
	"github.com/spec-kit/event-registration/internal/service"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

// SPHHandler manages Workshop-track endpoints.
type SPHHandler struct {
	registration *service.RegistrationService
	payments     *service.PaymentService
	attendance   *service.AttendanceService
	sph          repository.SPHRepository
}

// NewSPHHandler constructs handler.
func NewSPHHandler(registration *service.RegistrationService, payments *service.PaymentService, attendance *service.AttendanceService, sph repository.SPHRepository) *SPHHandler {
	return &SPHHandler{registration: registration, payments: payments, attendance: attendance, sph: sph}
}

// Register POST /sph-participants/register.
func (h *SPHHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterSPHRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	participant, err := h.registration.RegisterSPH(c.UserContext(), service.SPHRegistrationInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Organization:    req.Organization,
		ExperienceLevel: req.ExperienceLevel,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.RegisterSPHResponse{
		ID:          participant.ID,
		PaymentCode: participant.PaymentCode,
		Status:      participant.PaymentStatus,
		Amount:      participant.Amount,
	}})
}

// AcceptPayment PUT /sph-participants/:id/accept-payment.
func (h *SPHHandler) AcceptPayment(c *fiber.Ctx) error {
	var req dto.AcceptPaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	participant, err := h.payments.AcceptPayment(c.UserContext(), c.Params("id"), req.PaymentMethod)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sphParticipantResponse(participant)})
}

// RejectPayment PUT /sph-participants/:id/reject-payment.
func (h *SPHHandler) RejectPayment(c *fiber.Ctx) error {
	participant, err := h.payments.RejectPayment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sphParticipantResponse(participant)})
}

// ScanQR POST /sph-participants/scan-qr. Same verifier as the guest
// path; the payload namespace decides the lookup.
func (h *SPHHandler) ScanQR(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.attendance.Scan(c.UserContext(), req.QRCode)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scanResponse(result)})
}

// ResendTicket POST /sph-participants/:id/resend-ticket.
func (h *SPHHandler) ResendTicket(c *fiber.Ctx) error {
	entry, err := h.payments.ResendSPHTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ResendTicketResponse{
		OutboxID: entry.ID,
		Reason:   entry.Reason,
		Status:   entry.Status,
	}})
}

// List GET /sph-participants.
func (h *SPHHandler) List(c *fiber.Ctx) error {
	filter := repository.SPHFilter{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		payment := domain.PaymentStatus(strings.ToUpper(status))
		filter.PaymentStatus = &payment
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	participants, err := h.sph.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.SPHParticipantResponse, 0, len(participants))
	for i := range participants {
		items = append(items, sphParticipantResponse(&participants[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func sphParticipantResponse(p *domain.SPHParticipant) dto.SPHParticipantResponse {
	return dto.SPHParticipantResponse{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		Phone:           p.Phone,
		Organization:    p.Organization,
		ExperienceLevel: p.ExperienceLevel,
		Amount:          p.Amount,
		PaymentCode:     p.PaymentCode,
		PaymentStatus:   p.PaymentStatus,
		PaymentMethod:   p.PaymentMethod,
		Notes:           p.Notes,
		CheckedInAt:     p.CheckedInAt,
		CreatedAt:       p.CreatedAt,
	}
}
