package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-registration/internal/api/dto"
	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/repository"
	"github.com/spec-kit/event-registration/internal/service"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

// ParticipantsHandler manages Guest-track endpoints.
type ParticipantsHandler struct {
	registration *service.RegistrationService
	attendance   *service.AttendanceService
	guests       repository.GuestRepository
}

// NewParticipantsHandler constructs handler.
func NewParticipantsHandler(registration *service.RegistrationService, attendance *service.AttendanceService, guests repository.GuestRepository) *ParticipantsHandler {
	return &ParticipantsHandler{registration: registration, attendance: attendance, guests: guests}
}

// Register POST /participants.
func (h *ParticipantsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterParticipantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	participant, err := h.registration.RegisterGuest(c.UserContext(), service.GuestRegistrationInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Organization: req.Organization,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": participantResponse(participant)})
}

// ScanQR POST /participants/scan-qr.
func (h *ParticipantsHandler) ScanQR(c *fiber.Ctx) error {
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

// ResendTicket POST /participants/:id/resend-ticket.
func (h *ParticipantsHandler) ResendTicket(c *fiber.Ctx) error {
	entry, err := h.registration.ResendGuestTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ResendTicketResponse{
		OutboxID: entry.ID,
		Reason:   entry.Reason,
		Status:   entry.Status,
	}})
}

// List GET /participants.
func (h *ParticipantsHandler) List(c *fiber.Ctx) error {
	filter := repository.GuestFilter{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		attendance := domain.AttendanceStatus(strings.ToUpper(status))
		filter.AttendanceStatus = &attendance
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	participants, err := h.guests.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ParticipantResponse, 0, len(participants))
	for i := range participants {
		items = append(items, participantResponse(&participants[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func participantResponse(p *domain.Participant) dto.ParticipantResponse {
	return dto.ParticipantResponse{
		ID:                p.ID,
		Name:              p.Name,
		Email:             p.Email,
		Phone:             p.Phone,
		Organization:      p.Organization,
		VerificationToken: p.VerificationToken,
		QRPayload:         p.QRPayload,
		AttendanceStatus:  p.AttendanceStatus,
		IsVerified:        p.IsVerified,
		CheckedInAt:       p.CheckedInAt,
		CreatedAt:         p.CreatedAt,
	}
}

func scanResponse(result *service.ScanResult) dto.ScanResponse {
	resp := dto.ScanResponse{
		Track:       result.Track,
		CheckedInAt: result.CheckedInAt,
	}
	if result.Guest != nil {
		guest := participantResponse(result.Guest)
		resp.Guest = &guest
	}
	if result.SPH != nil {
		sph := sphParticipantResponse(result.SPH)
		resp.SPH = &sph
	}
	return resp
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
