package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/model"
	"github.com/Freeeeeet/timetable_service/internal/service"
	"github.com/Freeeeeet/timetable_service/internal/timeutil"
)

const actorHeader = "X-Actor-ID"

// ScheduleHandler HTTP-обработчики операций расписания
type ScheduleHandler struct {
	schedule   *service.ScheduleService
	generation *service.GenerationService
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewScheduleHandler(schedule *service.ScheduleService, generation *service.GenerationService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		schedule:   schedule,
		generation: generation,
		validate:   validator.New(),
		logger:     logger,
	}
}

// CreateSlot POST /api/schedule/slots
func (h *ScheduleHandler) CreateSlot(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req createSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "validation failed", validationErrors(err))
	}

	effectiveFrom, err := parseOptionalDate(req.EffectiveFrom)
	if err != nil {
		return badRequest(c, err.Error(), map[string]string{"effective_from": err.Error()})
	}
	effectiveTo, err := parseOptionalDate(req.EffectiveTo)
	if err != nil {
		return badRequest(c, err.Error(), map[string]string{"effective_to": err.Error()})
	}

	slot, err := h.schedule.CreateSlot(c.Context(), service.CreateSlotInput{
		ClassID:          req.ClassID,
		CourseID:         req.CourseID,
		TeacherID:        req.TeacherID,
		DayOfWeek:        req.DayOfWeek,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Room:             req.Room,
		Building:         req.Building,
		RecurrenceType:   req.RecurrenceType,
		EffectiveFrom:    effectiveFrom,
		EffectiveTo:      effectiveTo,
		Notes:            req.Notes,
		RequiresApproval: req.RequiresApproval,
		CreatedBy:        actor,
	})
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": slot})
}

// UpdateSlot PATCH /api/schedule/slots/:id
func (h *ScheduleHandler) UpdateSlot(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := slotID(c)
	if err != nil {
		return err
	}

	var req updateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "validation failed", validationErrors(err))
	}

	effectiveFrom, err := parseOptionalDate(req.EffectiveFrom)
	if err != nil {
		return badRequest(c, err.Error(), map[string]string{"effective_from": err.Error()})
	}
	effectiveTo, err := parseOptionalDate(req.EffectiveTo)
	if err != nil {
		return badRequest(c, err.Error(), map[string]string{"effective_to": err.Error()})
	}

	slot, err := h.schedule.UpdateSlot(c.Context(), id, service.UpdateSlotInput{
		CourseID:      req.CourseID,
		DayOfWeek:     req.DayOfWeek,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Room:          req.Room,
		Building:      req.Building,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Notes:         req.Notes,
		Actor:         actor,
	})
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": slot})
}

// DeactivateSlot DELETE /api/schedule/slots/:id
func (h *ScheduleHandler) DeactivateSlot(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := slotID(c)
	if err != nil {
		return err
	}

	if err := h.schedule.DeactivateSlot(c.Context(), id, actor); err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "slot deactivated"})
}

// ApproveSlot POST /api/schedule/slots/:id/approve
func (h *ScheduleHandler) ApproveSlot(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := slotID(c)
	if err != nil {
		return err
	}

	slot, err := h.schedule.ApproveSlot(c.Context(), id, actor)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": slot})
}

// RejectSlot POST /api/schedule/slots/:id/reject
func (h *ScheduleHandler) RejectSlot(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	id, err := slotID(c)
	if err != nil {
		return err
	}

	slot, err := h.schedule.RejectSlot(c.Context(), id, actor)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": slot})
}

// GenerateInstances POST /api/schedule/slots/:id/generate
func (h *ScheduleHandler) GenerateInstances(c *fiber.Ctx) error {
	if _, err := requireActor(c); err != nil {
		return err
	}

	id, err := slotID(c)
	if err != nil {
		return err
	}

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "validation failed", validationErrors(err))
	}

	from, err := parseDate(req.StartDate)
	if err != nil {
		return badRequest(c, err.Error(), map[string]string{"start_date": err.Error()})
	}
	to, err := parseDate(req.EndDate)
	if err != nil {
		return badRequest(c, err.Error(), map[string]string{"end_date": err.Error()})
	}

	result, err := h.generation.GenerateInstances(c.Context(), id, from, to)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": result})
}

// CheckConflict GET /api/schedule/conflict-check
func (h *ScheduleHandler) CheckConflict(c *fiber.Ctx) error {
	teacherID := c.Query("teacher_id")
	dayOfWeek := c.Query("day_of_week")
	startTime := c.Query("start_time")
	endTime := c.Query("end_time")
	if teacherID == "" || dayOfWeek == "" || startTime == "" || endTime == "" {
		return badRequest(c, "teacher_id, day_of_week, start_time and end_time are required", nil)
	}

	var room *string
	if r := c.Query("room"); r != "" {
		room = &r
	}

	excludeID := uuid.Nil
	if raw := c.Query("exclude_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid exclude_id", nil)
		}
		excludeID = parsed
	}

	conflict, err := h.schedule.CheckConflict(c.Context(), teacherID, dayOfWeek, startTime, endTime, room, excludeID)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"conflict": conflict}})
}

// GetSlot GET /api/schedule/slots/:id
func (h *ScheduleHandler) GetSlot(c *fiber.Ctx) error {
	id, err := slotID(c)
	if err != nil {
		return err
	}

	slot, err := h.schedule.GetSlot(c.Context(), id)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": slot})
}

// ListSessions GET /api/schedule/slots/:id/sessions
func (h *ScheduleHandler) ListSessions(c *fiber.Ctx) error {
	id, err := slotID(c)
	if err != nil {
		return err
	}

	sessions, err := h.generation.ListSessions(c.Context(), id)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": sessions})
}

// ListByTeacher GET /api/schedule/teachers/:id/slots
func (h *ScheduleHandler) ListByTeacher(c *fiber.Ctx) error {
	slots, err := h.schedule.ListByTeacher(c.Context(), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": slots})
}

// ListByCourse GET /api/schedule/courses/:id/slots
func (h *ScheduleHandler) ListByCourse(c *fiber.Ctx) error {
	slots, err := h.schedule.ListByCourse(c.Context(), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": slots})
}

// Timetable GET /api/schedule/timetable
func (h *ScheduleHandler) Timetable(c *fiber.Ctx) error {
	day := c.Query("day")
	room := c.Query("room")

	// Отдельный запрос "день + аудитория" и общая недельная сетка
	if day != "" && room != "" {
		slots, err := h.schedule.ListByDayAndRoom(c.Context(), day, room)
		if err != nil {
			return h.serviceError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "data": slots})
	}

	timetable, err := h.schedule.WeeklyTimetable(c.Context(), service.TimetableFilter{
		TeacherID: c.Query("teacher_id"),
		CourseID:  c.Query("course_id"),
		Room:      room,
	})
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": timetable})
}

// serviceError маппит бизнес-ошибки на HTTP-статусы
func (h *ScheduleHandler) serviceError(c *fiber.Ctx, err error) error {
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": conflictErr.Error(),
			"data":    conflictErr.Conflict,
		})
	}

	switch {
	case errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrTeacherNotFound),
		errors.Is(err, service.ErrCourseNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		return jsonError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrApprovalNotRequired),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrSlotInactive):
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, timeutil.ErrBadTimeFormat),
		errors.Is(err, model.ErrUnknownWeekday),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidRecurrence):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	h.logger.Error("Unhandled service error", zap.Error(err))
	return jsonError(c, fiber.StatusInternalServerError, "internal server error")
}

func requireActor(c *fiber.Ctx) (string, error) {
	actor := c.Get(actorHeader)
	if actor == "" {
		return "", jsonError(c, fiber.StatusUnauthorized, "missing "+actorHeader+" header")
	}
	return actor, nil
}

func slotID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, badRequest(c, "invalid slot id", nil)
	}
	return id, nil
}

func badRequest(c *fiber.Ctx, message string, fields map[string]string) error {
	body := fiber.Map{"success": false, "message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}
