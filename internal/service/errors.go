package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/timetable_service/internal/model"
)

// Бизнес-ошибки расписания. Контроллер маппит их на HTTP-статусы через errors.Is/As
var (
	ErrSlotNotFound        = errors.New("schedule slot not found")
	ErrTeacherNotFound     = errors.New("teacher not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrNotAuthorized       = errors.New("actor is not allowed to manage the schedule")
	ErrInvalidTimeRange    = errors.New("end time must be after start time")
	ErrInvalidDateRange    = errors.New("end date must be after start date")
	ErrInvalidRecurrence   = errors.New("unsupported recurrence type")
	ErrApprovalNotRequired = errors.New("slot does not require approval")
	ErrNotPending          = errors.New("slot is not pending approval")
	ErrSlotInactive        = errors.New("slot is not active")
)

// ConflictError двойное бронирование преподавателя или аудитории.
// Несёт пересёкшийся слот, чтобы вызывающий мог показать с чем именно конфликт
type ConflictError struct {
	Conflict *model.Conflict
}

func (e *ConflictError) Error() string {
	with := e.Conflict.With
	return fmt.Sprintf("%s conflict with slot %s (course %s, %s %s-%s)",
		e.Conflict.Kind, with.ID, with.CourseID, with.DayOfWeek, with.StartTime, with.EndTime)
}
