package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus статус согласования слота
type ApprovalStatus string

const (
	ApprovalStatusPending      ApprovalStatus = "pending"       // Ожидает решения согласующего
	ApprovalStatusApproved     ApprovalStatus = "approved"      // Согласован вручную
	ApprovalStatusRejected     ApprovalStatus = "rejected"      // Отклонён (терминальный статус)
	ApprovalStatusAutoApproved ApprovalStatus = "auto_approved" // Согласован автоматически
)

// RecurrenceType тип повторения слота
type RecurrenceType string

const (
	RecurrenceWeekly RecurrenceType = "weekly"
)

// ScheduleSlot регулярный недельный слот занятия.
// Время хранится как "HH:MM", интервал полуоткрытый: [StartTime, EndTime)
type ScheduleSlot struct {
	ID               uuid.UUID       `json:"id"`
	ClassID          string          `json:"class_id"`
	CourseID         string          `json:"course_id"`
	TeacherID        string          `json:"teacher_id"`
	DayOfWeek        Weekday         `json:"day_of_week"`
	StartTime        string          `json:"start_time"` // "HH:MM"
	EndTime          string          `json:"end_time"`   // "HH:MM"
	Room             *string         `json:"room"`
	Building         *string         `json:"building"`
	RecurrenceType   RecurrenceType  `json:"recurrence_type"`
	EffectiveFrom    *time.Time      `json:"effective_from"`
	EffectiveTo      *time.Time      `json:"effective_to"`
	IsActive         bool            `json:"is_active"`
	RequiresApproval bool            `json:"requires_approval"`
	ApprovalStatus   *ApprovalStatus `json:"approval_status"` // nil когда согласование не требуется
	Notes            string          `json:"notes"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Location собирает строку места проведения из аудитории и корпуса
func (s *ScheduleSlot) Location() string {
	if !s.HasRoom() {
		return ""
	}
	if s.Building != nil && *s.Building != "" {
		return *s.Building + ", " + *s.Room
	}
	return *s.Room
}

// HasRoom проверяет что у слота задана аудитория
func (s *ScheduleSlot) HasRoom() bool {
	return s.Room != nil && *s.Room != ""
}
