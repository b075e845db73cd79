package controller

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

type createSlotRequest struct {
	ClassID          string  `json:"class_id" validate:"required"`
	CourseID         string  `json:"course_id" validate:"required"`
	TeacherID        string  `json:"teacher_id" validate:"required"`
	DayOfWeek        string  `json:"day_of_week" validate:"required"`
	StartTime        string  `json:"start_time" validate:"required,len=5"`
	EndTime          string  `json:"end_time" validate:"required,len=5"`
	Room             *string `json:"room"`
	Building         *string `json:"building"`
	RecurrenceType   string  `json:"recurrence_type"`
	EffectiveFrom    *string `json:"effective_from"`
	EffectiveTo      *string `json:"effective_to"`
	Notes            string  `json:"notes"`
	RequiresApproval bool    `json:"requires_approval"`
}

type updateSlotRequest struct {
	CourseID      *string `json:"course_id"`
	DayOfWeek     *string `json:"day_of_week"`
	StartTime     *string `json:"start_time" validate:"omitempty,len=5"`
	EndTime       *string `json:"end_time" validate:"omitempty,len=5"`
	Room          *string `json:"room"`
	Building      *string `json:"building"`
	EffectiveFrom *string `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
	Notes         *string `json:"notes"`
}

type generateRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// validationErrors собирает ошибки валидации в карту поле -> сообщение
func validationErrors(err error) map[string]string {
	fields := make(map[string]string)
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			fields[fe.Field()] = fmt.Sprintf("failed on %q validation", fe.Tag())
		}
	}
	return fields
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format: %q", s)
	}
	return date, nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	date, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
