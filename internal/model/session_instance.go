package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus статус конкретного занятия
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
)

// LocationType тип места проведения занятия
type LocationType string

const (
	LocationOffline LocationType = "offline"
	LocationOnline  LocationType = "online"
)

// SessionInstance конкретное датированное занятие, развёрнутое из регулярного слота
type SessionInstance struct {
	ID            uuid.UUID     `json:"id"`
	SlotID        uuid.UUID     `json:"slot_id"`
	ClassID       string        `json:"class_id"`
	CourseID      string        `json:"course_id"`
	TeacherID     string        `json:"teacher_id"`
	Date          time.Time     `json:"date"`
	StartDatetime time.Time     `json:"start_datetime"`
	EndDatetime   time.Time     `json:"end_datetime"`
	Location      string        `json:"location"`
	LocationType  LocationType  `json:"location_type"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
