package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/timetable_service/internal/model"
)

// SlotStore хранилище регулярных слотов. Сервисы зависят от интерфейса,
// а не от конкретного репозитория: в тестах подставляются in-memory реализации
type SlotStore interface {
	Create(ctx context.Context, slot *model.ScheduleSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduleSlot, error)
	Update(ctx context.Context, slot *model.ScheduleSlot) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	SetApprovalStatus(ctx context.Context, id uuid.UUID, status model.ApprovalStatus, isActive bool) error
	FindActiveByTeacherAndDay(ctx context.Context, teacherID string, day model.Weekday, excludeID uuid.UUID) ([]*model.ScheduleSlot, error)
	FindActiveByRoomAndDay(ctx context.Context, room string, day model.Weekday, excludeID uuid.UUID) ([]*model.ScheduleSlot, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]*model.ScheduleSlot, error)
	ListByCourse(ctx context.Context, courseID string) ([]*model.ScheduleSlot, error)
	ListByDayAndRoom(ctx context.Context, day model.Weekday, room string) ([]*model.ScheduleSlot, error)
	ListActive(ctx context.Context) ([]*model.ScheduleSlot, error)
}

// SessionStore хранилище записей занятий. Занятиями владеет внешняя подсистема
// классов, планировщик только создаёт записи и проверяет дубликаты
type SessionStore interface {
	Create(ctx context.Context, session *model.SessionInstance) error
	ExistsForSlotAndStart(ctx context.Context, slotID uuid.UUID, start time.Time) (bool, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*model.SessionInstance, error)
}

// Directory внешний справочник: проверка существования преподавателей и курсов
type Directory interface {
	TeacherExists(ctx context.Context, teacherID string) (bool, error)
	CourseExists(ctx context.Context, courseID string) (bool, error)
}

// Authorizer внешняя проверка прав на управление расписанием
type Authorizer interface {
	CanManageSchedule(ctx context.Context, actorID string) (bool, error)
	CanAutoApprove(ctx context.Context, actorID string) (bool, error)
}
