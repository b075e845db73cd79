package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/timetable_service/internal/model"
)

// mockSlotStore in-memory реализация SlotStore для тестов сервисов.
// setApprovalHook имитирует гонку при записи статуса согласования:
// вызывается перед записью, ненулевая ошибка отменяет её
type mockSlotStore struct {
	slots           map[uuid.UUID]*model.ScheduleSlot
	setApprovalHook func() error
}

func newMockSlotStore() *mockSlotStore {
	return &mockSlotStore{slots: make(map[uuid.UUID]*model.ScheduleSlot)}
}

func (m *mockSlotStore) Create(_ context.Context, slot *model.ScheduleSlot) error {
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	stored := *slot
	m.slots[slot.ID] = &stored
	return nil
}

func (m *mockSlotStore) GetByID(_ context.Context, id uuid.UUID) (*model.ScheduleSlot, error) {
	if slot, ok := m.slots[id]; ok {
		copied := *slot
		return &copied, nil
	}
	return nil, nil
}

func (m *mockSlotStore) Update(_ context.Context, slot *model.ScheduleSlot) error {
	if _, ok := m.slots[slot.ID]; !ok {
		return errors.New("slot not found")
	}
	slot.UpdatedAt = time.Now()
	stored := *slot
	m.slots[slot.ID] = &stored
	return nil
}

func (m *mockSlotStore) Deactivate(_ context.Context, id uuid.UUID) error {
	slot, ok := m.slots[id]
	if !ok {
		return errors.New("slot not found")
	}
	slot.IsActive = false
	return nil
}

func (m *mockSlotStore) SetApprovalStatus(_ context.Context, id uuid.UUID, status model.ApprovalStatus, isActive bool) error {
	if m.setApprovalHook != nil {
		if err := m.setApprovalHook(); err != nil {
			return err
		}
	}
	slot, ok := m.slots[id]
	if !ok {
		return errors.New("slot not found")
	}
	slot.ApprovalStatus = &status
	slot.IsActive = isActive
	return nil
}

func (m *mockSlotStore) FindActiveByTeacherAndDay(_ context.Context, teacherID string, day model.Weekday, excludeID uuid.UUID) ([]*model.ScheduleSlot, error) {
	var result []*model.ScheduleSlot
	for _, slot := range m.slots {
		if slot.IsActive && slot.TeacherID == teacherID && slot.DayOfWeek == day && slot.ID != excludeID {
			copied := *slot
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockSlotStore) FindActiveByRoomAndDay(_ context.Context, room string, day model.Weekday, excludeID uuid.UUID) ([]*model.ScheduleSlot, error) {
	var result []*model.ScheduleSlot
	for _, slot := range m.slots {
		if slot.IsActive && slot.Room != nil && *slot.Room == room && slot.DayOfWeek == day && slot.ID != excludeID {
			copied := *slot
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockSlotStore) ListByTeacher(_ context.Context, teacherID string) ([]*model.ScheduleSlot, error) {
	var result []*model.ScheduleSlot
	for _, slot := range m.slots {
		if slot.TeacherID == teacherID {
			copied := *slot
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockSlotStore) ListByCourse(_ context.Context, courseID string) ([]*model.ScheduleSlot, error) {
	var result []*model.ScheduleSlot
	for _, slot := range m.slots {
		if slot.CourseID == courseID {
			copied := *slot
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockSlotStore) ListByDayAndRoom(_ context.Context, day model.Weekday, room string) ([]*model.ScheduleSlot, error) {
	var result []*model.ScheduleSlot
	for _, slot := range m.slots {
		if slot.IsActive && slot.DayOfWeek == day && slot.Room != nil && *slot.Room == room {
			copied := *slot
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockSlotStore) ListActive(_ context.Context) ([]*model.ScheduleSlot, error) {
	var result []*model.ScheduleSlot
	for _, slot := range m.slots {
		if slot.IsActive {
			copied := *slot
			result = append(result, &copied)
		}
	}
	return result, nil
}

// mockSessionStore in-memory реализация SessionStore.
// failOn позволяет сымитировать отказ создания занятия на конкретную дату
type mockSessionStore struct {
	sessions []*model.SessionInstance
	failOn   map[string]error // ключ — дата "2006-01-02"
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{failOn: make(map[string]error)}
}

func (m *mockSessionStore) Create(_ context.Context, session *model.SessionInstance) error {
	if err, ok := m.failOn[session.Date.Format("2006-01-02")]; ok {
		return err
	}
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	stored := *session
	m.sessions = append(m.sessions, &stored)
	return nil
}

func (m *mockSessionStore) ExistsForSlotAndStart(_ context.Context, slotID uuid.UUID, start time.Time) (bool, error) {
	for _, session := range m.sessions {
		if session.SlotID == slotID && session.StartDatetime.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSessionStore) ListBySlot(_ context.Context, slotID uuid.UUID) ([]*model.SessionInstance, error) {
	var result []*model.SessionInstance
	for _, session := range m.sessions {
		if session.SlotID == slotID {
			copied := *session
			result = append(result, &copied)
		}
	}
	return result, nil
}

// mockDirectory справочник с фиксированными наборами преподавателей и курсов
type mockDirectory struct {
	teachers map[string]bool
	courses  map[string]bool
}

func newMockDirectory(teachers ...string) *mockDirectory {
	d := &mockDirectory{teachers: make(map[string]bool), courses: make(map[string]bool)}
	for _, t := range teachers {
		d.teachers[t] = true
	}
	return d
}

func (m *mockDirectory) addCourses(courses ...string) *mockDirectory {
	for _, c := range courses {
		m.courses[c] = true
	}
	return m
}

func (m *mockDirectory) TeacherExists(_ context.Context, teacherID string) (bool, error) {
	return m.teachers[teacherID], nil
}

func (m *mockDirectory) CourseExists(_ context.Context, courseID string) (bool, error) {
	return m.courses[courseID], nil
}

// mockAuthorizer права акторов
type mockAuthorizer struct {
	managers     map[string]bool
	autoApprover map[string]bool
}

func newMockAuthorizer(managers ...string) *mockAuthorizer {
	a := &mockAuthorizer{managers: make(map[string]bool), autoApprover: make(map[string]bool)}
	for _, actor := range managers {
		a.managers[actor] = true
	}
	return a
}

func (m *mockAuthorizer) CanManageSchedule(_ context.Context, actorID string) (bool, error) {
	return m.managers[actorID], nil
}

func (m *mockAuthorizer) CanAutoApprove(_ context.Context, actorID string) (bool, error) {
	return m.autoApprover[actorID], nil
}
