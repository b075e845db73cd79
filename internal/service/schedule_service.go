package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/model"
	"github.com/Freeeeeet/timetable_service/internal/repository"
	"github.com/Freeeeeet/timetable_service/internal/timeutil"
)

// ScheduleService управляет регулярными слотами: создание, изменение,
// согласование и проверка пересечений
type ScheduleService struct {
	slots     SlotStore
	directory Directory
	authz     Authorizer
	logger    *zap.Logger
}

func NewScheduleService(slots SlotStore, directory Directory, authz Authorizer, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		slots:     slots,
		directory: directory,
		authz:     authz,
		logger:    logger,
	}
}

// CreateSlotInput параметры создания слота
type CreateSlotInput struct {
	ClassID          string
	CourseID         string
	TeacherID        string
	DayOfWeek        string
	StartTime        string // "HH:MM"
	EndTime          string // "HH:MM"
	Room             *string
	Building         *string
	RecurrenceType   string
	EffectiveFrom    *time.Time
	EffectiveTo      *time.Time
	Notes            string
	RequiresApproval bool
	CreatedBy        string
}

// UpdateSlotInput частичное обновление слота: nil — поле не меняется
type UpdateSlotInput struct {
	CourseID      *string
	DayOfWeek     *string
	StartTime     *string
	EndTime       *string
	Room          *string
	Building      *string
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	Notes         *string
	Actor         string
}

// TimetableFilter фильтры недельной сетки расписания
type TimetableFilter struct {
	TeacherID string
	CourseID  string
	Room      string
}

// CreateSlot проверяет предложенный слот на пересечения и сохраняет его.
// Статус согласования определяет начальное состояние: слот без согласования
// активен сразу, иначе остаётся pending до решения согласующего
func (s *ScheduleService) CreateSlot(ctx context.Context, in CreateSlotInput) (*model.ScheduleSlot, error) {
	if err := s.requireScheduler(ctx, in.CreatedBy); err != nil {
		return nil, err
	}

	day, err := model.ParseWeekday(in.DayOfWeek)
	if err != nil {
		return nil, err
	}

	startMinute, endMinute, err := parseInterval(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	recurrence, err := parseRecurrence(in.RecurrenceType)
	if err != nil {
		return nil, err
	}

	if in.EffectiveFrom != nil && in.EffectiveTo != nil && !in.EffectiveTo.After(*in.EffectiveFrom) {
		return nil, ErrInvalidDateRange
	}

	exists, err := s.directory.TeacherExists(ctx, in.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("check teacher exists: %w", err)
	}
	if !exists {
		return nil, ErrTeacherNotFound
	}

	exists, err = s.directory.CourseExists(ctx, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("check course exists: %w", err)
	}
	if !exists {
		return nil, ErrCourseNotFound
	}

	room := normalizeOptional(in.Room)
	building := normalizeOptional(in.Building)

	conflict, err := s.findConflict(ctx, in.TeacherID, day, startMinute, endMinute, room, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &ConflictError{Conflict: conflict}
	}

	slot := &model.ScheduleSlot{
		ClassID:          in.ClassID,
		CourseID:         in.CourseID,
		TeacherID:        in.TeacherID,
		DayOfWeek:        day,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		Room:             room,
		Building:         building,
		RecurrenceType:   recurrence,
		EffectiveFrom:    in.EffectiveFrom,
		EffectiveTo:      in.EffectiveTo,
		Notes:            in.Notes,
		RequiresApproval: in.RequiresApproval,
		CreatedBy:        in.CreatedBy,
	}

	if !in.RequiresApproval {
		slot.IsActive = true
	} else {
		autoApprove, err := s.authz.CanAutoApprove(ctx, in.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("check auto approve: %w", err)
		}
		status := model.ApprovalStatusPending
		if autoApprove {
			status = model.ApprovalStatusAutoApproved
			slot.IsActive = true
		}
		slot.ApprovalStatus = &status
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, s.overlapToConflict(ctx, err, in.TeacherID, day, startMinute, endMinute, room, uuid.Nil)
	}

	s.logger.Info("Schedule slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("teacher_id", slot.TeacherID),
		zap.String("course_id", slot.CourseID),
		zap.String("day_of_week", string(slot.DayOfWeek)),
		zap.String("start_time", slot.StartTime),
		zap.String("end_time", slot.EndTime),
		zap.Bool("is_active", slot.IsActive),
	)

	return slot, nil
}

// UpdateSlot частично обновляет слот, повторно проверяя пересечения без учёта
// самого слота. При конфликте слот остаётся в прежнем состоянии
func (s *ScheduleService) UpdateSlot(ctx context.Context, id uuid.UUID, in UpdateSlotInput) (*model.ScheduleSlot, error) {
	if err := s.requireScheduler(ctx, in.Actor); err != nil {
		return nil, err
	}

	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	// Изменения применяются к копии: запись в хранилище идёт только после
	// успешной проверки пересечений
	updated := *slot

	if in.CourseID != nil {
		exists, err := s.directory.CourseExists(ctx, *in.CourseID)
		if err != nil {
			return nil, fmt.Errorf("check course exists: %w", err)
		}
		if !exists {
			return nil, ErrCourseNotFound
		}
		updated.CourseID = *in.CourseID
	}
	if in.DayOfWeek != nil {
		day, err := model.ParseWeekday(*in.DayOfWeek)
		if err != nil {
			return nil, err
		}
		updated.DayOfWeek = day
	}
	if in.StartTime != nil {
		updated.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		updated.EndTime = *in.EndTime
	}
	if in.Room != nil {
		updated.Room = in.Room
	}
	if in.Building != nil {
		updated.Building = in.Building
	}
	if in.EffectiveFrom != nil {
		updated.EffectiveFrom = in.EffectiveFrom
	}
	if in.EffectiveTo != nil {
		updated.EffectiveTo = in.EffectiveTo
	}
	if in.Notes != nil {
		updated.Notes = *in.Notes
	}

	// Пустая аудитория/корпус хранится как NULL, чтобы не считаться
	// реальной аудиторией в exclusion-констрейнте
	updated.Room = normalizeOptional(updated.Room)
	updated.Building = normalizeOptional(updated.Building)

	startMinute, endMinute, err := parseInterval(updated.StartTime, updated.EndTime)
	if err != nil {
		return nil, err
	}

	if updated.EffectiveFrom != nil && updated.EffectiveTo != nil && !updated.EffectiveTo.After(*updated.EffectiveFrom) {
		return nil, ErrInvalidDateRange
	}

	conflict, err := s.findConflict(ctx, updated.TeacherID, updated.DayOfWeek, startMinute, endMinute, updated.Room, updated.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &ConflictError{Conflict: conflict}
	}

	if err := s.slots.Update(ctx, &updated); err != nil {
		return nil, s.overlapToConflict(ctx, err, updated.TeacherID, updated.DayOfWeek, startMinute, endMinute, updated.Room, updated.ID)
	}

	s.logger.Info("Schedule slot updated",
		zap.String("slot_id", updated.ID.String()),
		zap.String("day_of_week", string(updated.DayOfWeek)),
		zap.String("start_time", updated.StartTime),
		zap.String("end_time", updated.EndTime),
	)

	return &updated, nil
}

// DeactivateSlot мягко удаляет слот. Доступно только для активных слотов
func (s *ScheduleService) DeactivateSlot(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.requireScheduler(ctx, actor); err != nil {
		return err
	}

	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get schedule slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}
	if !slot.IsActive {
		return ErrSlotInactive
	}

	if err := s.slots.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Schedule slot deactivated",
		zap.String("slot_id", id.String()),
		zap.String("actor", actor),
	)

	return nil
}

// ApproveSlot согласует pending-слот и активирует его. Перед активацией
// пересечения проверяются повторно: пока слот ждал решения, конкурирующие
// слоты могли быть созданы
func (s *ScheduleService) ApproveSlot(ctx context.Context, id uuid.UUID, approver string) (*model.ScheduleSlot, error) {
	slot, err := s.pendingSlot(ctx, id, approver)
	if err != nil {
		return nil, err
	}

	startMinute, endMinute, err := parseInterval(slot.StartTime, slot.EndTime)
	if err != nil {
		return nil, err
	}

	conflict, err := s.findConflict(ctx, slot.TeacherID, slot.DayOfWeek, startMinute, endMinute, slot.Room, slot.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &ConflictError{Conflict: conflict}
	}

	if err := s.slots.SetApprovalStatus(ctx, id, model.ApprovalStatusApproved, true); err != nil {
		return nil, s.overlapToConflict(ctx, err, slot.TeacherID, slot.DayOfWeek, startMinute, endMinute, slot.Room, slot.ID)
	}

	status := model.ApprovalStatusApproved
	slot.ApprovalStatus = &status
	slot.IsActive = true

	s.logger.Info("Schedule slot approved",
		zap.String("slot_id", id.String()),
		zap.String("approver", approver),
	)

	return slot, nil
}

// RejectSlot отклоняет pending-слот. Статус терминальный: слот можно только
// пересоздать заново
func (s *ScheduleService) RejectSlot(ctx context.Context, id uuid.UUID, approver string) (*model.ScheduleSlot, error) {
	slot, err := s.pendingSlot(ctx, id, approver)
	if err != nil {
		return nil, err
	}

	if err := s.slots.SetApprovalStatus(ctx, id, model.ApprovalStatusRejected, false); err != nil {
		return nil, err
	}

	status := model.ApprovalStatusRejected
	slot.ApprovalStatus = &status
	slot.IsActive = false

	s.logger.Info("Schedule slot rejected",
		zap.String("slot_id", id.String()),
		zap.String("approver", approver),
	)

	return slot, nil
}

// CheckConflict проверяет предложенный интервал на пересечения без записи.
// nil-результат означает отсутствие конфликта
func (s *ScheduleService) CheckConflict(ctx context.Context, teacherID, dayOfWeek, startTime, endTime string, room *string, excludeID uuid.UUID) (*model.Conflict, error) {
	day, err := model.ParseWeekday(dayOfWeek)
	if err != nil {
		return nil, err
	}

	startMinute, endMinute, err := parseInterval(startTime, endTime)
	if err != nil {
		return nil, err
	}

	return s.findConflict(ctx, teacherID, day, startMinute, endMinute, room, excludeID)
}

// GetSlot получает слот по ID
func (s *ScheduleService) GetSlot(ctx context.Context, id uuid.UUID) (*model.ScheduleSlot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// ListByTeacher получает все слоты преподавателя
func (s *ScheduleService) ListByTeacher(ctx context.Context, teacherID string) ([]*model.ScheduleSlot, error) {
	return s.slots.ListByTeacher(ctx, teacherID)
}

// ListByCourse получает все слоты курса
func (s *ScheduleService) ListByCourse(ctx context.Context, courseID string) ([]*model.ScheduleSlot, error) {
	return s.slots.ListByCourse(ctx, courseID)
}

// ListByDayAndRoom получает активные слоты на день недели в аудитории
func (s *ScheduleService) ListByDayAndRoom(ctx context.Context, dayOfWeek, room string) ([]*model.ScheduleSlot, error) {
	day, err := model.ParseWeekday(dayOfWeek)
	if err != nil {
		return nil, err
	}
	return s.slots.ListByDayAndRoom(ctx, day, room)
}

// WeeklyTimetable группирует активные слоты по дням недели с сортировкой
// по времени начала
func (s *ScheduleService) WeeklyTimetable(ctx context.Context, filter TimetableFilter) (map[model.Weekday][]*model.ScheduleSlot, error) {
	slots, err := s.slots.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	timetable := make(map[model.Weekday][]*model.ScheduleSlot)
	for _, slot := range slots {
		if filter.TeacherID != "" && slot.TeacherID != filter.TeacherID {
			continue
		}
		if filter.CourseID != "" && slot.CourseID != filter.CourseID {
			continue
		}
		if filter.Room != "" && (slot.Room == nil || *slot.Room != filter.Room) {
			continue
		}
		timetable[slot.DayOfWeek] = append(timetable[slot.DayOfWeek], slot)
	}

	for day := range timetable {
		daySlots := timetable[day]
		sort.Slice(daySlots, func(i, j int) bool {
			return daySlots[i].StartTime < daySlots[j].StartTime
		})
	}

	return timetable, nil
}

// findConflict ищет пересечение в два прохода: сначала слоты преподавателя,
// затем слоты аудитории. Конфликт преподавателя имеет приоритет —
// вызывающий узнаёт об одном конфликте за раз
func (s *ScheduleService) findConflict(ctx context.Context, teacherID string, day model.Weekday, startMinute, endMinute int, room *string, excludeID uuid.UUID) (*model.Conflict, error) {
	candidates, err := s.slots.FindActiveByTeacherAndDay(ctx, teacherID, day, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find teacher slots: %w", err)
	}

	for _, candidate := range candidates {
		overlaps, err := slotOverlaps(candidate, startMinute, endMinute)
		if err != nil {
			return nil, err
		}
		if overlaps {
			return &model.Conflict{Kind: model.ConflictTeacher, With: candidate}, nil
		}
	}

	if room == nil || *room == "" {
		return nil, nil
	}

	candidates, err = s.slots.FindActiveByRoomAndDay(ctx, *room, day, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find room slots: %w", err)
	}

	for _, candidate := range candidates {
		overlaps, err := slotOverlaps(candidate, startMinute, endMinute)
		if err != nil {
			return nil, err
		}
		if overlaps {
			return &model.Conflict{Kind: model.ConflictRoom, With: candidate}, nil
		}
	}

	return nil, nil
}

// overlapToConflict превращает срабатывание exclusion-констрейнта в ConflictError.
// Прикладная проверка пересечений и запись не атомарны, констрейнт в базе
// закрывает эту гонку; здесь конфликт доискивается для ответа пользователю
func (s *ScheduleService) overlapToConflict(ctx context.Context, err error, teacherID string, day model.Weekday, startMinute, endMinute int, room *string, excludeID uuid.UUID) error {
	if !errors.Is(err, repository.ErrOverlap) {
		return err
	}

	conflict, findErr := s.findConflict(ctx, teacherID, day, startMinute, endMinute, room, excludeID)
	if findErr == nil && conflict != nil {
		return &ConflictError{Conflict: conflict}
	}

	return err
}

func (s *ScheduleService) requireScheduler(ctx context.Context, actorID string) error {
	allowed, err := s.authz.CanManageSchedule(ctx, actorID)
	if err != nil {
		return fmt.Errorf("check schedule permission: %w", err)
	}
	if !allowed {
		return ErrNotAuthorized
	}
	return nil
}

func (s *ScheduleService) pendingSlot(ctx context.Context, id uuid.UUID, approver string) (*model.ScheduleSlot, error) {
	if err := s.requireScheduler(ctx, approver); err != nil {
		return nil, err
	}

	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if !slot.RequiresApproval {
		return nil, ErrApprovalNotRequired
	}
	if slot.ApprovalStatus == nil || *slot.ApprovalStatus != model.ApprovalStatusPending {
		return nil, ErrNotPending
	}

	return slot, nil
}

func slotOverlaps(slot *model.ScheduleSlot, startMinute, endMinute int) (bool, error) {
	slotStart, err := timeutil.ToMinutes(slot.StartTime)
	if err != nil {
		return false, fmt.Errorf("stored slot start time: %w", err)
	}
	slotEnd, err := timeutil.ToMinutes(slot.EndTime)
	if err != nil {
		return false, fmt.Errorf("stored slot end time: %w", err)
	}
	return timeutil.IntervalsOverlap(startMinute, endMinute, slotStart, slotEnd), nil
}

func parseInterval(startTime, endTime string) (int, int, error) {
	startMinute, err := timeutil.ToMinutes(startTime)
	if err != nil {
		return 0, 0, err
	}
	endMinute, err := timeutil.ToMinutes(endTime)
	if err != nil {
		return 0, 0, err
	}
	if endMinute <= startMinute {
		return 0, 0, ErrInvalidTimeRange
	}
	return startMinute, endMinute, nil
}

// normalizeOptional приводит пустую строку к nil: слот без аудитории и слот
// с аудиторией "" неразличимы, а NULL выводит запись из room-констрейнта
func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func parseRecurrence(s string) (model.RecurrenceType, error) {
	switch model.RecurrenceType(s) {
	case "", model.RecurrenceWeekly:
		return model.RecurrenceWeekly, nil
	default:
		return "", ErrInvalidRecurrence
	}
}
