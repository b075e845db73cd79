package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/model"
	"github.com/Freeeeeet/timetable_service/internal/repository/base"
	"github.com/Freeeeeet/timetable_service/internal/timeutil"
)

// ErrOverlap вставка/обновление упёрлись в exclusion-констрейнт пересечения интервалов
var ErrOverlap = errors.New("slot overlaps an existing active slot")

const slotColumns = `
	id, class_id, course_id, teacher_id, day_of_week, start_minute, end_minute,
	room, building, recurrence_type, effective_from, effective_to,
	is_active, requires_approval, approval_status, notes, created_by, created_at, updated_at
`

// SlotRepository управляет регулярными слотами расписания в базе данных
type SlotRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewSlotRepository создаёт новый репозиторий
func NewSlotRepository(pool *pgxpool.Pool, logger *zap.Logger) *SlotRepository {
	return &SlotRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Create создаёт новый слот расписания
func (r *SlotRepository) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	startMinute, endMinute, err := slotMinutes(slot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedule_slots (class_id, course_id, teacher_id, day_of_week, start_minute, end_minute,
			room, building, recurrence_type, effective_from, effective_to,
			is_active, requires_approval, approval_status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	err = r.QueryRow(
		ctx,
		query,
		slot.ClassID,
		slot.CourseID,
		slot.TeacherID,
		string(slot.DayOfWeek),
		startMinute,
		endMinute,
		slot.Room,
		slot.Building,
		string(slot.RecurrenceType),
		slot.EffectiveFrom,
		slot.EffectiveTo,
		slot.IsActive,
		slot.RequiresApproval,
		approvalStatusValue(slot.ApprovalStatus),
		slot.Notes,
		slot.CreatedBy,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if base.IsExclusionViolation(err) {
		return fmt.Errorf("create schedule slot: %w", ErrOverlap)
	}
	if err != nil {
		return fmt.Errorf("create schedule slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduleSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule slot by id: %w", err)
	}

	return slot, nil
}

// Update обновляет изменяемые поля слота
func (r *SlotRepository) Update(ctx context.Context, slot *model.ScheduleSlot) error {
	startMinute, endMinute, err := slotMinutes(slot)
	if err != nil {
		return err
	}

	query := `
		UPDATE schedule_slots
		SET course_id = $2, day_of_week = $3, start_minute = $4, end_minute = $5,
			room = $6, building = $7, recurrence_type = $8,
			effective_from = $9, effective_to = $10,
			is_active = $11, approval_status = $12, notes = $13, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.QueryRow(
		ctx,
		query,
		slot.ID,
		slot.CourseID,
		string(slot.DayOfWeek),
		startMinute,
		endMinute,
		slot.Room,
		slot.Building,
		string(slot.RecurrenceType),
		slot.EffectiveFrom,
		slot.EffectiveTo,
		slot.IsActive,
		approvalStatusValue(slot.ApprovalStatus),
		slot.Notes,
	).Scan(&slot.UpdatedAt)

	if base.IsExclusionViolation(err) {
		return fmt.Errorf("update schedule slot: %w", ErrOverlap)
	}
	if err != nil {
		return fmt.Errorf("update schedule slot: %w", err)
	}

	return nil
}

// Deactivate мягко удаляет слот: is_active = false, запись остаётся для
// исторических ссылок из созданных занятий
func (r *SlotRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE schedule_slots SET is_active = false, updated_at = now() WHERE id = $1`

	_, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate schedule slot: %w", err)
	}

	return nil
}

// SetApprovalStatus выставляет статус согласования и активность слота
func (r *SlotRepository) SetApprovalStatus(ctx context.Context, id uuid.UUID, status model.ApprovalStatus, isActive bool) error {
	query := `
		UPDATE schedule_slots
		SET approval_status = $2, is_active = $3, updated_at = now()
		WHERE id = $1
	`

	_, err := r.ExecAffected(ctx, query, id, string(status), isActive)
	if base.IsExclusionViolation(err) {
		return fmt.Errorf("set approval status: %w", ErrOverlap)
	}
	if err != nil {
		return fmt.Errorf("set approval status: %w", err)
	}

	return nil
}

// FindActiveByTeacherAndDay получает активные слоты преподавателя на день недели,
// исключая excludeID (uuid.Nil — не исключать ничего)
func (r *SlotRepository) FindActiveByTeacherAndDay(ctx context.Context, teacherID string, day model.Weekday, excludeID uuid.UUID) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE teacher_id = $1 AND day_of_week = $2 AND is_active = true AND id <> $3
		ORDER BY start_minute
	`

	return r.querySlots(ctx, query, teacherID, string(day), excludeID)
}

// FindActiveByRoomAndDay получает активные слоты в аудитории на день недели
// (по всем преподавателям), исключая excludeID
func (r *SlotRepository) FindActiveByRoomAndDay(ctx context.Context, room string, day model.Weekday, excludeID uuid.UUID) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE room = $1 AND day_of_week = $2 AND is_active = true AND id <> $3
		ORDER BY start_minute
	`

	return r.querySlots(ctx, query, room, string(day), excludeID)
}

// ListByTeacher получает все слоты преподавателя
func (r *SlotRepository) ListByTeacher(ctx context.Context, teacherID string) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE teacher_id = $1
		ORDER BY day_of_week, start_minute
	`

	return r.querySlots(ctx, query, teacherID)
}

// ListByCourse получает все слоты курса
func (r *SlotRepository) ListByCourse(ctx context.Context, courseID string) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE course_id = $1
		ORDER BY day_of_week, start_minute
	`

	return r.querySlots(ctx, query, courseID)
}

// ListByDayAndRoom получает активные слоты на день недели в аудитории
func (r *SlotRepository) ListByDayAndRoom(ctx context.Context, day model.Weekday, room string) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE day_of_week = $1 AND room = $2 AND is_active = true
		ORDER BY start_minute
	`

	return r.querySlots(ctx, query, string(day), room)
}

// ListActive получает все активные слоты
func (r *SlotRepository) ListActive(ctx context.Context) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE is_active = true
		ORDER BY day_of_week, start_minute
	`

	return r.querySlots(ctx, query)
}

func (r *SlotRepository) querySlots(ctx context.Context, query string, args ...interface{}) ([]*model.ScheduleSlot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// scanSlot читает слот из строки выборки slotColumns
func scanSlot(row pgx.Row) (*model.ScheduleSlot, error) {
	var (
		slot           model.ScheduleSlot
		dayOfWeek      string
		startMinute    int
		endMinute      int
		recurrenceType string
		approvalStatus *string
	)

	err := row.Scan(
		&slot.ID,
		&slot.ClassID,
		&slot.CourseID,
		&slot.TeacherID,
		&dayOfWeek,
		&startMinute,
		&endMinute,
		&slot.Room,
		&slot.Building,
		&recurrenceType,
		&slot.EffectiveFrom,
		&slot.EffectiveTo,
		&slot.IsActive,
		&slot.RequiresApproval,
		&approvalStatus,
		&slot.Notes,
		&slot.CreatedBy,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.DayOfWeek = model.Weekday(dayOfWeek)
	slot.StartTime = timeutil.FormatMinutes(startMinute)
	slot.EndTime = timeutil.FormatMinutes(endMinute)
	slot.RecurrenceType = model.RecurrenceType(recurrenceType)
	if approvalStatus != nil {
		status := model.ApprovalStatus(*approvalStatus)
		slot.ApprovalStatus = &status
	}

	return &slot, nil
}

func slotMinutes(slot *model.ScheduleSlot) (int, int, error) {
	startMinute, err := timeutil.ToMinutes(slot.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("slot start time: %w", err)
	}
	endMinute, err := timeutil.ToMinutes(slot.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("slot end time: %w", err)
	}
	return startMinute, endMinute, nil
}

func approvalStatusValue(status *model.ApprovalStatus) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}
