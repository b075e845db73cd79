package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/model"
	"github.com/Freeeeeet/timetable_service/internal/repository"
	"github.com/Freeeeeet/timetable_service/internal/timeutil"
)

func newScheduleFixture() (*ScheduleService, *mockSlotStore, *mockAuthorizer) {
	store := newMockSlotStore()
	directory := newMockDirectory("t1", "t2").addCourses("math", "english")
	authz := newMockAuthorizer("admin")
	svc := NewScheduleService(store, directory, authz, zap.NewNop())
	return svc, store, authz
}

func strPtr(s string) *string { return &s }

func baseSlotInput() CreateSlotInput {
	return CreateSlotInput{
		ClassID:   "class-1",
		CourseID:  "math",
		TeacherID: "t1",
		DayOfWeek: "monday",
		StartTime: "09:00",
		EndTime:   "10:00",
		Room:      strPtr("101"),
		CreatedBy: "admin",
	}
}

func TestCreateSlot_Success(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	slot, err := svc.CreateSlot(context.Background(), baseSlotInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, slot.ID)
	assert.True(t, slot.IsActive)
	assert.Nil(t, slot.ApprovalStatus)
	assert.Equal(t, model.Monday, slot.DayOfWeek)
	assert.Equal(t, model.RecurrenceWeekly, slot.RecurrenceType)
}

func TestCreateSlot_RoomConflictNamesCollidingSlot(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	slotA, err := svc.CreateSlot(context.Background(), baseSlotInput())
	require.NoError(t, err)

	// Другой преподаватель, та же аудитория, пересекающийся интервал
	in := baseSlotInput()
	in.TeacherID = "t2"
	in.CourseID = "english"
	in.StartTime = "09:30"
	in.EndTime = "10:30"

	_, err = svc.CreateSlot(context.Background(), in)

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, model.ConflictRoom, conflictErr.Conflict.Kind)
	assert.Equal(t, slotA.ID, conflictErr.Conflict.With.ID)
}

func TestCreateSlot_TeacherConflictTakesPrecedence(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	_, err := svc.CreateSlot(context.Background(), baseSlotInput())
	require.NoError(t, err)

	// Конфликт и по преподавателю, и по аудитории: сообщается преподавательский
	in := baseSlotInput()
	in.StartTime = "09:30"
	in.EndTime = "10:30"

	_, err = svc.CreateSlot(context.Background(), in)

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, model.ConflictTeacher, conflictErr.Conflict.Kind)
}

func TestCreateSlot_TouchingIntervalDifferentRoom(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	_, err := svc.CreateSlot(context.Background(), baseSlotInput())
	require.NoError(t, err)

	// Тот же преподаватель, интервал впритык, другая аудитория
	in := baseSlotInput()
	in.StartTime = "10:00"
	in.EndTime = "11:00"
	in.Room = strPtr("102")

	slot, err := svc.CreateSlot(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, slot.IsActive)
}

func TestCreateSlot_EmptyRoomIsNoRoom(t *testing.T) {
	svc, store, _ := newScheduleFixture()
	ctx := context.Background()

	in := baseSlotInput()
	in.Room = strPtr("")
	slotA, err := svc.CreateSlot(ctx, in)
	require.NoError(t, err)

	// Пустая аудитория не хранится как реальная, иначе запись попадает
	// в room-констрейнт и два безаудиторных слота считаются двойной бронью
	stored, err := store.GetByID(ctx, slotA.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Room)

	other := baseSlotInput()
	other.TeacherID = "t2"
	other.CourseID = "english"
	other.Room = strPtr("")
	other.StartTime = "09:30"
	other.EndTime = "10:30"

	slotB, err := svc.CreateSlot(ctx, other)
	require.NoError(t, err)
	assert.True(t, slotB.IsActive)
}

func TestUpdateSlot_EmptyRoomIsNoRoom(t *testing.T) {
	svc, store, _ := newScheduleFixture()
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, baseSlotInput())
	require.NoError(t, err)

	_, err = svc.UpdateSlot(ctx, slot.ID, UpdateSlotInput{
		Room:  strPtr(""),
		Actor: "admin",
	})
	require.NoError(t, err)

	stored, err := store.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Room)
}

func TestCreateSlot_ValidationErrors(t *testing.T) {
	svc, _, _ := newScheduleFixture()
	ctx := context.Background()

	in := baseSlotInput()
	in.DayOfWeek = "someday"
	_, err := svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, model.ErrUnknownWeekday)

	in = baseSlotInput()
	in.StartTime = "25:00"
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, timeutil.ErrBadTimeFormat)

	in = baseSlotInput()
	in.StartTime = "10:00"
	in.EndTime = "09:00"
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	in = baseSlotInput()
	in.StartTime = "09:00"
	in.EndTime = "09:00"
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	in = baseSlotInput()
	from := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	in.EffectiveFrom = &from
	in.EffectiveTo = &to
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	in = baseSlotInput()
	in.RecurrenceType = "daily"
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	in = baseSlotInput()
	in.TeacherID = "ghost"
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, ErrTeacherNotFound)

	in = baseSlotInput()
	in.CourseID = "alchemy"
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	in = baseSlotInput()
	in.CreatedBy = "student"
	_, err = svc.CreateSlot(ctx, in)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCreateSlot_PendingSlotIsNotActive(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	in := baseSlotInput()
	in.RequiresApproval = true

	slot, err := svc.CreateSlot(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, slot.IsActive)
	require.NotNil(t, slot.ApprovalStatus)
	assert.Equal(t, model.ApprovalStatusPending, *slot.ApprovalStatus)

	// Pending-слот не участвует в проверке пересечений
	other := baseSlotInput()
	other.TeacherID = "t2"
	other.CourseID = "english"
	_, err = svc.CreateSlot(context.Background(), other)
	assert.NoError(t, err)
}

func TestCreateSlot_AutoApprove(t *testing.T) {
	svc, _, authz := newScheduleFixture()
	authz.autoApprover["admin"] = true

	in := baseSlotInput()
	in.RequiresApproval = true

	slot, err := svc.CreateSlot(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, slot.IsActive)
	require.NotNil(t, slot.ApprovalStatus)
	assert.Equal(t, model.ApprovalStatusAutoApproved, *slot.ApprovalStatus)
}

func TestUpdateSlot_NoSelfConflict(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	slot, err := svc.CreateSlot(context.Background(), baseSlotInput())
	require.NoError(t, err)

	// Сдвиг времени внутри собственного интервала не конфликтует с самим собой
	updated, err := svc.UpdateSlot(context.Background(), slot.ID, UpdateSlotInput{
		StartTime: strPtr("09:30"),
		EndTime:   strPtr("10:30"),
		Actor:     "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:30", updated.StartTime)
	assert.Equal(t, "10:30", updated.EndTime)
}

func TestUpdateSlot_ConflictKeepsPriorState(t *testing.T) {
	svc, store, _ := newScheduleFixture()
	ctx := context.Background()

	_, err := svc.CreateSlot(ctx, baseSlotInput())
	require.NoError(t, err)

	in := baseSlotInput()
	in.StartTime = "11:00"
	in.EndTime = "12:00"
	slotB, err := svc.CreateSlot(ctx, in)
	require.NoError(t, err)

	// Перенос B на время A отклоняется, слот остаётся в прежнем состоянии
	_, err = svc.UpdateSlot(ctx, slotB.ID, UpdateSlotInput{
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("10:00"),
		Actor:     "admin",
	})

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	stored, err := store.GetByID(ctx, slotB.ID)
	require.NoError(t, err)
	assert.Equal(t, "11:00", stored.StartTime)
	assert.Equal(t, "12:00", stored.EndTime)
}

func TestUpdateSlot_NotFound(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	_, err := svc.UpdateSlot(context.Background(), uuid.New(), UpdateSlotInput{Actor: "admin"})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestApprovalLifecycle(t *testing.T) {
	svc, _, _ := newScheduleFixture()
	ctx := context.Background()

	in := baseSlotInput()
	in.RequiresApproval = true
	slot, err := svc.CreateSlot(ctx, in)
	require.NoError(t, err)

	approved, err := svc.ApproveSlot(ctx, slot.ID, "admin")
	require.NoError(t, err)
	assert.True(t, approved.IsActive)
	assert.Equal(t, model.ApprovalStatusApproved, *approved.ApprovalStatus)

	// Повторное согласование невозможно
	_, err = svc.ApproveSlot(ctx, slot.ID, "admin")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestRejectSlot_Terminal(t *testing.T) {
	svc, _, _ := newScheduleFixture()
	ctx := context.Background()

	in := baseSlotInput()
	in.RequiresApproval = true
	slot, err := svc.CreateSlot(ctx, in)
	require.NoError(t, err)

	rejected, err := svc.RejectSlot(ctx, slot.ID, "admin")
	require.NoError(t, err)
	assert.False(t, rejected.IsActive)
	assert.Equal(t, model.ApprovalStatusRejected, *rejected.ApprovalStatus)

	_, err = svc.ApproveSlot(ctx, slot.ID, "admin")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestApproveSlot_NotRequired(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	slot, err := svc.CreateSlot(context.Background(), baseSlotInput())
	require.NoError(t, err)

	_, err = svc.ApproveSlot(context.Background(), slot.ID, "admin")
	assert.ErrorIs(t, err, ErrApprovalNotRequired)
}

func TestApproveSlot_RechecksConflicts(t *testing.T) {
	svc, store, _ := newScheduleFixture()
	ctx := context.Background()

	in := baseSlotInput()
	in.RequiresApproval = true
	pending, err := svc.CreateSlot(ctx, in)
	require.NoError(t, err)

	// Пока слот ждал решения, конкурирующий слот успел стать активным
	rival := baseSlotInput()
	rival.StartTime = "09:30"
	rival.EndTime = "10:30"
	_, err = svc.CreateSlot(ctx, rival)
	require.NoError(t, err)

	_, err = svc.ApproveSlot(ctx, pending.ID, "admin")

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	stored, err := store.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, model.ApprovalStatusPending, *stored.ApprovalStatus)
}

func TestApproveSlot_ActivationRaceReportsConflict(t *testing.T) {
	svc, store, _ := newScheduleFixture()
	ctx := context.Background()

	in := baseSlotInput()
	in.RequiresApproval = true
	pending, err := svc.CreateSlot(ctx, in)
	require.NoError(t, err)

	// Конкурент активируется между повторной проверкой и записью статуса:
	// запись упирается в exclusion-констрейнт
	rival := baseSlotInput()
	rival.StartTime = "09:30"
	rival.EndTime = "10:30"
	store.setApprovalHook = func() error {
		if _, err := svc.CreateSlot(ctx, rival); err != nil {
			return err
		}
		return fmt.Errorf("set approval status: %w", repository.ErrOverlap)
	}

	_, err = svc.ApproveSlot(ctx, pending.ID, "admin")

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, model.ConflictTeacher, conflictErr.Conflict.Kind)

	stored, err := store.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, model.ApprovalStatusPending, *stored.ApprovalStatus)
}

func TestDeactivateSlot(t *testing.T) {
	svc, _, _ := newScheduleFixture()
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, baseSlotInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateSlot(ctx, slot.ID, "admin"))

	// Деактивированный слот освобождает интервал
	_, err = svc.CreateSlot(ctx, baseSlotInput())
	assert.NoError(t, err)

	// Повторная деактивация невозможна
	err = svc.DeactivateSlot(ctx, slot.ID, "admin")
	assert.ErrorIs(t, err, ErrSlotInactive)
}

func TestCheckConflict_ExcludeSelf(t *testing.T) {
	svc, _, _ := newScheduleFixture()
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, baseSlotInput())
	require.NoError(t, err)

	// Без исключения слот конфликтует сам с собой
	conflict, err := svc.CheckConflict(ctx, "t1", "monday", "09:00", "10:00", strPtr("101"), uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, conflict)

	// С excludeID — нет
	conflict, err = svc.CheckConflict(ctx, "t1", "monday", "09:00", "10:00", strPtr("101"), slot.ID)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestWeeklyTimetable(t *testing.T) {
	svc, _, _ := newScheduleFixture()
	ctx := context.Background()

	late := baseSlotInput()
	late.StartTime = "14:00"
	late.EndTime = "15:00"
	_, err := svc.CreateSlot(ctx, late)
	require.NoError(t, err)

	early := baseSlotInput()
	early.Room = strPtr("102")
	_, err = svc.CreateSlot(ctx, early)
	require.NoError(t, err)

	tuesday := baseSlotInput()
	tuesday.DayOfWeek = "tuesday"
	tuesday.TeacherID = "t2"
	tuesday.CourseID = "english"
	_, err = svc.CreateSlot(ctx, tuesday)
	require.NoError(t, err)

	timetable, err := svc.WeeklyTimetable(ctx, TimetableFilter{})
	require.NoError(t, err)

	require.Len(t, timetable[model.Monday], 2)
	require.Len(t, timetable[model.Tuesday], 1)
	// Слоты дня отсортированы по времени начала
	assert.Equal(t, "09:00", timetable[model.Monday][0].StartTime)
	assert.Equal(t, "14:00", timetable[model.Monday][1].StartTime)

	filtered, err := svc.WeeklyTimetable(ctx, TimetableFilter{TeacherID: "t2"})
	require.NoError(t, err)
	assert.Empty(t, filtered[model.Monday])
	assert.Len(t, filtered[model.Tuesday], 1)
}
