package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/model"
	"github.com/Freeeeeet/timetable_service/internal/timeutil"
)

// GenerationConfig поведение развёртки слотов в занятия
type GenerationConfig struct {
	// SkipExisting не создавать занятие, если занятие слота с таким началом
	// уже есть. Позволяет безопасно перегенерировать пересекающиеся диапазоны
	SkipExisting bool
}

// GenerateFailure дата, для которой не удалось создать занятие
type GenerateFailure struct {
	Date  time.Time `json:"date"`
	Error string    `json:"error"`
}

// GenerateResult итог развёртки слота за диапазон дат
type GenerateResult struct {
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Failures []GenerateFailure `json:"failures,omitempty"`
}

// GenerationService разворачивает регулярные слоты в конкретные датированные занятия
type GenerationService struct {
	slots    SlotStore
	sessions SessionStore
	cfg      GenerationConfig
	logger   *zap.Logger
}

func NewGenerationService(slots SlotStore, sessions SessionStore, cfg GenerationConfig, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		slots:    slots,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// GenerateInstances разворачивает слот в занятия за диапазон дат (включительно
// с обеих сторон). Обход идёт по дням: для каждой даты с совпадающим днём
// недели создаётся одно занятие. Ошибка создания отдельного занятия не
// прерывает обход, неудавшиеся даты собираются в результат
func (g *GenerationService) GenerateInstances(ctx context.Context, slotID uuid.UUID, from, to time.Time) (*GenerateResult, error) {
	slot, err := g.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get schedule slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if !to.After(from) {
		return nil, ErrInvalidDateRange
	}
	if !slot.IsActive {
		return nil, ErrSlotInactive
	}

	result, err := g.expand(ctx, slot, from, to)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Session instances generated",
		zap.String("slot_id", slot.ID.String()),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
	)

	return result, nil
}

// ExtendAll продлевает занятия всех активных слотов на скользящий горизонт.
// Вызывается фоновой задачей; ошибка одного слота не прерывает остальные
func (g *GenerationService) ExtendAll(ctx context.Context, weeksAhead int) error {
	slots, err := g.slots.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active slots: %w", err)
	}

	from := time.Now()
	to := from.AddDate(0, 0, weeksAhead*7)

	totalCreated := 0
	for _, slot := range slots {
		result, err := g.expand(ctx, slot, from, to)
		if err != nil {
			g.logger.Error("Failed to extend slot sessions",
				zap.String("slot_id", slot.ID.String()),
				zap.Error(err),
			)
			continue
		}
		totalCreated += result.Created
	}

	g.logger.Info("Extended sessions for all active slots",
		zap.Int("total_slots", len(slots)),
		zap.Int("total_created", totalCreated),
	)

	return nil
}

// ListSessions получает занятия, развёрнутые из слота
func (g *GenerationService) ListSessions(ctx context.Context, slotID uuid.UUID) ([]*model.SessionInstance, error) {
	slot, err := g.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get schedule slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return g.sessions.ListBySlot(ctx, slotID)
}

func (g *GenerationService) expand(ctx context.Context, slot *model.ScheduleSlot, from, to time.Time) (*GenerateResult, error) {
	startMinute, err := timeutil.ToMinutes(slot.StartTime)
	if err != nil {
		return nil, fmt.Errorf("stored slot start time: %w", err)
	}
	endMinute, err := timeutil.ToMinutes(slot.EndTime)
	if err != nil {
		return nil, fmt.Errorf("stored slot end time: %w", err)
	}

	locationType := model.LocationOnline
	if slot.HasRoom() {
		locationType = model.LocationOffline
	}

	result := &GenerateResult{}

	day := truncateToDay(from)
	last := truncateToDay(to)

	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !slot.DayOfWeek.Matches(day) {
			continue
		}
		// Слот действует только внутри своего диапазона дат
		if slot.EffectiveFrom != nil && day.Before(truncateToDay(*slot.EffectiveFrom)) {
			continue
		}
		if slot.EffectiveTo != nil && day.After(truncateToDay(*slot.EffectiveTo)) {
			continue
		}

		// Время занятия собирается из даты и настенного времени слота:
		// сдвиг от полуночи ломается в дни перевода часов
		start := time.Date(day.Year(), day.Month(), day.Day(), startMinute/60, startMinute%60, 0, 0, day.Location())
		end := time.Date(day.Year(), day.Month(), day.Day(), endMinute/60, endMinute%60, 0, 0, day.Location())

		if g.cfg.SkipExisting {
			exists, err := g.sessions.ExistsForSlotAndStart(ctx, slot.ID, start)
			if err != nil {
				result.Failures = append(result.Failures, GenerateFailure{Date: day, Error: err.Error()})
				continue
			}
			if exists {
				result.Skipped++
				continue
			}
		}

		session := &model.SessionInstance{
			SlotID:        slot.ID,
			ClassID:       slot.ClassID,
			CourseID:      slot.CourseID,
			TeacherID:     slot.TeacherID,
			Date:          day,
			StartDatetime: start,
			EndDatetime:   end,
			Location:      slot.Location(),
			LocationType:  locationType,
			Status:        model.SessionStatusScheduled,
		}

		if err := g.sessions.Create(ctx, session); err != nil {
			result.Failures = append(result.Failures, GenerateFailure{Date: day, Error: err.Error()})
			continue
		}

		result.Created++
	}

	return result, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
