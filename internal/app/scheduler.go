package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/service"
)

// Scheduler управляет фоновой задачей автопродления занятий: раз в сутки
// разворачивает все активные слоты на скользящий горизонт вперёд
type Scheduler struct {
	cron         *cron.Cron
	generation   *service.GenerationService
	cronSpec     string
	horizonWeeks int
	logger       *zap.Logger
}

// NewScheduler создаёт новый планировщик фоновых задач
func NewScheduler(generation *service.GenerationService, cronSpec string, horizonWeeks int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		generation:   generation,
		cronSpec:     cronSpec,
		horizonWeeks: horizonWeeks,
		logger:       logger,
	}
}

// Start регистрирует cron-задачу и запускает планировщик.
// Первый прогон выполняется сразу при старте
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cronSpec, s.extend); err != nil {
		return fmt.Errorf("add generation cron job: %w", err)
	}

	s.logger.Info("Starting background scheduler",
		zap.String("cron", s.cronSpec),
		zap.Int("horizon_weeks", s.horizonWeeks),
	)

	go s.extend()
	s.cron.Start()

	return nil
}

// Stop останавливает планировщик, дожидаясь завершения текущего прогона
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

// extend продлевает занятия всех активных слотов на горизонт вперёд
func (s *Scheduler) extend() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("Starting automatic session generation")

	if err := s.generation.ExtendAll(ctx, s.horizonWeeks); err != nil {
		s.logger.Error("Failed to extend sessions", zap.Error(err))
		return
	}

	s.logger.Info("Automatic session generation completed")
}
