package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/model"
	"github.com/Freeeeeet/timetable_service/internal/repository/base"
)

// SessionRepository управляет записями конкретных занятий в базе данных
type SessionRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewSessionRepository создаёт новый репозиторий
func NewSessionRepository(pool *pgxpool.Pool, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Create создаёт запись занятия
func (r *SessionRepository) Create(ctx context.Context, session *model.SessionInstance) error {
	query := `
		INSERT INTO class_sessions (slot_id, class_id, course_id, teacher_id, session_date,
			start_datetime, end_datetime, location, location_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx,
		query,
		session.SlotID,
		session.ClassID,
		session.CourseID,
		session.TeacherID,
		session.Date,
		session.StartDatetime,
		session.EndDatetime,
		session.Location,
		string(session.LocationType),
		string(session.Status),
	).Scan(&session.ID, &session.CreatedAt)

	if err != nil {
		return fmt.Errorf("create class session: %w", err)
	}

	return nil
}

// ExistsForSlotAndStart проверяет существует ли занятие слота с таким началом
func (r *SessionRepository) ExistsForSlotAndStart(ctx context.Context, slotID uuid.UUID, start time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM class_sessions WHERE slot_id = $1 AND start_datetime = $2)`

	var exists bool
	err := r.QueryRow(ctx, query, slotID, start).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check class session exists: %w", err)
	}

	return exists, nil
}

// ListBySlot получает все занятия, развёрнутые из слота, по возрастанию даты
func (r *SessionRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*model.SessionInstance, error) {
	query := `
		SELECT id, slot_id, class_id, course_id, teacher_id, session_date,
			start_datetime, end_datetime, location, location_type, status, created_at
		FROM class_sessions
		WHERE slot_id = $1
		ORDER BY start_datetime
	`

	rows, err := r.Query(ctx, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("list class sessions by slot: %w", err)
	}
	defer rows.Close()

	var sessions []*model.SessionInstance
	for rows.Next() {
		var (
			session      model.SessionInstance
			locationType string
			status       string
		)
		err := rows.Scan(
			&session.ID,
			&session.SlotID,
			&session.ClassID,
			&session.CourseID,
			&session.TeacherID,
			&session.Date,
			&session.StartDatetime,
			&session.EndDatetime,
			&session.Location,
			&locationType,
			&status,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan class session: %w", err)
		}
		session.LocationType = model.LocationType(locationType)
		session.Status = model.SessionStatus(status)
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}
