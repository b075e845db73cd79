package model

// ConflictKind вид пересечения расписания
type ConflictKind string

const (
	ConflictTeacher ConflictKind = "teacher" // Преподаватель уже занят в это время
	ConflictRoom    ConflictKind = "room"    // Аудитория уже занята в это время
)

// Conflict результат проверки пересечения: с каким слотом и по какому измерению
type Conflict struct {
	Kind ConflictKind  `json:"kind"`
	With *ScheduleSlot `json:"with"`
}
