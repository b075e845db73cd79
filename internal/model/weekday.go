package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownWeekday день недели не входит в семь известных тегов
var ErrUnknownWeekday = errors.New("unknown day of week")

// Weekday день недели, к которому привязан регулярный слот
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// weekdayNumbers числовое представление дней (0 = Sunday, 6 = Saturday)
var weekdayNumbers = map[Weekday]int{
	Sunday:    0,
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
}

// ParseWeekday разбирает тег дня недели (без учёта регистра)
func ParseWeekday(s string) (Weekday, error) {
	day := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := weekdayNumbers[day]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
	}
	return day, nil
}

// Number возвращает номер дня недели (0 = Sunday, 6 = Saturday)
func (w Weekday) Number() int {
	return weekdayNumbers[w]
}

// Valid проверяет что день недели один из семи известных
func (w Weekday) Valid() bool {
	_, ok := weekdayNumbers[w]
	return ok
}

// Matches проверяет совпадение календарной даты с днём недели слота
func (w Weekday) Matches(date time.Time) bool {
	return int(date.Weekday()) == w.Number()
}
