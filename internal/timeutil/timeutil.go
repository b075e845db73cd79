// Package timeutil разбор времени "HH:MM" и проверка пересечения интервалов
package timeutil

import (
	"errors"
	"fmt"
)

// ErrBadTimeFormat время не соответствует формату "HH:MM" (часы 00-23, минуты 00-59)
var ErrBadTimeFormat = errors.New("time must be in HH:MM format")

// ToMinutes конвертирует "HH:MM" в минуты с полуночи (0-1439)
func ToMinutes(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
		}
	}

	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')

	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}

	return hour*60 + minute, nil
}

// FormatMinutes конвертирует минуты с полуночи обратно в "HH:MM"
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// IntervalsOverlap проверяет пересечение двух полуоткрытых интервалов [start, end)
// в пределах одного дня. Слоты "впритык" (конец одного = начало другого) не пересекаются
func IntervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}
