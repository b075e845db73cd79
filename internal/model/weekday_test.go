package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("Monday")
	require.NoError(t, err)
	assert.Equal(t, Monday, day)

	day, err = ParseWeekday("  sunday ")
	require.NoError(t, err)
	assert.Equal(t, Sunday, day)

	_, err = ParseWeekday("someday")
	require.ErrorIs(t, err, ErrUnknownWeekday)

	_, err = ParseWeekday("")
	require.ErrorIs(t, err, ErrUnknownWeekday)
}

func TestWeekdayNumber(t *testing.T) {
	// Нумерация совпадает с time.Weekday: 0 = Sunday, 6 = Saturday
	assert.Equal(t, 0, Sunday.Number())
	assert.Equal(t, 1, Monday.Number())
	assert.Equal(t, 6, Saturday.Number())
}

func TestWeekdayMatches(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // понедельник
	assert.True(t, Monday.Matches(monday))
	assert.False(t, Tuesday.Matches(monday))
	assert.True(t, Tuesday.Matches(monday.AddDate(0, 0, 1)))
}

func TestSlotLocation(t *testing.T) {
	room := "101"
	building := "Main"

	slot := &ScheduleSlot{Room: &room, Building: &building}
	assert.Equal(t, "Main, 101", slot.Location())

	slot = &ScheduleSlot{Room: &room}
	assert.Equal(t, "101", slot.Location())

	slot = &ScheduleSlot{}
	assert.Equal(t, "", slot.Location())
	assert.False(t, slot.HasRoom())
}
