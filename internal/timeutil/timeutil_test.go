package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:00", 0, true},
		{"09-00", 0, true},
		{"09:0a", 0, true},
		{"", 0, true},
		{"  9:0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ToMinutes(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrBadTimeFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "00:00", FormatMinutes(0))
	assert.Equal(t, "09:05", FormatMinutes(545))
	assert.Equal(t, "23:59", FormatMinutes(1439))
}

func TestIntervalsOverlap(t *testing.T) {
	const (
		nine   = 9 * 60
		ten    = 10 * 60
		eleven = 11 * 60
		twelve = 12 * 60
	)

	t.Run("touching intervals do not overlap", func(t *testing.T) {
		assert.False(t, IntervalsOverlap(nine, ten, ten, eleven))
		assert.False(t, IntervalsOverlap(ten, eleven, nine, ten))
	})

	t.Run("containment overlaps", func(t *testing.T) {
		assert.True(t, IntervalsOverlap(nine, twelve, ten, eleven))
		assert.True(t, IntervalsOverlap(ten, eleven, nine, twelve))
	})

	t.Run("partial overlap", func(t *testing.T) {
		assert.True(t, IntervalsOverlap(nine, eleven, ten, twelve))
	})

	t.Run("disjoint intervals", func(t *testing.T) {
		assert.False(t, IntervalsOverlap(nine, ten, eleven, twelve))
	})

	t.Run("symmetry", func(t *testing.T) {
		pairs := [][4]int{
			{nine, ten, ten, eleven},
			{nine, twelve, ten, eleven},
			{nine, eleven, ten, twelve},
			{nine, ten, eleven, twelve},
			{nine, ten, nine, ten},
		}
		for _, p := range pairs {
			assert.Equal(t,
				IntervalsOverlap(p[0], p[1], p[2], p[3]),
				IntervalsOverlap(p[2], p[3], p[0], p[1]),
			)
		}
	})
}
