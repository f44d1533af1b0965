package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"simrig-booking-backend/config"
)

func TestGridCompleteness(t *testing.T) {
	hours := config.HoursConfig{OpenHour: 10, CloseHour: 22, SlotMinutes: 30}
	grid := Grid(hours)

	// 12 hours at 30 minutes: exactly 24 contiguous windows.
	assert.Len(t, grid, 24)
	assert.Equal(t, 10*60, grid[0].Start)
	assert.Equal(t, 22*60, grid[len(grid)-1].End)
	for i := 1; i < len(grid); i++ {
		assert.Equal(t, grid[i-1].End, grid[i].Start, "windows must be contiguous")
	}
}

func TestGridTruncatesPartialFinalSlot(t *testing.T) {
	// 45 does not divide the 10:00-22:00 window evenly; the last
	// partial slot must be dropped, never emitted past close.
	hours := config.HoursConfig{OpenHour: 10, CloseHour: 22, SlotMinutes: 45}
	grid := Grid(hours)

	assert.Len(t, grid, 16)
	last := grid[len(grid)-1]
	assert.LessOrEqual(t, last.End, 22*60)
}

func TestGrid24Hours(t *testing.T) {
	hours := config.HoursConfig{Open24Hours: true, SlotMinutes: 60}
	grid := Grid(hours)

	assert.Len(t, grid, 24)
	assert.Equal(t, 0, grid[0].Start)
	assert.Equal(t, 24*60, grid[len(grid)-1].End)
}

func TestGridDegenerateConfig(t *testing.T) {
	assert.Nil(t, Grid(config.HoursConfig{OpenHour: 22, CloseHour: 10, SlotMinutes: 30}))
	assert.Nil(t, Grid(config.HoursConfig{OpenHour: 10, CloseHour: 22}))
}

func TestAligned(t *testing.T) {
	hours := config.HoursConfig{OpenHour: 10, CloseHour: 22, SlotMinutes: 30}

	assert.True(t, Aligned(hours, 10*60))
	assert.True(t, Aligned(hours, 14*60+30))
	assert.False(t, Aligned(hours, 14*60+15))
	assert.False(t, Aligned(hours, 9*60+30), "before open")
	assert.False(t, Aligned(hours, 22*60), "at close")
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:05")
	assert.NoError(t, err)
	assert.Equal(t, 9*60+5, m)

	for _, bad := range []string{"", "9", "25:00", "10:75", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:05", FormatClock(9*60+5))
	assert.Equal(t, "24:00", FormatClock(24*60))
}
