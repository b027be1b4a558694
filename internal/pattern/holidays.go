package pattern

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
)

// Holiday names in the default catalog.
const (
	HolidayNewYear         = "New Year"
	HolidayValentines      = "Valentine's Day"
	HolidayIndependenceDay = "Independence Day"
	HolidayBackToSchool    = "Back to School"
	HolidayHalloween       = "Halloween"
	HolidayBlackFriday     = "Black Friday/Cyber Monday"
	HolidayChristmas       = "Christmas Season"
)

// DefaultHolidays returns the standard holiday catalog, in calendar order.
func DefaultHolidays() []model.HolidayConfig {
	return []model.HolidayConfig{
		{Name: HolidayNewYear, Month: time.January, StartDay: 1, EndDay: 3, DefaultMultiplier: 1.2},
		{Name: HolidayValentines, Month: time.February, StartDay: 12, EndDay: 14, DefaultMultiplier: 1.3},
		{Name: HolidayIndependenceDay, Month: time.July, StartDay: 2, EndDay: 4, DefaultMultiplier: 1.2},
		{Name: HolidayBackToSchool, Month: time.August, StartDay: 15, EndDay: 31, DefaultMultiplier: 1.3},
		{Name: HolidayHalloween, Month: time.October, StartDay: 28, EndDay: 31, DefaultMultiplier: 1.2},
		{Name: HolidayBlackFriday, Month: time.November, StartDay: 25, EndDay: 30, DefaultMultiplier: 2.0},
		{Name: HolidayChristmas, Month: time.December, StartDay: 20, EndDay: 31, DefaultMultiplier: 1.8},
	}
}

// ValidateHolidays checks that every window is well formed, names are unique
// and no two windows share a calendar day.
func ValidateHolidays(holidays []model.HolidayConfig) error {
	names := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		if strings.TrimSpace(h.Name) == "" {
			return fmt.Errorf("%w: holiday name is required", common.ErrInvalidConfig)
		}
		if names[h.Name] {
			return fmt.Errorf("%w: duplicate holiday %q", common.ErrInvalidConfig, h.Name)
		}
		names[h.Name] = true

		if h.Month < time.January || h.Month > time.December {
			return fmt.Errorf("%w: holiday %q has invalid month %d", common.ErrInvalidConfig, h.Name, h.Month)
		}
		if h.StartDay < 1 || h.EndDay > 31 || h.StartDay > h.EndDay {
			return fmt.Errorf("%w: holiday %q has invalid window %d-%d", common.ErrInvalidConfig, h.Name, h.StartDay, h.EndDay)
		}
		if h.DefaultMultiplier <= 0 {
			return fmt.Errorf("%w: holiday %q needs a positive default multiplier", common.ErrInvalidConfig, h.Name)
		}
	}

	sorted := append([]model.HolidayConfig(nil), holidays...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Month != sorted[j].Month {
			return sorted[i].Month < sorted[j].Month
		}
		return sorted[i].StartDay < sorted[j].StartDay
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Month == cur.Month && cur.StartDay <= prev.EndDay {
			return fmt.Errorf("%w: %q and %q", common.ErrOverlappingHolidays, prev.Name, cur.Name)
		}
	}

	return nil
}
