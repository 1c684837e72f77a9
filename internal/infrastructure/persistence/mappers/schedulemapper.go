package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/gymdesk/accessbridge/internal/domain/access"
	"github.com/gymdesk/accessbridge/internal/infrastructure/persistence/models"
)

// ScheduleFromColumns returns nil when no schedule is stored.
func ScheduleFromColumns(cols models.ScheduleColumns) (*access.Schedule, error) {
	if cols.ScheduleStart == nil || cols.ScheduleEnd == nil {
		return nil, nil
	}

	var days []int
	if len(cols.Weekdays) > 0 {
		if err := json.Unmarshal(cols.Weekdays, &days); err != nil {
			return nil, fmt.Errorf("failed to decode schedule weekdays: %w", err)
		}
	}
	weekdays := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %d", d)
		}
		weekdays = append(weekdays, time.Weekday(d))
	}

	return access.NewSchedule(*cols.ScheduleStart, *cols.ScheduleEnd, weekdays)
}

func ScheduleToColumns(s *access.Schedule) models.ScheduleColumns {
	if s == nil {
		return models.ScheduleColumns{}
	}
	start := access.FormatClock(s.StartMinute)
	end := access.FormatClock(s.EndMinute)
	days := make([]int, 0, len(s.Weekdays))
	for _, d := range s.Weekdays {
		days = append(days, int(d))
	}
	raw, _ := json.Marshal(days)
	return models.ScheduleColumns{
		ScheduleStart: &start,
		ScheduleEnd:   &end,
		Weekdays:      datatypes.JSON(raw),
	}
}
