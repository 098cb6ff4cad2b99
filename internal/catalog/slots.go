package catalog

import "time"

// GenerateSlots publishes half-hour availability slots for the next `days`
// calendar days starting at `from`: weekdays only, 09:00 to 16:30 UTC.
// Slots are returned as RFC 3339 strings in chronological order, the order
// in which they are published.
func GenerateSlots(from time.Time, days int) []string {
	start := from.UTC()
	var slots []string
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for hour := 9; hour < 17; hour++ {
			for _, minute := range []int{0, 30} {
				slot := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
				slots = append(slots, slot.Format(time.RFC3339))
			}
		}
	}
	return slots
}
