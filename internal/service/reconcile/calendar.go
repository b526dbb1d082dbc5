package reconcile

import (
	"shopfloor-kpi/internal/constants"
	"shopfloor-kpi/internal/storage"
	"slices"
	"time"
)

// Calendar knows the days the factory does not run.
type Calendar struct {
	holidays map[string]bool
}

func NewCalendar(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format(time.DateOnly)] = true
	}
	return c
}

// Idle reports whether day is a Sunday, a holiday or the day after a holiday.
func (c *Calendar) Idle(day time.Time) bool {
	if day.Weekday() == time.Sunday {
		return true
	}
	if c.holidays[day.Format(time.DateOnly)] {
		return true
	}
	return c.holidays[day.AddDate(0, 0, -1).Format(time.DateOnly)]
}

// Apply turns unreported full-shift intervals on idle days into scheduled stops. Their
// duration snaps to the whole shift like any other scheduled stop.
func (c *Calendar) Apply(ivs []storage.Interval) []storage.Interval {
	out := slices.Clone(ivs)
	for i := range out {
		iv := &out[i]
		if iv.Minutes < fullShiftSlack || iv.ReasonName != nil || iv.ReasonID != nil {
			continue
		}
		if !c.Idle(iv.Start) {
			continue
		}

		id := constants.ReasonScheduledStop
		name := constants.ScheduledStop
		problem := constants.SundayHoliday
		iv.Status = storage.StatusStopped
		iv.ReasonID = &id
		iv.ReasonName = &name
		iv.Problem = &problem
		iv.Minutes = durationMinutes(iv.Start, iv.End, name)
	}
	return out
}
