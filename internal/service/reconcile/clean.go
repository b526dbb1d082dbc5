package reconcile

import (
	"cmp"
	"github.com/samber/lo"
	"shopfloor-kpi/internal/storage"
	"slices"
	"strconv"
	"strings"
	"time"
)

var clockLayouts = []string{"15:04:05", "15:04:05.000000", "15:04"}

// combine joins a DATE column and a TIME column into one local timestamp.
// An empty or unreadable clock keeps the time of day carried by date itself.
func combine(date time.Time, clock string, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}

	clock = strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		c, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		y, m, d := date.Date()
		return time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), c.Nanosecond(), loc)
	}

	y, m, d := date.Date()
	return time.Date(y, m, d, date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), loc)
}

func newestFirst(aMachine, bMachine string, aAt, bAt time.Time) int {
	if c := cmp.Compare(bMachine, aMachine); c != 0 {
		return c
	}
	return bAt.Compare(aAt)
}

// Clean normalizes the rows of one refresh cycle. Input slices are never modified.
func Clean(raw storage.RawEvents, loc *time.Location) storage.RawEvents {
	return storage.RawEvents{
		Occurrences:   CleanOccurrences(raw.Occurrences, loc),
		Info:          CleanInfo(raw.Info, loc),
		Registrations: CleanRegistrations(raw.Registrations, loc),
		Counters:      CleanCounters(raw.Counters, loc),
	}
}

func CleanInfo(rows []storage.InfoSample, loc *time.Location) []storage.InfoSample {
	out := make([]storage.InfoSample, 0, len(rows))
	for _, r := range rows {
		if r.MachineID == "" {
			continue
		}
		r.At = combine(r.Date, r.Time, loc)
		if !r.Shift.Valid() {
			r.Shift = storage.ShiftOf(r.At)
		}
		out = append(out, r)
	}

	out = lo.UniqBy(out, func(r storage.InfoSample) string {
		return r.MachineID + "|" + r.At.String() + "|" + string(r.Status)
	})

	slices.SortStableFunc(out, func(a, b storage.InfoSample) int {
		return newestFirst(a.MachineID, b.MachineID, a.At, b.At)
	})

	return out
}

// CleanRegistrations drops rows without a line and keeps the first registration of a
// line at a given moment.
func CleanRegistrations(rows []storage.Registration, loc *time.Location) []storage.Registration {
	out := make([]storage.Registration, 0, len(rows))
	for _, r := range rows {
		if r.Line == 0 || r.MachineID == "" {
			continue
		}
		r.At = combine(r.Date, r.Time, loc)
		out = append(out, r)
	}

	out = lo.UniqBy(out, func(r storage.Registration) string {
		return r.At.String() + "|" + strconv.Itoa(r.Line)
	})

	slices.SortStableFunc(out, func(a, b storage.Registration) int {
		return newestFirst(a.MachineID, b.MachineID, a.At, b.At)
	})

	return out
}

func CleanOccurrences(rows []storage.Occurrence, loc *time.Location) []storage.Occurrence {
	out := make([]storage.Occurrence, 0, len(rows))
	for _, r := range rows {
		if r.MachineID == "" {
			continue
		}
		r.At = combine(r.Date, r.Time, loc)
		out = append(out, r)
	}

	out = lo.UniqBy(out, func(r storage.Occurrence) string {
		return strings.Join([]string{
			r.MachineID, r.At.String(), intText(r.ReasonID), text(r.ReasonName), text(r.Problem),
		}, "|")
	})

	slices.SortStableFunc(out, func(a, b storage.Occurrence) int {
		return newestFirst(a.MachineID, b.MachineID, a.At, b.At)
	})

	return out
}

func CleanCounters(rows []storage.CounterSample, loc *time.Location) []storage.CounterSample {
	out := make([]storage.CounterSample, 0, len(rows))
	for _, r := range rows {
		if r.MachineID == "" {
			continue
		}
		r.At = combine(r.Date, r.Time, loc)
		if !r.Shift.Valid() {
			r.Shift = storage.ShiftOf(r.At)
		}
		out = append(out, r)
	}

	out = lo.UniqBy(out, func(r storage.CounterSample) string {
		return r.MachineID + "|" + r.At.String()
	})

	slices.SortStableFunc(out, func(a, b storage.CounterSample) int {
		return newestFirst(a.MachineID, b.MachineID, a.At, b.At)
	})

	return out
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intText(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
