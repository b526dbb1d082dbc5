// Package reconcile turns the raw machine event streams into one gap-free,
// shift-bounded timeline of stop and run intervals per machine.
package reconcile

import (
	"shopfloor-kpi/internal/storage"
	"time"
)

type Options struct {
	Holidays       []time.Time
	FuzzyThreshold int
}

type Reconciler struct {
	calendar   *Calendar
	normalizer *Normalizer
}

func New(opts Options) *Reconciler {
	return &Reconciler{
		calendar:   NewCalendar(opts.Holidays),
		normalizer: NewNormalizer(opts.FuzzyThreshold),
	}
}

// Intervals reconciles cleaned rows. The result is ordered by machine and start and is
// fully determined by its input.
func (r *Reconciler) Intervals(clean storage.RawEvents) []storage.Interval {
	if len(clean.Info) == 0 {
		return []storage.Interval{}
	}

	samples := JoinRegistrations(clean.Info, NewRegistrationIndex(clean.Registrations))
	samples = JoinOccurrences(samples, clean.Occurrences)
	samples = CorrectSelfTests(samples)

	ivs := Group(samples)
	ivs = Regroup(ReclassifyBlips(ivs))
	// operator texts only: the calendar labels are fixed
	ivs = r.normalizer.Apply(ivs)
	ivs = r.calendar.Apply(ivs)
	ivs = FillNotReported(ivs)

	sortIntervals(ivs)
	return ivs
}
