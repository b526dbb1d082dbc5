package reconcile

import (
	"cmp"
	"math"
	"shopfloor-kpi/internal/constants"
	"shopfloor-kpi/internal/storage"
	"slices"
	"strconv"
	"time"
)

const (
	// fullShiftSlack is how close to a whole shift a scheduled stop must get to snap to it.
	fullShiftSlack = storage.ShiftMinutes - 2

	blipMinutes      = 10
	shortBlipMinutes = 5
)

// span is a run of pieces being collapsed into one interval.
type span struct {
	storage.Interval

	// lastStart is the start of the last piece, used when the run has no known end.
	lastStart time.Time
	reason    string
}

// reasonKey identifies the stop reason of an interval, "" when nobody reported one.
func reasonKey(iv storage.Interval) string {
	if iv.ReasonName != nil {
		return *iv.ReasonName
	}
	if iv.ReasonID != nil {
		return "#" + strconv.Itoa(*iv.ReasonID)
	}
	return ""
}

// startsNewRun reports whether piece p can not extend the run cur.
// A piece without a reason never breaks a run on its own: it inherits the run's reason.
func startsNewRun(cur *span, p storage.Interval) bool {
	switch {
	case cur == nil:
		return true
	case p.MachineID != cur.MachineID,
		p.Shift != cur.Shift,
		p.Status != cur.Status,
		!storage.SameDay(p.Start, cur.Start):
		return true
	}

	r := reasonKey(p)
	return r != "" && cur.reason != "" && r != cur.reason
}

// absorb fills the fields of the run that are still empty from piece p.
func (s *span) absorb(p storage.Interval) {
	s.End = p.End
	s.lastStart = p.Start

	if s.Line == 0 {
		s.Line, s.Factory = p.Line, p.Factory
	}
	if s.ReasonID == nil {
		s.ReasonID = p.ReasonID
	}
	if s.ReasonName == nil {
		s.ReasonName = p.ReasonName
	}
	if s.Equipment == nil {
		s.Equipment = p.Equipment
	}
	if s.Problem == nil {
		s.Problem = p.Problem
	}
	if s.Cause == nil {
		s.Cause = p.Cause
	}
	if s.OperatorID == nil {
		s.OperatorID = p.OperatorID
	}
	if s.OSNumber == nil {
		s.OSNumber = p.OSNumber
	}
	if s.reason == "" {
		s.reason = reasonKey(p)
	}
}

// collapse walks pieces ordered by machine and start once and merges every run of
// pieces sharing machine, shift, day, status and reason.
func collapse(pieces []storage.Interval) []span {
	var (
		runs []span
		cur  *span
	)
	for _, p := range pieces {
		if startsNewRun(cur, p) {
			runs = append(runs, span{Interval: p, lastStart: p.Start, reason: reasonKey(p)})
			cur = &runs[len(runs)-1]
			continue
		}
		cur.absorb(p)
	}
	return runs
}

// resolveEnds closes every run at its shift boundary. A run whose end is unknown is the
// last one of its machine: it closes on its last sample, or is dropped when it is the
// last run overall.
func resolveEnds(runs []span) []storage.Interval {
	out := make([]storage.Interval, 0, len(runs))
	for i, r := range runs {
		end := r.End
		if end.IsZero() {
			if i == len(runs)-1 {
				continue
			}
			end = r.lastStart
		}

		if boundary := r.Shift.End(r.Date); end.After(boundary) {
			end = boundary
		}
		if !end.After(r.Start) {
			continue
		}

		iv := r.Interval
		iv.End = end
		iv.Minutes = durationMinutes(iv.Start, iv.End, iv.Reason())
		out = append(out, iv)
	}
	return out
}

// durationMinutes rounds to whole minutes and bounds the result by one shift. Scheduled
// stops and cleanings covering almost all of a shift count as the whole shift.
func durationMinutes(start, end time.Time, reason string) int {
	m := int(math.Round(end.Sub(start).Minutes()))
	if m > fullShiftSlack && constants.FullShiftReasons[reason] {
		return storage.ShiftMinutes
	}
	return min(max(m, 0), storage.ShiftMinutes)
}

func piecesFromSamples(samples []Sample) []storage.Interval {
	pieces := make([]storage.Interval, 0, len(samples))
	for _, s := range samples {
		pieces = append(pieces, storage.Interval{
			MachineID:  s.MachineID,
			Line:       s.Line,
			Factory:    s.Factory,
			Shift:      s.Shift,
			Date:       storage.Day(s.At),
			Status:     s.Status,
			ReasonID:   s.ReasonID,
			ReasonName: s.ReasonName,
			Equipment:  s.Equipment,
			Problem:    s.Problem,
			Cause:      s.Cause,
			Start:      s.At,
			End:        s.End,
			OperatorID: s.OperatorID,
			OSNumber:   s.OSNumber,
		})
	}
	return pieces
}

// Group is the first reconciliation pass: samples become intervals.
func Group(samples []Sample) []storage.Interval {
	return resolveEnds(collapse(piecesFromSamples(samples)))
}

// ReclassifyBlips marks short running intervals between stops as stopped. An interval
// qualifies when the machine ran less than 10 minutes after a stop other than a
// scheduled one, or less than 5 minutes after any interval, and the next interval is
// in the same shift.
func ReclassifyBlips(ivs []storage.Interval) []storage.Interval {
	out := slices.Clone(ivs)
	for i := 1; i+1 < len(ivs); i++ {
		cur, prev, next := ivs[i], ivs[i-1], ivs[i+1]
		if cur.Status != storage.StatusRunning {
			continue
		}
		if prev.MachineID != cur.MachineID || next.MachineID != cur.MachineID {
			continue
		}
		if next.Shift != cur.Shift || !storage.SameDay(next.Start, cur.Start) {
			continue
		}

		switch {
		case cur.Minutes < blipMinutes && prev.Reason() != constants.ScheduledStop:
			out[i].Status = storage.StatusStopped
		case cur.Minutes < shortBlipMinutes:
			out[i].Status = storage.StatusStopped
		}
	}
	return out
}

// Regroup is the second pass: it merges the runs the reclassification made adjacent.
// It is applied exactly once.
func Regroup(ivs []storage.Interval) []storage.Interval {
	runs := collapse(ivs)
	out := make([]storage.Interval, 0, len(runs))
	for _, r := range runs {
		iv := r.Interval
		iv.Minutes = durationMinutes(iv.Start, iv.End, iv.Reason())
		out = append(out, iv)
	}
	return out
}

// FillNotReported gives every stop without a reason the "not reported" label.
func FillNotReported(ivs []storage.Interval) []storage.Interval {
	out := slices.Clone(ivs)
	for i := range out {
		if out[i].Status == storage.StatusStopped && out[i].ReasonName == nil {
			name := storage.NotReported
			out[i].ReasonName = &name
		}
	}
	return out
}

func sortIntervals(ivs []storage.Interval) {
	slices.SortStableFunc(ivs, func(a, b storage.Interval) int {
		if c := cmp.Compare(a.MachineID, b.MachineID); c != 0 {
			return c
		}
		return a.Start.Compare(b.Start)
	})
}
