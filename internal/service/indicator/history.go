package indicator

import (
	"cmp"
	"shopfloor-kpi/internal/constants"
	"shopfloor-kpi/internal/storage"
	"slices"
	"time"
)

const monthLayout = "2006-01"

// MonthKey formats the month t falls into the way history rows are keyed.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthlySummary condenses one month of intervals and indicator rows into a history row.
// Rows and intervals outside month are ignored.
func MonthlySummary(month time.Time, ivs []storage.Interval, rows map[Kind][]storage.KPIRow) storage.MonthlyHistory {
	h := storage.MonthlyHistory{Month: MonthKey(month)}

	for _, r := range rows[Efficiency] {
		if sameMonth(r.Date, month) {
			h.TotalBoxes += r.Produced
		}
	}

	avg := func(kind Kind) *float64 {
		var sum float64
		var n int
		for _, r := range rows[kind] {
			if r.Value == nil || !sameMonth(r.Date, month) {
				continue
			}
			sum += *r.Value
			n++
		}
		if n == 0 {
			return nil
		}
		v := round2(sum / float64(n))
		return &v
	}
	h.EfficiencyAvg = avg(Efficiency)
	h.PerformanceAvg = avg(Performance)
	h.RepairAvg = avg(Repair)

	for _, iv := range ivs {
		if iv.Status == storage.StatusStopped && iv.Reason() == constants.ScheduledStop && sameMonth(iv.Date, month) {
			h.ScheduledStopMinutes += iv.Minutes
		}
	}

	return h
}

// TopStops ranks the stops by total minutes per line, reason and problem. n <= 0 keeps all.
func TopStops(ivs []storage.Interval, n int) []storage.TopStop {
	type key struct {
		line            int
		reason, problem string
	}

	sums := make(map[key]*storage.TopStop)
	for _, iv := range ivs {
		if iv.Status != storage.StatusStopped {
			continue
		}

		k := key{line: iv.Line, reason: iv.Reason(), problem: storage.NotInformed}
		if k.reason == "" {
			k.reason = storage.NotReported
		}
		if iv.Problem != nil && *iv.Problem != "" {
			k.problem = *iv.Problem
		}

		s, ok := sums[k]
		if !ok {
			s = &storage.TopStop{Line: k.line, Reason: k.reason, Problem: k.problem}
			sums[k] = s
		}
		s.Minutes += iv.Minutes
		s.Count++
	}

	out := make([]storage.TopStop, 0, len(sums))
	for _, s := range sums {
		out = append(out, *s)
	}

	slices.SortFunc(out, func(a, b storage.TopStop) int {
		if c := cmp.Compare(b.Minutes, a.Minutes); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Line, b.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Reason, b.Reason); c != 0 {
			return c
		}
		return cmp.Compare(a.Problem, b.Problem)
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
