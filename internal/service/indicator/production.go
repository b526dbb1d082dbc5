package indicator

import (
	"cmp"
	"shopfloor-kpi/internal/storage"
	"slices"
	"time"
)

// Registry resolves the line a machine was registered to at a moment.
type Registry interface {
	AsOf(machine string, at time.Time) (storage.Registration, bool)
}

type productionKey struct {
	machine string
	date    time.Time
	shift   storage.Shift
}

// Production turns cumulative counter readings into units produced per machine, day and
// shift: the spread between the highest and the lowest reading.
func Production(counters []storage.CounterSample, reg Registry) []storage.Production {
	type spread struct {
		first    time.Time
		low, top int64
	}

	groups := make(map[productionKey]*spread)
	var order []productionKey
	for _, c := range counters {
		k := productionKey{machine: c.MachineID, date: storage.Day(c.At), shift: c.Shift}
		g, ok := groups[k]
		if !ok {
			groups[k] = &spread{first: c.At, low: c.TotalCount, top: c.TotalCount}
			order = append(order, k)
			continue
		}
		if c.At.Before(g.first) {
			g.first = c.At
		}
		g.low = min(g.low, c.TotalCount)
		g.top = max(g.top, c.TotalCount)
	}

	out := make([]storage.Production, 0, len(order))
	for _, k := range order {
		g := groups[k]
		p := storage.Production{
			MachineID: k.machine,
			Date:      k.date,
			Shift:     k.shift,
			Produced:  max(g.top-g.low, 0),
		}
		if reg != nil {
			if r, ok := reg.AsOf(k.machine, g.first); ok {
				p.Line, p.Factory = r.Line, r.Factory
			}
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, func(a, b storage.Production) int {
		if c := cmp.Compare(a.MachineID, b.MachineID); c != 0 {
			return c
		}
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Shift.Hour(), b.Shift.Hour())
	})

	return out
}
