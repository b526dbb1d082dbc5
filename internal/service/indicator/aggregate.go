package indicator

import (
	"cmp"
	"math"
	"shopfloor-kpi/internal/storage"
	"slices"
	"time"
)

// DefaultIdealCycle is the expected output in units per minute and stream.
const DefaultIdealCycle = 10.6

// streams is the number of outputs a machine fills per cycle.
const streams = 2

type Aggregator struct {
	tables     Tables
	idealCycle float64
	now        func() time.Time
}

// NewAggregator builds an aggregator. now tells which shift is still running; nil means
// time.Now.
func NewAggregator(tables Tables, idealCycle float64, now func() time.Time) *Aggregator {
	if tables == nil {
		tables = DefaultTables()
	}
	if idealCycle <= 0 {
		idealCycle = DefaultIdealCycle
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{tables: tables, idealCycle: idealCycle, now: now}
}

type rowKey struct {
	machine string
	line    int
	date    string
	shift   storage.Shift
}

func keyOf(machine string, line int, date time.Time, shift storage.Shift) rowKey {
	return rowKey{machine: machine, line: line, date: date.Format(time.DateOnly), shift: shift}
}

// Rows computes one indicator row per machine, line, day and shift seen in the stops or
// in the production.
func (a *Aggregator) Rows(kind Kind, ivs []storage.Interval, production []storage.Production) []storage.KPIRow {
	table := a.tables[kind]
	table.Kind = kind

	rows := make(map[rowKey]*storage.KPIRow)
	var order []rowKey
	row := func(machine string, line, factory int, date time.Time, shift storage.Shift) *storage.KPIRow {
		k := keyOf(machine, line, date, shift)
		r, ok := rows[k]
		if !ok {
			r = &storage.KPIRow{
				Kind:      string(kind),
				MachineID: machine,
				Line:      line,
				Factory:   factory,
				Date:      storage.Day(date),
				Shift:     shift,
			}
			rows[k] = r
			order = append(order, k)
		}
		return r
	}

	for _, d := range table.Apply(ivs) {
		r := row(d.MachineID, d.Line, d.Factory, d.Date, d.Shift)
		r.Minutes += d.Minutes
		r.Discount += d.Discount
		r.Excess += d.Excess
	}

	for _, p := range production {
		r := row(p.MachineID, p.Line, p.Factory, p.Date, p.Shift)
		r.Produced += p.Produced
		if r.Factory == 0 {
			r.Factory = p.Factory
		}
	}

	idle := make(map[rowKey]bool)
	for _, iv := range ivs {
		if table.Idle(iv) {
			idle[keyOf(iv.MachineID, iv.Line, iv.Date, iv.Shift)] = true
		}
	}

	out := make([]storage.KPIRow, 0, len(order))
	for _, k := range order {
		r := rows[k]
		r.ExpectedMinutes = a.expectedMinutes(r.Date, r.Shift, r.Discount)
		r.ExpectedOutput = round2(float64(r.ExpectedMinutes) * a.idealCycle * streams)

		switch {
		case kind == Efficiency:
			r.Value = ratio(float64(r.Produced), r.ExpectedOutput)
		case idle[k]:
			r.ExpectedMinutes = 0
			r.ExpectedOutput = 0
			r.Value = nil
		default:
			r.Value = ratio(float64(r.Excess), float64(r.ExpectedMinutes))
		}

		out = append(out, *r)
	}

	sortRows(out)
	return out
}

// All computes every indicator over the same timeline and production.
func (a *Aggregator) All(ivs []storage.Interval, production []storage.Production) map[Kind][]storage.KPIRow {
	out := make(map[Kind][]storage.KPIRow, len(Kinds))
	for _, k := range Kinds {
		out[k] = a.Rows(k, ivs, production)
	}
	return out
}

// expectedMinutes is the production time the shift should have had. A shift still running
// only counts the whole minutes elapsed so far.
func (a *Aggregator) expectedMinutes(date time.Time, shift storage.Shift, discount int) int {
	available := storage.ShiftMinutes

	now := a.now()
	start, end := shift.Start(date), shift.End(date)
	if !now.Before(start) && now.Before(end) {
		available = int(now.Sub(start) / time.Minute)
	}

	return max(available-discount, 0)
}

// ratio divides and keeps two decimals. 0/0 has no value; x/0 counts as zero.
func ratio(num, den float64) *float64 {
	if den == 0 {
		if num == 0 {
			return nil
		}
		zero := 0.0
		return &zero
	}

	v := round2(num / den)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortRows(rows []storage.KPIRow) {
	slices.SortStableFunc(rows, func(a, b storage.KPIRow) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Shift.Hour(), b.Shift.Hour()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Line, b.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.MachineID, b.MachineID)
	})
}
