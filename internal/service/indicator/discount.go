package indicator

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"shopfloor-kpi/internal/constants"
	"shopfloor-kpi/internal/storage"
	"slices"
	"strings"
)

// Table is the discount configuration of one indicator. Discounts keep their order: when
// several entries match a stop, the last one wins.
type Table struct {
	Kind      Kind                 `yaml:"-"`
	Discounts []constants.Discount `yaml:"discounts"`
	Exempt    []string             `yaml:"exempt"`
	// Affects restricts the rows the indicator looks at. Only Repair sets it.
	Affects []string `yaml:"affects"`
}

// Tables holds one Table per indicator.
type Tables map[Kind]Table

func DefaultTables() Tables {
	return Tables{
		Efficiency: {
			Kind:      Efficiency,
			Discounts: slices.Clone(constants.EfficiencyDiscounts),
			Exempt:    slices.Clone(constants.EfficiencyExempt),
		},
		Performance: {
			Kind:      Performance,
			Discounts: slices.Clone(constants.PerformanceDiscounts),
			Exempt:    slices.Clone(constants.PerformanceExempt),
		},
		Repair: {
			Kind:      Repair,
			Discounts: slices.Clone(constants.RepairDiscounts),
			Exempt:    slices.Clone(constants.RepairExempt),
			Affects:   slices.Clone(constants.RepairAffects),
		},
	}
}

type tablesFile struct {
	Efficiency  *Table `yaml:"efficiency"`
	Performance *Table `yaml:"performance"`
	Repair      *Table `yaml:"repair"`
}

// LoadTables reads discount tables from a YAML file. Indicators missing from the file keep
// the built-in tables. An empty path returns the built-in tables.
func LoadTables(path string) (Tables, error) {
	const op = "indicator.LoadTables"

	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", op, path, err)
	}

	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: parse yaml: %w", op, err)
	}

	for kind, t := range map[Kind]*Table{Efficiency: f.Efficiency, Performance: f.Performance, Repair: f.Repair} {
		if t == nil {
			continue
		}
		t.Kind = kind
		tables[kind] = *t
	}

	return tables, nil
}

// stopText is what the tables are matched against.
func stopText(iv storage.Interval) string {
	parts := []string{iv.Reason(), "", ""}
	if iv.Problem != nil {
		parts[1] = *iv.Problem
	}
	if iv.Cause != nil {
		parts[2] = *iv.Cause
	}
	return strings.ToLower(strings.Join(parts, " | "))
}

func containsAny(text string, list []string) bool {
	for _, s := range list {
		if s != "" && strings.Contains(text, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// IsExempt reports whether the stop is on the indicator's does-not-count list.
func (t Table) IsExempt(iv storage.Interval) bool {
	return containsAny(stopText(iv), t.Exempt)
}

// Keep reports whether the indicator looks at the stop at all.
func (t Table) Keep(iv storage.Interval) bool {
	switch t.Kind {
	case Performance:
		return !t.IsExempt(iv)
	case Repair:
		return containsAny(stopText(iv), t.Affects)
	}
	return true
}

// Discount returns the forgiven minutes and the minutes that count against the indicator.
func (t Table) Discount(iv storage.Interval) (desconto, excedente int) {
	text := stopText(iv)

	switch {
	case containsAny(text, t.Exempt) && t.Kind == Repair:
		desconto = 0
	case containsAny(text, t.Exempt):
		desconto = iv.Minutes
	default:
		for _, d := range t.Discounts {
			if strings.Contains(text, strings.ToLower(d.Match)) {
				desconto = d.Minutes
			}
		}
	}

	desconto = min(max(desconto, 0), iv.Minutes)
	excedente = max(iv.Minutes-desconto, 0)
	return desconto, excedente
}

// Apply runs the table over the stops of the timeline the indicator looks at.
func (t Table) Apply(ivs []storage.Interval) []storage.Discounted {
	out := make([]storage.Discounted, 0, len(ivs))
	for _, iv := range ivs {
		if iv.Status != storage.StatusStopped || !t.Keep(iv) {
			continue
		}
		d, e := t.Discount(iv)
		out = append(out, storage.Discounted{Interval: iv, Discount: d, Excess: e})
	}
	return out
}

// Idle reports whether the stop takes a whole shift for a reason that means the shift
// did not run.
func (t Table) Idle(iv storage.Interval) bool {
	if iv.Status != storage.StatusStopped || iv.Minutes < storage.ShiftMinutes {
		return false
	}
	return iv.Reason() == constants.ScheduledStop || t.IsExempt(iv)
}
