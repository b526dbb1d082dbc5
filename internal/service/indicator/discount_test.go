package indicator

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"shopfloor-kpi/internal/constants"
	"shopfloor-kpi/internal/storage"
	"testing"
	"time"
)

var tuesday = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func stop(machine string, line int, shift storage.Shift, minutes int, reason string, problem string) storage.Interval {
	start := shift.Start(tuesday)
	iv := storage.Interval{
		MachineID:  machine,
		Line:       line,
		Factory:    1,
		Shift:      shift,
		Date:       tuesday,
		Status:     storage.StatusStopped,
		ReasonName: strPtr(reason),
		Start:      start,
		End:        start.Add(time.Duration(minutes) * time.Minute),
		Minutes:    minutes,
	}
	if problem != "" {
		iv.Problem = strPtr(problem)
	}
	return iv
}

func TestTable_Discount(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name     string
		kind     Kind
		iv       storage.Interval
		desconto int
		excess   int
	}{
		{
			name:     "backup is fully forgiven for efficiency",
			kind:     Efficiency,
			iv:       stop("TMF001", 1, storage.ShiftMorning, 480, "Saída para Backup", ""),
			desconto: 480,
			excess:   0,
		},
		{
			name:     "meal discount",
			kind:     Efficiency,
			iv:       stop("TMF001", 1, storage.ShiftMorning, 70, "Refeição", ""),
			desconto: 65,
			excess:   5,
		},
		{
			name:     "discount is bounded by the stop",
			kind:     Efficiency,
			iv:       stop("TMF001", 1, storage.ShiftMorning, 20, "Refeição", ""),
			desconto: 20,
			excess:   0,
		},
		{
			name:     "last matching entry wins",
			kind:     Efficiency,
			iv:       stop("TMF001", 1, storage.ShiftMorning, 90, "Reunião", "treinamento de segurança"),
			desconto: 60,
			excess:   30,
		},
		{
			name:     "no match counts entirely",
			kind:     Efficiency,
			iv:       stop("TMF001", 1, storage.ShiftMorning, 33, storage.NotReported, ""),
			desconto: 0,
			excess:   33,
		},
		{
			name:     "repair exemption forgives nothing",
			kind:     Repair,
			iv:       stop("TMF001", 1, storage.ShiftMorning, 120, "Manutenção Preventiva", ""),
			desconto: 0,
			excess:   120,
		},
		{
			name:     "repair discount",
			kind:     Repair,
			iv:       stop("TMF001", 1, storage.ShiftMorning, 12, "Ajustes", ""),
			desconto: 5,
			excess:   7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, e := tables[tt.kind].Discount(tt.iv)
			assert.Equal(t, tt.desconto, d)
			assert.Equal(t, tt.excess, e)
			assert.Equal(t, tt.iv.Minutes, d+e)
		})
	}
}

func TestTable_Apply_FiltersPerKind(t *testing.T) {
	tables := DefaultTables()
	running := stop("TMF001", 1, storage.ShiftMorning, 60, "", "")
	running.Status = storage.StatusRunning
	running.ReasonName = nil

	ivs := []storage.Interval{
		running,
		stop("TMF001", 1, storage.ShiftMorning, 70, "Refeição", ""),
		stop("TMF001", 1, storage.ShiftMorning, 40, "Setup", ""),
		stop("TMF001", 1, storage.ShiftMorning, 12, "Ajustes", ""),
	}

	assert.Len(t, tables[Efficiency].Apply(ivs), 3)

	perf := tables[Performance].Apply(ivs)
	require.Len(t, perf, 2)
	assert.Equal(t, "Setup", perf[0].Reason())
	assert.Equal(t, 15, perf[0].Discount)

	repair := tables[Repair].Apply(ivs)
	require.Len(t, repair, 1)
	assert.Equal(t, "Ajustes", repair[0].Reason())

	for _, k := range Kinds {
		for _, d := range tables[k].Apply(ivs) {
			assert.LessOrEqual(t, d.Discount, d.Minutes)
			assert.Equal(t, d.Minutes-d.Discount, d.Excess)
		}
	}
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discounts.yaml")
	err := os.WriteFile(path, []byte(`
efficiency:
  discounts:
    - match: "Refeição"
      minutes: 60
    - match: "Refeição estendida"
      minutes: 90
  exempt:
    - "Parada Programada"
`), 0o644)
	require.NoError(t, err)

	tables, err := LoadTables(path)
	require.NoError(t, err)

	eff := tables[Efficiency]
	assert.Equal(t, Efficiency, eff.Kind)
	assert.Equal(t, []constants.Discount{
		{Match: "Refeição", Minutes: 60},
		{Match: "Refeição estendida", Minutes: 90},
	}, eff.Discounts)

	d, _ := eff.Discount(stop("TMF001", 1, storage.ShiftMorning, 120, "Refeição estendida", ""))
	assert.Equal(t, 90, d)

	assert.Equal(t, constants.RepairAffects, tables[Repair].Affects, "missing sections keep the defaults")

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), def)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"eff":         Efficiency,
		"Eficiencia":  Efficiency,
		"perf":        Performance,
		"performance": Performance,
		"repair":      Repair,
		" reparo ":    Repair,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseKind("oee")
	assert.Error(t, err)

	assert.Equal(t, "df_perf", Performance.Key())
	assert.Equal(t, "df_repair_lookback", Repair.LookbackKey())
}
