package storage

import "time"

// NotReported labels stops and registrations nobody filled in.
const NotReported = "Não apontado"

// NotInformed labels a missing line or factory.
const NotInformed = "Não informado"

// Interval is one contiguous block of identical machine state inside a shift.
type Interval struct {
	MachineID  string    `json:"maquina_id"`
	Line       int       `json:"linha"`
	Factory    int       `json:"fabrica"`
	Shift      Shift     `json:"turno"`
	Date       time.Time `json:"data_registro"`
	Status     Status    `json:"status"`
	ReasonID   *int      `json:"motivo_id"`
	ReasonName *string   `json:"motivo"`
	Equipment  *string   `json:"equipamento"`
	Problem    *string   `json:"problema"`
	Cause      *string   `json:"causa"`
	Start      time.Time `json:"data_hora"`
	End        time.Time `json:"data_hora_final"`
	Minutes    int       `json:"tempo_registro_min"`
	OperatorID *string   `json:"operador_id"`
	OSNumber   *string   `json:"os_numero"`
}

// Reason returns the reason name or an empty string.
func (iv Interval) Reason() string {
	if iv.ReasonName == nil {
		return ""
	}
	return *iv.ReasonName
}

// Discounted is an interval with the minutes a KPI forgives.
type Discounted struct {
	Interval
	Discount int `json:"desconto_min"`
	Excess   int `json:"excedente"`
}

// Production is the number of units a machine made in one shift.
type Production struct {
	MachineID string    `json:"maquina_id"`
	Line      int       `json:"linha"`
	Factory   int       `json:"fabrica"`
	Date      time.Time `json:"data_registro"`
	Shift     Shift     `json:"turno"`
	Produced  int64     `json:"total_produzido"`
}

// KPIRow is the final indicator for one machine, day and shift.
type KPIRow struct {
	Kind            string    `json:"indicador"`
	MachineID       string    `json:"maquina_id"`
	Line            int       `json:"linha"`
	Factory         int       `json:"fabrica"`
	Date            time.Time `json:"data_registro"`
	Shift           Shift     `json:"turno"`
	Minutes         int       `json:"tempo"`
	Discount        int       `json:"desconto"`
	Excess          int       `json:"afeta"`
	ExpectedMinutes int       `json:"tempo_esperado"`
	ExpectedOutput  float64   `json:"producao_esperada"`
	Produced        int64     `json:"total_produzido"`
	Value           *float64  `json:"valor"`
}

type MonthlyHistory struct {
	Month                string   `json:"mes"`
	TotalBoxes           int64    `json:"total_caixas"`
	EfficiencyAvg        *float64 `json:"eficiencia_media"`
	PerformanceAvg       *float64 `json:"performance_media"`
	RepairAvg            *float64 `json:"reparo_medio"`
	ScheduledStopMinutes int      `json:"parada_programada_min"`
}

type TopStop struct {
	Line    int    `json:"linha"`
	Reason  string `json:"motivo"`
	Problem string `json:"problema"`
	Minutes int    `json:"tempo"`
	Count   int    `json:"ocorrencias"`
}
