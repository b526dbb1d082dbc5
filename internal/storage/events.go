package storage

import (
	"strings"
	"time"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusInTest  Status = "in_test"
)

func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rodando", "running", "produzindo":
		return StatusRunning
	case "parada", "stopped", "parado":
		return StatusStopped
	case "em teste", "em_teste", "in_test", "teste":
		return StatusInTest
	}
	return Status(strings.ToLower(strings.TrimSpace(s)))
}

// Occurrence is a stop annotation typed by an operator.
type Occurrence struct {
	MachineID  string    `json:"maquina_id"`
	Date       time.Time `json:"data_registro"`
	Time       string    `json:"hora_registro"`
	At         time.Time `json:"data_hora"`
	ReasonID   *int      `json:"motivo_id"`
	ReasonName *string   `json:"motivo_nome"`
	Equipment  *string   `json:"equipamento"`
	Problem    *string   `json:"problema"`
	Cause      *string   `json:"causa"`
	Solution   *string   `json:"solucao"`
	OperatorID *string   `json:"operador_id"`
	OSNumber   *string   `json:"os_numero"`
}

// InfoSample is one status snapshot sent by a machine. Its interval runs until the
// next sample of the same machine.
type InfoSample struct {
	MachineID string    `json:"maquina_id"`
	Date      time.Time `json:"data_registro"`
	Time      string    `json:"hora_registro"`
	At        time.Time `json:"data_hora"`
	Status    Status    `json:"status"`
	Shift     Shift     `json:"turno"`
}

// Registration assigns a machine to a line and factory from At onwards.
type Registration struct {
	MachineID string    `json:"maquina_id"`
	Date      time.Time `json:"data_registro"`
	Time      string    `json:"hora_registro"`
	At        time.Time `json:"data_hora"`
	Line      int       `json:"linha"`
	Factory   int       `json:"fabrica"`
}

// CounterSample is a cumulative production counter reading.
type CounterSample struct {
	MachineID  string    `json:"maquina_id"`
	Date       time.Time `json:"data_registro"`
	Time       string    `json:"hora_registro"`
	At         time.Time `json:"data_hora"`
	Shift      Shift     `json:"turno"`
	TotalCount int64     `json:"contagem_total"`
}

// RawEvents is everything one refresh cycle reads from the operations database.
type RawEvents struct {
	Occurrences   []Occurrence
	Info          []InfoSample
	Registrations []Registration
	Counters      []CounterSample
}
