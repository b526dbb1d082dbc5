package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"shopfloor-kpi/internal/storage"
	"time"
)

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

func (s *Storage) GetOccurrences(ctx context.Context, since time.Time) ([]storage.Occurrence, error) {
	const op = "storage.mysql.GetOccurrences"

	stmt := `
		SELECT maquina_id, data_registro, hora_registro, motivo_id, motivo_nome,
		       equipamento, problema, causa, solucao, operador_id, os_numero
		FROM occurrences
		WHERE data_registro >= ?
		ORDER BY data_registro, hora_registro
	`

	rows, err := s.db.QueryContext(ctx, stmt, since)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var out []storage.Occurrence
	for rows.Next() {
		var (
			o        storage.Occurrence
			reasonID sql.NullInt64
			clock    sql.NullString
		)
		var reason, equipment, problem, cause, solution, opID, osNum sql.NullString

		err := rows.Scan(&o.MachineID, &o.Date, &clock, &reasonID, &reason,
			&equipment, &problem, &cause, &solution, &opID, &osNum)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		o.Time = clock.String
		o.ReasonID = nullInt(reasonID)
		o.ReasonName = nullString(reason)
		o.Equipment = nullString(equipment)
		o.Problem = nullString(problem)
		o.Cause = nullString(cause)
		o.Solution = nullString(solution)
		o.OperatorID = nullString(opID)
		o.OSNumber = nullString(osNum)

		out = append(out, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}

func (s *Storage) GetMachineInfo(ctx context.Context, since time.Time) ([]storage.InfoSample, error) {
	const op = "storage.mysql.GetMachineInfo"

	stmt := `
		SELECT maquina_id, data_registro, hora_registro, status, turno
		FROM machine_info
		WHERE data_registro >= ?
		ORDER BY maquina_id, data_registro, hora_registro
	`

	rows, err := s.db.QueryContext(ctx, stmt, since)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var out []storage.InfoSample
	for rows.Next() {
		var (
			in                   storage.InfoSample
			clock, status, shift sql.NullString
		)

		if err := rows.Scan(&in.MachineID, &in.Date, &clock, &status, &shift); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		in.Time = clock.String
		in.Status = storage.ParseStatus(status.String)
		in.Shift = storage.ParseShift(shift.String)

		out = append(out, in)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}

// GetRegistrations reads the whole registration history: a sample at the start of the
// window may be covered by a registration made long before it.
func (s *Storage) GetRegistrations(ctx context.Context) ([]storage.Registration, error) {
	const op = "storage.mysql.GetRegistrations"

	stmt := `
		SELECT maquina_id, data_registro, hora_registro, linha, fabrica
		FROM machine_registration
		ORDER BY maquina_id, data_registro, hora_registro
	`

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var out []storage.Registration
	for rows.Next() {
		var (
			r             storage.Registration
			clock         sql.NullString
			line, factory sql.NullInt64
		)

		if err := rows.Scan(&r.MachineID, &r.Date, &clock, &line, &factory); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		r.Time = clock.String
		r.Line = int(line.Int64)
		r.Factory = int(factory.Int64)

		out = append(out, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}

func (s *Storage) GetCounters(ctx context.Context, since time.Time) ([]storage.CounterSample, error) {
	const op = "storage.mysql.GetCounters"

	stmt := `
		SELECT maquina_id, data_registro, hora_registro, turno, contagem_total
		FROM machine_counter
		WHERE data_registro >= ?
		ORDER BY maquina_id, data_registro, hora_registro
	`

	rows, err := s.db.QueryContext(ctx, stmt, since)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var out []storage.CounterSample
	for rows.Next() {
		var (
			c            storage.CounterSample
			clock, shift sql.NullString
			total        sql.NullInt64
		)

		if err := rows.Scan(&c.MachineID, &c.Date, &clock, &shift, &total); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		c.Time = clock.String
		c.Shift = storage.ParseShift(shift.String)
		c.TotalCount = total.Int64

		out = append(out, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}
