package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Table keys published by a refresh cycle.
const (
	KeyIntervals = "df_info"
	KeyTopStops  = "df_top_stops"
)

// EncodeColumns serializes rows column by column, {"column": {"0": v0, "1": v1}}, the
// layout the dashboard reads. Field names follow the rows' json tags and times are
// written as RFC 3339.
func EncodeColumns[T any](rows []T) ([]byte, error) {
	const op = "cache.EncodeColumns"

	cols := make(map[string]map[string]json.RawMessage)
	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i, err)
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, fmt.Errorf("%s: row %d is not an object: %w", op, i, err)
		}

		idx := strconv.Itoa(i)
		for name, v := range fields {
			if cols[name] == nil {
				cols[name] = make(map[string]json.RawMessage, len(rows))
			}
			cols[name][idx] = v
		}
	}

	data, err := json.Marshal(cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// DecodeColumns is the inverse of EncodeColumns.
func DecodeColumns[T any](data []byte) ([]T, error) {
	const op = "cache.DecodeColumns"

	var cols map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	n := 0
	for name, col := range cols {
		for idx := range col {
			i, err := strconv.Atoi(idx)
			if err != nil || i < 0 || i >= len(col) {
				return nil, fmt.Errorf("%s: column %s: bad row index %q", op, name, idx)
			}
			n = max(n, i+1)
		}
	}

	fields := make([]map[string]json.RawMessage, n)
	for name, col := range cols {
		for idx, v := range col {
			i, _ := strconv.Atoi(idx)
			if fields[i] == nil {
				fields[i] = make(map[string]json.RawMessage, len(cols))
			}
			fields[i][name] = v
		}
	}

	rows := make([]T, n)
	for i, f := range fields {
		b, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i, err)
		}
		if err := json.Unmarshal(b, &rows[i]); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i, err)
		}
	}
	return rows, nil
}
