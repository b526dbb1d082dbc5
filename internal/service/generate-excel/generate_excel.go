package generate_excel

import (
	"context"
	"fmt"
	"github.com/xuri/excelize/v2"
	"shopfloor-kpi/internal/cache"
	"shopfloor-kpi/internal/service/indicator"
	"shopfloor-kpi/internal/storage"
	"slices"
	"strconv"
	"time"
)

type TableReader interface {
	Get(key string) ([]byte, error)
}

// Filter selects the indicator rows that go into the report. Zero values select all.
type Filter struct {
	Kind     indicator.Kind
	Lookback bool
	From     time.Time
	To       time.Time
	Line     int
}

type GenerateExcelService struct {
	cache TableReader
}

func NewGenerateService(cache TableReader) *GenerateExcelService {
	return &GenerateExcelService{cache: cache}
}

var sheetNames = map[indicator.Kind]string{
	indicator.Efficiency:  "Eficiência",
	indicator.Performance: "Performance",
	indicator.Repair:      "Reparo",
}

var headers = []string{
	"Data", "Turno", "Linha", "Fábrica", "Máquina", "Tempo parado (min)", "Desconto (min)",
	"Afeta (min)", "Tempo esperado (min)", "Produção esperada", "Total produzido",
}

func (f Filter) match(r storage.KPIRow) bool {
	if !f.From.IsZero() && r.Date.Before(storage.Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(storage.Day(f.To)) {
		return false
	}
	return f.Line == 0 || r.Line == f.Line
}

func lineText(line int) string {
	if line == 0 {
		return storage.NotInformed
	}
	return strconv.Itoa(line)
}

// GenerateExcel renders the cached rows of one indicator as an xlsx workbook.
func (g *GenerateExcelService) GenerateExcel(ctx context.Context, filter Filter) ([]byte, error) {
	const op = "service.generate_excel.GenerateExcel"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key := filter.Kind.Key()
	if filter.Lookback {
		key = filter.Kind.LookbackKey()
	}

	data, err := g.cache.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, key, err)
	}
	rows, err := cache.DecodeColumns[storage.KPIRow](data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetNames[filter.Kind]
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	percentStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 10})

	cols := append(slices.Clone(headers), sheet)
	for i, name := range cols {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(cols), 1), headerStyle)

	rowNum := 1
	for _, r := range rows {
		if !filter.match(r) {
			continue
		}
		rowNum++

		f.SetCellValue(sheet, cellName(1, rowNum), r.Date.Format("02/01/2006"))
		f.SetCellValue(sheet, cellName(2, rowNum), string(r.Shift))
		f.SetCellValue(sheet, cellName(3, rowNum), lineText(r.Line))
		f.SetCellValue(sheet, cellName(4, rowNum), lineText(r.Factory))
		f.SetCellValue(sheet, cellName(5, rowNum), r.MachineID)
		f.SetCellValue(sheet, cellName(6, rowNum), r.Minutes)
		f.SetCellValue(sheet, cellName(7, rowNum), r.Discount)
		f.SetCellValue(sheet, cellName(8, rowNum), r.Excess)
		f.SetCellValue(sheet, cellName(9, rowNum), r.ExpectedMinutes)
		f.SetCellValue(sheet, cellName(10, rowNum), r.ExpectedOutput)
		f.SetCellValue(sheet, cellName(11, rowNum), r.Produced)

		// no value stays an empty cell, not 0%
		if r.Value != nil {
			f.SetCellValue(sheet, cellName(12, rowNum), *r.Value)
			f.SetCellStyle(sheet, cellName(12, rowNum), cellName(12, rowNum), percentStyle)
		}
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	f.SetColWidth(sheet, "A", "L", 15)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
