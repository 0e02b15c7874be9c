// Package tabular converts between xlsx workbooks and records.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/blogem/registros/models"
)

// SheetName is the name of the sheet written on export.
const SheetName = "Registros"

// ErrInvalidSheet is wrapped by every import failure caused by the file itself.
var ErrInvalidSheet = errors.New("invalid spreadsheet")

var importColumns = []string{"nombre", "email", "puntaje"}

// ReadRecords parses the first sheet of an xlsx workbook. The first row is the
// header; columns are matched by name, or by position when the sheet has exactly
// three columns none of which is recognised.
func ReadRecords(r io.Reader) ([]models.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidSheet)
	}

	// raw values, so number formats such as #,##0 do not leak into parsing
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrInvalidSheet, sheets[0])
	}

	index, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	records := []models.Record{}
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row, index)
		if err != nil {
			// i+2: one for the header, one for 1-based numbering
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidSheet, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteRecords writes records as a single-sheet workbook in the given order.
func WriteRecords(w io.Writer, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(models.RecordColumns))
	for i, col := range models.RecordColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.ID, rec.Name, rec.Email, nil}
		if rec.Score != nil {
			row[3] = *rec.Score
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// columnIndex maps each import column to its position in the header row.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(importColumns))
	var unknown []int
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch name {
		case "nombre", "email", "puntaje":
			if _, dup := index[name]; dup {
				return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidSheet, name)
			}
			index[name] = i
		case "id":
		case "":
			// trailing empty header cells
		default:
			unknown = append(unknown, i)
		}
	}

	if len(index) == 0 && len(unknown) == len(importColumns) {
		for i, col := range importColumns {
			index[col] = unknown[i]
		}
		return index, nil
	}

	var missing []string
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrInvalidSheet, strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRow(row []string, index map[string]int) (models.Record, error) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	score, err := parseScore(cell("puntaje"))
	if err != nil {
		return models.Record{}, err
	}
	return models.Record{
		Name:  cell("nombre"),
		Email: cell("email"),
		Score: score,
	}, nil
}

// parseScore accepts integers and integral floats; a blank cell yields nil.
func parseScore(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("puntaje %q is not an integer", s)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("puntaje %q is out of range", s)
	}
	n := int64(f)
	return &n, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
