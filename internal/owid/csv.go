package owid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	columnISOCode  = "iso_code"
	columnLocation = "location"
	columnDate     = "date"

	columnDeathRate                 = "death_rate"
	columnVaccinationPercentage     = "vaccination_percentage"
	columnFullVaccinationPercentage = "full_vaccination_percentage"
)

// csvColumns is the column order WriteCSV emits.
var csvColumns = func() []string {
	cols := []string{columnISOCode, columnLocation, columnDate}
	for _, m := range TrackedMetrics {
		cols = append(cols, string(m))
	}
	return append(cols, columnDeathRate, columnVaccinationPercentage, columnFullVaccinationPercentage)
}()

// ParseCSV decodes an OWID-schema CSV stream. Columns are located by header
// name; columns the model does not track are ignored. The upstream export
// carries dozens of extra columns, so only iso_code, location, date, and the
// tracked metrics are required. Empty metric cells decode to NaN. Row order
// is preserved.
func ParseCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv input")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	col := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	var missing []string
	for _, name := range csvColumns[:3+len(TrackedMetrics)] {
		if col(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header missing required columns: %s", strings.Join(missing, ", "))
	}

	isoIdx := col(columnISOCode)
	locIdx := col(columnLocation)
	dateIdx := col(columnDate)
	metricIdx := make([]int, len(TrackedMetrics))
	for i, m := range TrackedMetrics {
		metricIdx[i] = col(string(m))
	}
	deathRateIdx := col(columnDeathRate)
	vaccPctIdx := col(columnVaccinationPercentage)
	fullVaccPctIdx := col(columnFullVaccinationPercentage)

	var table Table
	rowNum := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNum, err)
		}

		date, err := time.Parse(DateLayout, field(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse date: %w", rowNum, err)
		}

		rec := Record{
			ISOCode:  field(row, isoIdx),
			Location: field(row, locIdx),
			Date:     date,
		}
		for i, m := range TrackedMetrics {
			v, err := parseCell(field(row, metricIdx[i]))
			if err != nil {
				return nil, fmt.Errorf("csv row %d, column %q: %w", rowNum, m, err)
			}
			// SetValue cannot fail here, m is always a tracked metric.
			_ = rec.SetValue(m, v)
		}
		if rec.DeathRate, err = parseCell(field(row, deathRateIdx)); err != nil {
			return nil, fmt.Errorf("csv row %d, column %q: %w", rowNum, columnDeathRate, err)
		}
		if rec.VaccinationPercentage, err = parseCell(field(row, vaccPctIdx)); err != nil {
			return nil, fmt.Errorf("csv row %d, column %q: %w", rowNum, columnVaccinationPercentage, err)
		}
		if rec.FullVaccinationPercentage, err = parseCell(field(row, fullVaccPctIdx)); err != nil {
			return nil, fmt.Errorf("csv row %d, column %q: %w", rowNum, columnFullVaccinationPercentage, err)
		}

		table = append(table, rec)
	}
	return table, nil
}

// WriteCSV encodes the modeled columns in canonical order. NaN values are
// written as empty cells, so output round-trips through ParseCSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(csvColumns))
	for i := range t {
		rec := &t[i]
		row[0] = rec.ISOCode
		row[1] = rec.Location
		row[2] = rec.Date.Format(DateLayout)
		for j, m := range TrackedMetrics {
			v, _ := rec.Value(m)
			row[3+j] = formatCell(v)
		}
		base := 3 + len(TrackedMetrics)
		row[base] = formatCell(rec.DeathRate)
		row[base+1] = formatCell(rec.VaccinationPercentage)
		row[base+2] = formatCell(rec.FullVaccinationPercentage)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// field tolerates short rows and absent columns, both read as empty cells.
func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric cell %q: %w", cell, err)
	}
	return v, nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
