package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Sheet1"

// Header returns the column names for samples. Axis columns follow the axes of
// the first sample.
func Header(samples []Sample) []string {
	cols := []string{"time", "mode", "height", "pitch", "roll", "yaw", "fl", "fr", "rl", "rr"}
	if len(samples) > 0 {
		for _, a := range samples[0].Axes {
			cols = append(cols, a.Axis+"_sp", a.Axis+"_p", a.Axis+"_i", a.Axis+"_d")
		}
	}
	return cols
}

func row(s Sample, axes []AxisSample) []any {
	out := []any{s.Time, s.Mode, s.Height, s.Pitch, s.Roll, s.Yaw,
		s.Motors[0], s.Motors[1], s.Motors[2], s.Motors[3]}
	for _, want := range axes {
		a, _ := s.Axis(want.Axis)
		out = append(out, a.SetPoint, a.P, a.I, a.D)
	}
	return out
}

func columns(samples []Sample) []AxisSample {
	if len(samples) == 0 {
		return nil
	}
	return samples[0].Axes
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(samples)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	axes := columns(samples)
	for _, s := range samples {
		cells := row(s, axes)
		rec := make([]string, len(cells))
		for i, c := range cells {
			switch v := c.(type) {
			case float64:
				rec[i] = strconv.FormatFloat(v, 'f', 6, 64)
			case string:
				rec[i] = v
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes samples to a single-sheet workbook.
func WriteXLSX(w io.Writer, samples []Sample) error {
	f := excelize.NewFile()
	defer f.Close()

	header := Header(samples)
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	axes := columns(samples)
	for i, s := range samples {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row(s, axes)
		if err := f.SetSheetRow(xlsxSheet, cell, &r); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
