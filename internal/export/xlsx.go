// Package export renders the sample series as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"math"
	"time"

	"pitwatch"

	"github.com/xuri/excelize/v2"
)

const (
	samplesSheet = "Samples"
	probesSheet  = "Probes"

	timeLayout = "2006-01-02 15:04:05"
)

// WriteXLSX writes one row per sample. Disconnected probes and a missing
// setpoint are left blank.
func WriteXLSX(w io.Writer, names [pitwatch.NumProbes]string, samples []pitwatch.Sample) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", samplesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Time", "Unix", "Set point", probeHeader(names, 0), probeHeader(names, 1), probeHeader(names, 2), probeHeader(names, 3), "Fan %", "Lid open"}
	if err := f.SetSheetRow(samplesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, s := range samples {
		row := []any{
			time.Unix(s.Time, 0).UTC().Format(timeLayout),
			s.Time,
			cell(s.SetPoint),
			cell(s.Probes[0]),
			cell(s.Probes[1]),
			cell(s.Probes[2]),
			cell(s.Probes[3]),
			s.FanSpeed,
			s.LidOpen,
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(samplesSheet, addr, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if _, err := f.NewSheet(probesSheet); err != nil {
		return fmt.Errorf("add probes sheet: %w", err)
	}
	_ = f.SetCellValue(probesSheet, "A1", "Probe")
	_ = f.SetCellValue(probesSheet, "B1", "Name")
	for p, name := range names {
		_ = f.SetCellValue(probesSheet, fmt.Sprintf("A%d", p+2), p)
		_ = f.SetCellValue(probesSheet, fmt.Sprintf("B%d", p+2), name)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func probeHeader(names [pitwatch.NumProbes]string, p int) string {
	if names[p] != "" {
		return names[p]
	}
	return fmt.Sprintf("Probe %d", p)
}

// cell returns nil for readings that should stay blank.
func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
