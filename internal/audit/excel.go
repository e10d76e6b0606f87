// Package audit exports reservation history to Excel workbooks for
// administrative review.
package audit

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"sarc/internal/models"
)

var reservationColumns = []string{
	"Reservation ID", "Class ID", "Slot (UTC)", "Quantity", "Created At (UTC)",
}

// Exporter builds a workbook with one sheet per resource.
type Exporter struct {
	file       *excelize.File
	sheetCount int
}

// NewExporter creates an empty workbook.
func NewExporter() *Exporter {
	return &Exporter{file: excelize.NewFile()}
}

// AddResourceSheet writes one resource's reservations to its own sheet,
// named after the resource.
func (e *Exporter) AddResourceSheet(resource *models.Resource, reservations []models.Reservation) error {
	name := resource.Name
	// Excel limits sheet names to 31 chars
	if len(name) > 31 {
		name = name[:31]
	}

	if e.sheetCount == 0 {
		e.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := e.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	e.sheetCount++

	if err := e.writeRow(name, 1, toCells(reservationColumns)); err != nil {
		return err
	}
	for i, r := range reservations {
		row := []any{
			r.ID.String(),
			r.ClassID.String(),
			r.StartsAt.UTC().Format(time.RFC3339),
			r.Quantity,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := e.writeRow(name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo writes the workbook to w.
func (e *Exporter) WriteTo(w io.Writer) error {
	if e.sheetCount == 0 {
		return fmt.Errorf("no sheets to export")
	}
	if err := e.file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Close releases the underlying workbook.
func (e *Exporter) Close() error {
	return e.file.Close()
}

func (e *Exporter) writeRow(sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := e.file.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}
