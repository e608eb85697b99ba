// Package report builds the front desk's daily booking report as an
// Excel workbook, one sheet per room.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"frontdesk/internal/scheduling"
)

var columns = []string{"Time", "Duration (min)", "Patient", "Doctor", "Procedure", "Specialty", "Status", "Reference"}

// WriteDaily renders the day agenda as an xlsx workbook to w.
func WriteDaily(w io.Writer, date time.Time, agenda []scheduling.RoomAgenda) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, room := range agenda {
		sheet := sheetName(room.Room, room.Name)
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		if err := writeHeader(f, sheet); err != nil {
			return err
		}

		for rowIdx, b := range room.Bookings {
			row := []interface{}{
				b.StartTime.Format("15:04"),
				b.DurationMinutes,
				b.PatientID,
				b.DoctorID,
				b.ProcedureID,
				b.Specialty,
				b.Status,
				b.Reference,
			}
			for colIdx, val := range row {
				cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					return err
				}
			}
		}
	}

	if len(agenda) == 0 {
		f.SetSheetName("Sheet1", date.Format("2006-01-02"))
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}
	return nil
}

// sheetName keeps within Excel's 31 character sheet limit.
func sheetName(code, name string) string {
	s := code
	if name != "" {
		s = code + " " + name
	}
	if len(s) > 31 {
		s = s[:31]
	}
	return s
}
