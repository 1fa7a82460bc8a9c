package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"facility-booking-backend/internal/model"
)

// SheetName is the worksheet that holds the booking rows.
const SheetName = "Bookings"

// Columns is the header row of the booking export.
var Columns = []string{
	"ID", "Facility", "User", "Event", "Start", "End", "Attendees", "Status", "Queue Position", "Estimated Confirmation", "Submitted",
}

const timeLayout = "2006-01-02 15:04"

// WriteBookings renders bookings as an xlsx workbook. facilityNames maps facility
// ids to display names; unknown ids are written as-is. Times are shown in loc.
func WriteBookings(w io.Writer, bookings []model.Booking, facilityNames map[string]string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, col := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(Columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", end, style)
	}

	for r, b := range bookings {
		facility := b.FacilityID
		if name, ok := facilityNames[b.FacilityID]; ok {
			facility = name
		}

		var queue, eta any = "", ""
		if b.QueuePosition > 0 {
			queue = b.QueuePosition
		}
		if b.EstimatedConfirmationDate != nil {
			eta = b.EstimatedConfirmationDate.In(loc).Format(timeLayout)
		}

		row := []any{
			b.ID,
			facility,
			b.UserName,
			b.EventName,
			b.StartTime.In(loc).Format(timeLayout),
			b.EndTime.In(loc).Format(timeLayout),
			b.Attendees,
			string(b.Status),
			queue,
			eta,
			b.CreatedAt.In(loc).Format(timeLayout),
		}
		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, start, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
