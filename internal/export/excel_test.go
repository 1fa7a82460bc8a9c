package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"facility-booking-backend/internal/model"
)

func TestWriteBookings(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	start := time.Date(2030, 1, 2, 2, 0, 0, 0, time.UTC)
	eta := time.Date(2030, 1, 1, 1, 30, 0, 0, time.UTC)

	bookings := []model.Booking{
		{
			ID: "b2", FacilityID: "f1", UserName: "Mahasiswa Teladan", EventName: "Seminar",
			StartTime: start, EndTime: start.Add(2 * time.Hour), Attendees: 150,
			Status: model.StatusPending, QueuePosition: 1, EstimatedConfirmationDate: &eta,
			CreatedAt: eta.Add(-30 * time.Minute),
		},
		{
			ID: "b1", FacilityID: "f9", UserName: "Unknown", EventName: "Rapat",
			StartTime: start, EndTime: start.Add(time.Hour), Attendees: 10,
			Status: model.StatusApproved, CreatedAt: eta.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings, map[string]string{"f1": "Graha Widya Wisuda (GWW)"}, wib))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])

	assert.Equal(t, "b2", rows[1][0])
	assert.Equal(t, "Graha Widya Wisuda (GWW)", rows[1][1])
	assert.Equal(t, "2030-01-02 09:00", rows[1][4])
	assert.Equal(t, "150", rows[1][6])
	assert.Equal(t, "PENDING", rows[1][7])
	assert.Equal(t, "1", rows[1][8])
	assert.Equal(t, "2030-01-01 08:30", rows[1][9])

	assert.Equal(t, "f9", rows[2][1])
	assert.Equal(t, "APPROVED", rows[2][7])
}

func TestWriteBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, nil, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
