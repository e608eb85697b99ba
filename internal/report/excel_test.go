package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"frontdesk/internal/model"
	"frontdesk/internal/scheduling"
)

func TestWriteDaily(t *testing.T) {
	date := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.Local)
	agenda := []scheduling.RoomAgenda{
		{
			Room: "C1",
			Name: "Consulting Room 1",
			Bookings: []model.Booking{
				{
					Reference:       "ref-1",
					StartTime:       time.Date(2026, time.March, 9, 10, 0, 0, 0, time.Local),
					DurationMinutes: 30,
					PatientID:       10,
					DoctorID:        20,
					ProcedureID:     30,
					Specialty:       "ESF 1",
					Status:          model.StatusScheduled,
				},
			},
		},
		{Room: "C6", Name: "Consulting Room 6"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDaily(&buf, date, agenda))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Contains(t, sheets, "C1 Consulting Room 1")
	require.Contains(t, sheets, "C6 Consulting Room 6")

	rows, err := f.GetRows("C1 Consulting Room 1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "10:00", rows[1][0])
	assert.Equal(t, "30", rows[1][1])
	assert.Equal(t, "scheduled", rows[1][6])
}

func TestWriteDaily_EmptyAgenda(t *testing.T) {
	date := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.Local)

	var buf bytes.Buffer
	require.NoError(t, WriteDaily(&buf, date, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"2026-03-09"}, f.GetSheetList())
}
