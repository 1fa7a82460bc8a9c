package booking

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
}

func validRequest() Request {
	return Request{
		FacilityID:       "f1",
		UserID:           "user-mock-1",
		EventName:        "Seminar Nasional",
		EventDescription: "Annual seminar",
		Date:             "2030-01-02",
		StartTime:        "09:00",
		EndTime:          "11:00",
		Attendees:        "150",
	}
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator(time.UTC, fixedNow)

	p, err := v.Validate(validRequest())
	require.NoError(t, err)
	assert.Equal(t, 150, p.Attendees)
	assert.Equal(t, time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2030, 1, 2, 11, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, "f1", p.FacilityID)
	assert.Equal(t, "user-mock-1", p.UserID)
}

func TestValidator_ReadsLocalTime(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	v := NewValidator(wib, fixedNow)

	p, err := v.Validate(validRequest())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 2, 2, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.UTC, p.Start.Location())
}

func TestValidator_Rules(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(r *Request)
		expected error
	}{
		{
			name:     "negative attendees with valid dates",
			mutate:   func(r *Request) { r.Attendees = "-5" },
			expected: ErrInvalidAttendees,
		},
		{
			name:     "attendees checked before dates",
			mutate:   func(r *Request) { r.Attendees = "abc"; r.Date = "garbage" },
			expected: ErrInvalidAttendees,
		},
		{
			name:     "zero attendees",
			mutate:   func(r *Request) { r.Attendees = "0" },
			expected: ErrInvalidAttendees,
		},
		{
			name:     "bad date",
			mutate:   func(r *Request) { r.Date = "2030-02-30" },
			expected: ErrInvalidDateTime,
		},
		{
			name:     "bad start time",
			mutate:   func(r *Request) { r.StartTime = "9am" },
			expected: ErrInvalidDateTime,
		},
		{
			name:     "bad end time",
			mutate:   func(r *Request) { r.EndTime = "" },
			expected: ErrInvalidDateTime,
		},
		{
			name:     "end equals start",
			mutate:   func(r *Request) { r.EndTime = r.StartTime },
			expected: ErrEndBeforeStart,
		},
		{
			name:     "end before start in the past",
			mutate:   func(r *Request) { r.Date = "2020-01-01"; r.StartTime = "11:00"; r.EndTime = "09:00" },
			expected: ErrEndBeforeStart,
		},
		{
			name:     "start in the past",
			mutate:   func(r *Request) { r.Date = "2030-01-01"; r.StartTime = "07:59"; r.EndTime = "09:00" },
			expected: ErrStartInPast,
		},
	}

	v := NewValidator(time.UTC, fixedNow)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := v.Validate(req)
			assert.ErrorIs(t, err, tc.expected)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidator_StartingNowIsAllowed(t *testing.T) {
	v := NewValidator(time.UTC, fixedNow)
	req := validRequest()
	req.Date = "2030-01-01"
	req.StartTime = "08:00"
	req.EndTime = "09:00"

	_, err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_SkippedWallClock(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	v := NewValidator(newYork, func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })

	req := validRequest()
	req.Date = "2024-03-10"
	req.StartTime = "02:30"
	req.EndTime = "03:15"

	_, err = v.Validate(req)
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}
