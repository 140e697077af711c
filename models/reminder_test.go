package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Weekday
		wantErr bool
	}{
		{input: "monday", want: time.Monday},
		{input: "Friday", want: time.Friday},
		{input: "  SUNDAY  ", want: time.Sunday},
		{input: "mon", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekdayNameRoundTrips(t *testing.T) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		parsed, err := ParseWeekday(WeekdayName(wd))
		require.NoError(t, err)
		assert.Equal(t, wd, parsed)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{input: "09:30", wantHour: 9, wantMinute: 30},
		{input: "00:00", wantHour: 0, wantMinute: 0},
		{input: "23:59", wantHour: 23, wantMinute: 59},
		{input: "17:45:12", wantHour: 17, wantMinute: 45},
		{input: "24:00", wantErr: true},
		{input: "9am", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}
