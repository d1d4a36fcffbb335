package types_test

import (
	"testing"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestParseLogType(t *testing.T) {
	for _, lt := range types.AllLogTypes() {
		t.Run(lt.String(), func(t *testing.T) {
			got, err := types.ParseLogType(lt.String())
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(lt)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := types.ParseLogType("fatal")
		gt.Error(t, err)
	})
}

func TestParseMode(t *testing.T) {
	m, err := types.ParseMode("emitter")
	gt.NoError(t, err).Required()
	gt.Value(t, m).Equal(types.ModeEmitter)

	m, err = types.ParseMode("receiver")
	gt.NoError(t, err).Required()
	gt.Value(t, m).Equal(types.ModeReceiver)

	_, err = types.ParseMode("both")
	gt.Error(t, err)
}

func TestFrequency_Interval(t *testing.T) {
	tests := []struct {
		name string
		freq types.Frequency
		want time.Duration
	}{
		{name: "hourly", freq: types.FrequencyHourly, want: time.Hour},
		{name: "twicedaily", freq: types.FrequencyTwiceDaily, want: 12 * time.Hour},
		{name: "daily", freq: types.FrequencyDaily, want: 24 * time.Hour},
		{name: "weekly", freq: types.FrequencyWeekly, want: 168 * time.Hour},
		{name: "unknown", freq: types.Frequency("monthly"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.freq.Interval()).Equal(tt.want)
			gt.Value(t, tt.freq.IsValid()).Equal(tt.want > 0)
		})
	}

	_, err := types.ParseFrequency("monthly")
	gt.Error(t, err)
}
