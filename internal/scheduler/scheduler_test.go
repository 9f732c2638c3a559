// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgverify-jobs/internal/common/logger"
)

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context) error { return nil }

func TestCronSpec(t *testing.T) {
	tests := []struct {
		name    string
		at      string
		want    string
		wantErr bool
	}{
		{"morning", "09:00", "0 9 * * *", false},
		{"half past", "11:30", "30 11 * * *", false},
		{"midnight", "00:00", "0 0 * * *", false},
		{"last minute", "23:59", "59 23 * * *", false},
		{"surrounding whitespace", " 14:00 ", "0 14 * * *", false},
		{"missing colon", "0900", "", true},
		{"hour out of range", "24:00", "", true},
		{"minute out of range", "09:60", "", true},
		{"not a number", "ab:cd", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CronSpec(tt.at)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRegistersAllTimes(t *testing.T) {
	times := []string{"09:00", "11:30", "14:00", "16:30", "19:00"}

	s, err := New(noopRunner{}, times, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), len(times))
}

func TestNewRejectsEmptyTimes(t *testing.T) {
	_, err := New(noopRunner{}, nil, logger.NewTestLogger(t))
	assert.Error(t, err)
}

func TestNewRejectsMalformedTime(t *testing.T) {
	_, err := New(noopRunner{}, []string{"09:00", "25:00"}, logger.NewTestLogger(t))
	assert.Error(t, err)
}
