package jobs

import (
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	r := NewRunner(nil, nil, 6)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the hour runs today",
			now:  time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "after the hour runs tomorrow",
			now:  time.Date(2026, 8, 31, 7, 30, 0, 0, time.UTC),
			want: time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour runs tomorrow",
			now:  time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.nextRun(tt.now); !got.Equal(tt.want) {
				t.Errorf("nextRun(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestNewRunnerClampsHour(t *testing.T) {
	for _, hour := range []int{-1, 24, 99} {
		r := NewRunner(nil, nil, hour)
		if r.hourUTC != 0 {
			t.Errorf("NewRunner(hour=%d).hourUTC = %d, want 0", hour, r.hourUTC)
		}
	}
}
