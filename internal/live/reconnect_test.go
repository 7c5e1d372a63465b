package live

import (
	"testing"
	"time"

	"github.com/eleven-am/live-gateway/internal/shared"
)

func TestNormalizeBackoff(t *testing.T) {
	tests := []struct {
		name  string
		input shared.BackoffConfig
		want  shared.BackoffConfig
	}{
		{
			name:  "empty config gets defaults",
			input: shared.BackoffConfig{},
			want: shared.BackoffConfig{
				Initial:     time.Second,
				MaxAttempts: 3,
				MaxDelay:    30 * time.Second,
			},
		},
		{
			name: "preserves non-zero values",
			input: shared.BackoffConfig{
				Initial:     200 * time.Millisecond,
				MaxAttempts: 10,
				MaxDelay:    5 * time.Second,
			},
			want: shared.BackoffConfig{
				Initial:     200 * time.Millisecond,
				MaxAttempts: 10,
				MaxDelay:    5 * time.Second,
			},
		},
		{
			name: "normalizes only zero values",
			input: shared.BackoffConfig{
				Initial:     0,
				MaxAttempts: 7,
				MaxDelay:    0,
			},
			want: shared.BackoffConfig{
				Initial:     time.Second,
				MaxAttempts: 7,
				MaxDelay:    30 * time.Second,
			},
		},
		{
			name: "negative values treated as zero",
			input: shared.BackoffConfig{
				Initial:     -time.Second,
				MaxAttempts: -5,
				MaxDelay:    -time.Second,
			},
			want: shared.BackoffConfig{
				Initial:     time.Second,
				MaxAttempts: 3,
				MaxDelay:    30 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeBackoff(tt.input)
			if got.Initial != tt.want.Initial {
				t.Errorf("Initial = %v, want %v", got.Initial, tt.want.Initial)
			}
			if got.MaxAttempts != tt.want.MaxAttempts {
				t.Errorf("MaxAttempts = %d, want %d", got.MaxAttempts, tt.want.MaxAttempts)
			}
			if got.MaxDelay != tt.want.MaxDelay {
				t.Errorf("MaxDelay = %v, want %v", got.MaxDelay, tt.want.MaxDelay)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := shared.BackoffConfig{
		Initial:     time.Second,
		MaxAttempts: 5,
		MaxDelay:    5 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
		{10, 5 * time.Second},
		{80, 5 * time.Second},
	}

	for _, tt := range tests {
		if got := backoffDelay(cfg, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestScheduler_CeilingStopsScheduling(t *testing.T) {
	s := newScheduler(shared.BackoffConfig{
		Initial:     time.Minute,
		MaxAttempts: 2,
		MaxDelay:    time.Hour,
	}, testLogger())
	defer s.CancelPending()

	if _, ok := s.Schedule(func() {}); !ok {
		t.Fatal("first schedule should succeed")
	}
	if _, ok := s.Schedule(func() {}); !ok {
		t.Fatal("second schedule should succeed")
	}
	if _, ok := s.Schedule(func() {}); ok {
		t.Error("scheduling past the ceiling must refuse")
	}
	if s.Attempts() != 2 {
		t.Errorf("Attempts = %d, want 2", s.Attempts())
	}

	s.Reset()
	if s.Attempts() != 0 {
		t.Errorf("Attempts after Reset = %d, want 0", s.Attempts())
	}
	if s.Pending() {
		t.Error("Reset should disarm the timer")
	}
	if _, ok := s.Schedule(func() {}); !ok {
		t.Error("Reset should allow scheduling again")
	}
}

func TestScheduler_DelaysGrowToCap(t *testing.T) {
	s := newScheduler(shared.BackoffConfig{
		Initial:     10 * time.Millisecond,
		MaxAttempts: 4,
		MaxDelay:    25 * time.Millisecond,
	}, testLogger())

	want := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		25 * time.Millisecond,
		25 * time.Millisecond,
	}
	for i, w := range want {
		d, ok := s.Schedule(func() {})
		if !ok {
			t.Fatalf("schedule %d refused below ceiling", i)
		}
		s.CancelPending()
		if d != w {
			t.Errorf("delay %d = %v, want %v", i, d, w)
		}
	}
}

func TestScheduler_CancelPendingKeepsAttempts(t *testing.T) {
	s := newScheduler(shared.BackoffConfig{
		Initial:     20 * time.Millisecond,
		MaxAttempts: 3,
		MaxDelay:    time.Second,
	}, testLogger())

	s.Schedule(func() { t.Error("cancelled retry must not fire") })
	if !s.CancelPending() {
		t.Error("CancelPending should report a prevented fire")
	}
	if s.Pending() {
		t.Error("nothing should be pending after cancel")
	}
	if s.Attempts() != 1 {
		t.Errorf("Attempts = %d, want 1 (cancel keeps the count)", s.Attempts())
	}

	time.Sleep(60 * time.Millisecond)
}
