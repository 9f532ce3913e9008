package stream

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testAcquirer(delays *[]time.Duration) *Acquirer {
	a := NewAcquirer()
	a.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return a
}

func TestAcquireRetriesWithLinearBackoff(t *testing.T) {
	var delays []time.Duration
	a := testAcquirer(&delays)

	calls := 0
	err := a.Acquire(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if calls != 3 {
		t.Errorf("open called %d times, want 3", calls)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestAcquireExhaustedReturnsUnavailable(t *testing.T) {
	var delays []time.Duration
	a := testAcquirer(&delays)

	calls := 0
	err := a.Acquire(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if calls != 3 {
		t.Errorf("open called %d times, want 3", calls)
	}
	// No sleep after the final attempt.
	if len(delays) != 2 {
		t.Errorf("slept %d times, want 2", len(delays))
	}
}

func TestAcquireStopsOnCancel(t *testing.T) {
	a := NewAcquirer()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := a.Acquire(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("open called %d times, want 1", calls)
	}
}
