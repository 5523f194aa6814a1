package utils

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) SweepStale(context.Context) (int, int, error) {
	s.calls.Add(1)
	return 1, 2, nil
}

type countingPruner struct{ calls atomic.Int32 }

func (p *countingPruner) PruneClosed() int {
	p.calls.Add(1)
	return 0
}

func TestCronCleanerRunsSweep(t *testing.T) {
	sweeper, pruner := &countingSweeper{}, &countingPruner{}
	c, err := CronCleaner("@every 1s", sweeper, pruner, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	defer func() { <-c.Stop().Done() }()

	deadline := time.Now().Add(5 * time.Second)
	for sweeper.calls.Load() == 0 || pruner.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweep never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestCronCleanerRejectsBadSchedule(t *testing.T) {
	if _, err := CronCleaner("every now and then", &countingSweeper{}, &countingPruner{}, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected an error")
	}
}
