package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunNowRecordsOutcome(t *testing.T) {
	svc := New(nil, 4)

	run, err := svc.RunNow(context.Background(), JobPayrollBatch, func(context.Context) (any, error) {
		return map[string]int{"employees": 3}, nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if run.Status != StatusCompleted || run.CompletedAt == nil || run.StartedAt == nil {
		t.Fatalf("unexpected run %+v", run)
	}

	stored, err := svc.Get(run.ID)
	if err != nil {
		t.Fatalf("expected stored run, got %v", err)
	}
	if stored.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
}

func TestRunNowFailure(t *testing.T) {
	svc := New(nil, 4)
	boom := errors.New("boom")

	run, err := svc.RunNow(context.Background(), JobPayrollBatch, func(context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if run.Status != StatusFailed || run.Error != "boom" {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestEnqueueRunsInBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(nil, 4)
	svc.Start(ctx)

	run, err := svc.Enqueue(JobPayrollBatch, func(context.Context) (any, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("expected enqueue, got %v", err)
	}
	if run.Status != StatusQueued {
		t.Fatalf("expected queued, got %s", run.Status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := svc.Get(run.ID)
		if err != nil {
			t.Fatalf("expected run, got %v", err)
		}
		if got.Status == StatusCompleted {
			if got.Details != "ok" {
				t.Fatalf("expected details ok, got %v", got.Details)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run did not complete in time")
}

func TestEnqueueQueueFull(t *testing.T) {
	svc := New(nil, 1)
	noop := func(context.Context) (any, error) { return nil, nil }

	if _, err := svc.Enqueue(JobPayrollBatch, noop); err != nil {
		t.Fatalf("expected first enqueue to succeed, got %v", err)
	}
	if _, err := svc.Enqueue(JobPayrollBatch, noop); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestGetUnknownRun(t *testing.T) {
	if _, err := New(nil, 1).Get("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
