package sweep_test

import (
	"context"
	"testing"

	"dugout/internal/importqueue"
	"dugout/internal/mediastore"
	"dugout/internal/sweep"
	"dugout/internal/testsupport"
)

func TestRestarterRequeuesUnfinishedTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	queued := testsupport.NewTask(t, store, nil,
		testsupport.NewPhotoUnit("a", "/tmp/a.jpg", "a.jpg"))
	stalled := testsupport.NewTask(t, store, nil,
		testsupport.NewPhotoUnit("b", "/tmp/b.jpg", "b.jpg"))
	finished := testsupport.NewTask(t, store, nil,
		testsupport.NewPhotoUnit("c", "/tmp/c.jpg", "c.jpg"))

	stalled.Status = mediastore.StatusInProgress
	if err := store.UpdateTask(ctx, stalled); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	finished.Status = mediastore.StatusCompleted
	if err := store.UpdateTask(ctx, finished); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	queue := importqueue.New()
	restarter := sweep.NewRestarter(store, queue, cfg, nil)
	if err := restarter.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if queue.Len() != 2 {
		t.Fatalf("queue depth = %d, want 2", queue.Len())
	}
	first, _ := queue.Pop(ctx)
	second, _ := queue.Pop(ctx)
	if first != queued.ID || second != stalled.ID {
		t.Errorf("requeued order = %q, %q", first, second)
	}
}

func TestRestarterIdleWhenNothingPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	queue := importqueue.New()
	restarter := sweep.NewRestarter(store, queue, cfg, nil)
	if err := restarter.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if queue.Len() != 0 {
		t.Errorf("queue depth = %d, want 0", queue.Len())
	}
}
