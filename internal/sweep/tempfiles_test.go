package sweep_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dugout/internal/mediastore"
	"dugout/internal/sweep"
	"dugout/internal/testsupport"
)

func TestCleanupRemovesFinishedUnitSources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	photoPath := filepath.Join(cfg.Paths.ScratchDir, "done.jpg")
	videoPath := filepath.Join(cfg.Paths.ScratchDir, "done.mov")
	testsupport.WriteFile(t, photoPath, 16)
	testsupport.WriteFile(t, videoPath, 16)
	pendingPath := filepath.Join(cfg.Paths.ScratchDir, "pending.jpg")
	testsupport.WriteFile(t, pendingPath, 16)

	task := testsupport.NewTask(t, store, nil,
		testsupport.NewLivePhotoUnit("done", photoPath, "done.jpg", videoPath, "done.mov"),
		testsupport.NewPhotoUnit("pending", pendingPath, "pending.jpg"))
	task.Units[0].Processed = true
	if err := store.UpdateUnit(ctx, task.Units[0]); err != nil {
		t.Fatalf("UpdateUnit: %v", err)
	}

	collector := sweep.NewTempFileCollector(store, cfg, nil)
	if err := collector.CleanupOnce(ctx); err != nil {
		t.Fatalf("CleanupOnce: %v", err)
	}

	for _, path := range []string{photoPath, videoPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s still on disk", path)
		}
	}
	if _, err := os.Stat(pendingPath); err != nil {
		t.Errorf("pending unit source removed: %v", err)
	}

	loaded, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !loaded.Units[0].FilesPurged {
		t.Error("processed unit not marked purged")
	}
	if loaded.Units[1].FilesPurged {
		t.Error("pending unit marked purged")
	}
}

func TestCleanupToleratesAlreadyMissingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := testsupport.NewTask(t, store, nil,
		testsupport.NewPhotoUnit("gone", filepath.Join(cfg.Paths.ScratchDir, "gone.jpg"), "gone.jpg"))
	task.Status = mediastore.StatusCompleted
	if err := store.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	collector := sweep.NewTempFileCollector(store, cfg, nil)
	if err := collector.CleanupOnce(ctx); err != nil {
		t.Fatalf("CleanupOnce: %v", err)
	}

	loaded, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !loaded.Units[0].FilesPurged {
		t.Error("missing source should still count as purged")
	}
}

func TestCleanupRetriesAfterFailedDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// A non-empty directory at the source path makes os.Remove fail with
	// something other than not-exist.
	blockedPath := filepath.Join(cfg.Paths.ScratchDir, "blocked.jpg")
	if err := os.MkdirAll(blockedPath, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(blockedPath, "inner"), 4)

	task := testsupport.NewTask(t, store, nil,
		testsupport.NewPhotoUnit("blocked", blockedPath, "blocked.jpg"))
	task.Units[0].Processed = true
	if err := store.UpdateUnit(ctx, task.Units[0]); err != nil {
		t.Fatalf("UpdateUnit: %v", err)
	}

	collector := sweep.NewTempFileCollector(store, cfg, nil)
	if err := collector.CleanupOnce(ctx); err != nil {
		t.Fatalf("CleanupOnce: %v", err)
	}
	loaded, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if loaded.Units[0].FilesPurged {
		t.Fatal("unit marked purged despite failed delete")
	}

	if err := os.Remove(filepath.Join(blockedPath, "inner")); err != nil {
		t.Fatalf("clear obstruction: %v", err)
	}
	if err := collector.CleanupOnce(ctx); err != nil {
		t.Fatalf("CleanupOnce retry: %v", err)
	}
	loaded, err = store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !loaded.Units[0].FilesPurged {
		t.Error("retry did not mark unit purged")
	}
	if _, err := os.Stat(blockedPath); !os.IsNotExist(err) {
		t.Error("source path still on disk after retry")
	}
}

func TestOrphansRemovesAgedUnreferencedMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sweep.OrphanAgeHours = 1
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)

	orphanPath := filepath.Join(cfg.Paths.ScratchDir, "orphan.heic")
	referencedPath := filepath.Join(cfg.Paths.ScratchDir, "active.heic")
	freshPath := filepath.Join(cfg.Paths.ScratchDir, "fresh.heic")
	notMediaPath := filepath.Join(cfg.Paths.ScratchDir, "media.db")
	for _, path := range []string{orphanPath, referencedPath, freshPath, notMediaPath} {
		testsupport.WriteFile(t, path, 16)
	}
	for _, path := range []string{orphanPath, referencedPath, notMediaPath} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	testsupport.NewTask(t, store, nil,
		testsupport.NewPhotoUnit("active", referencedPath, "active.heic"))

	collector := sweep.NewTempFileCollector(store, cfg, nil)
	if err := collector.OrphansOnce(ctx); err != nil {
		t.Fatalf("OrphansOnce: %v", err)
	}

	if _, err := os.Stat(orphanPath); !os.IsNotExist(err) {
		t.Error("aged orphan survived the sweep")
	}
	for name, path := range map[string]string{
		"referenced": referencedPath,
		"fresh":      freshPath,
		"non-media":  notMediaPath,
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s file removed: %v", name, err)
		}
	}
}

func TestOrphansSkipsProcessedUnitPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sweep.OrphanAgeHours = 1
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	path := filepath.Join(cfg.Paths.ScratchDir, "leftover.heic")
	testsupport.WriteFile(t, path, 16)
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	task := testsupport.NewTask(t, store, nil,
		testsupport.NewPhotoUnit("leftover", path, "leftover.heic"))
	task.Units[0].Processed = true
	if err := store.UpdateUnit(ctx, task.Units[0]); err != nil {
		t.Fatalf("UpdateUnit: %v", err)
	}

	collector := sweep.NewTempFileCollector(store, cfg, nil)
	if err := collector.OrphansOnce(ctx); err != nil {
		t.Fatalf("OrphansOnce: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("processed unit source is fair game for the orphan sweep")
	}
}
