package sweep_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"dugout/internal/importqueue"
	"dugout/internal/mediastore"
	"dugout/internal/remotestore"
	"dugout/internal/sweep"
	"dugout/internal/testsupport"
)

type fakeAlternateRemote struct {
	mu        sync.Mutex
	downloads []string
	uploads   map[string]string
}

func newFakeAlternateRemote() *fakeAlternateRemote {
	return &fakeAlternateRemote{uploads: make(map[string]string)}
}

func (r *fakeAlternateRemote) Download(ctx context.Context, key, localPath string) error {
	r.mu.Lock()
	r.downloads = append(r.downloads, key)
	r.mu.Unlock()
	return os.WriteFile(localPath, []byte("original"), 0o644)
}

func (r *fakeAlternateRemote) Upload(ctx context.Context, key, localPath, contentType string) error {
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads[key] = contentType
	return nil
}

func (r *fakeAlternateRemote) Stat(ctx context.Context, key string) (remotestore.ObjectInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contentType, ok := r.uploads[key]
	if !ok {
		return remotestore.ObjectInfo{}, remotestore.ErrNotFound
	}
	return remotestore.ObjectInfo{Key: key, Size: 1, ContentType: contentType}, nil
}

type fakeAlternateConverter struct {
	mu         sync.Mutex
	jpegs      int
	transcodes int
}

func (c *fakeAlternateConverter) CreateJPEG(ctx context.Context, src, dst string) error {
	c.mu.Lock()
	c.jpegs++
	c.mu.Unlock()
	return os.WriteFile(dst, []byte("jpeg"), 0o644)
}

func (c *fakeAlternateConverter) TranscodeH264(ctx context.Context, src, dst string) error {
	c.mu.Lock()
	c.transcodes++
	c.mu.Unlock()
	return os.WriteFile(dst, []byte("mp4"), 0o644)
}

func TestAlternateSweepBackfillsHEICAndQuicktime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	photo := storedAsset(t, store, "old.heic",
		&mediastore.StoredFile{Purpose: mediastore.PurposeOriginal, Extension: ".heic", ContentType: "image/heic"})
	video := storedAsset(t, store, "old.mov",
		&mediastore.StoredFile{Purpose: mediastore.PurposeOriginal, Extension: ".mov", ContentType: "video/quicktime"})
	covered := storedAsset(t, store, "new.heic",
		&mediastore.StoredFile{Purpose: mediastore.PurposeOriginal, Extension: ".heic", ContentType: "image/heic"},
		&mediastore.StoredFile{Purpose: mediastore.PurposeAlternate, Extension: ".jpg", ContentType: "image/jpeg"})

	remote := newFakeAlternateRemote()
	conv := &fakeAlternateConverter{}
	s := sweep.NewAlternateSweep(store, remote, conv, importqueue.New(), cfg, nil)
	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if conv.jpegs != 1 || conv.transcodes != 1 {
		t.Errorf("conversions = %d jpeg, %d transcode, want 1 each", conv.jpegs, conv.transcodes)
	}
	if ct := remote.uploads[photo.AssetID+"/alt.jpg"]; ct != "image/jpeg" {
		t.Errorf("photo alternate upload = %q", ct)
	}
	if ct := remote.uploads[video.AssetID+"/alt.mp4"]; ct != "video/mp4" {
		t.Errorf("video alternate upload = %q", ct)
	}

	loaded, err := store.GetAsset(ctx, photo.AssetID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if len(loaded.Files) != 2 {
		t.Errorf("photo files = %d, want original + alternate", len(loaded.Files))
	}

	loaded, err = store.GetAsset(ctx, covered.AssetID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if len(loaded.Files) != 2 {
		t.Errorf("covered asset files = %d, alternate should not duplicate", len(loaded.Files))
	}

	// Scratch temps are cleaned up after each asset.
	entries, err := os.ReadDir(cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch not empty after backfill: %v", entries)
	}
}

func TestAlternateSweepYieldsToActiveImport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	storedAsset(t, store, "old.heic",
		&mediastore.StoredFile{Purpose: mediastore.PurposeOriginal, Extension: ".heic", ContentType: "image/heic"})

	queue := importqueue.New()
	queue.SetBusy(true)

	remote := newFakeAlternateRemote()
	conv := &fakeAlternateConverter{}
	s := sweep.NewAlternateSweep(store, remote, conv, queue, cfg, nil)
	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if conv.jpegs != 0 || len(remote.downloads) != 0 {
		t.Error("backfill ran while an import was in progress")
	}
}

func TestAlternateSweepHonorsBatchLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAlternateBatch(1))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	storedAsset(t, store, "one.heic",
		&mediastore.StoredFile{Purpose: mediastore.PurposeOriginal, Extension: ".heic", ContentType: "image/heic"})
	storedAsset(t, store, "two.heic",
		&mediastore.StoredFile{Purpose: mediastore.PurposeOriginal, Extension: ".heic", ContentType: "image/heic"})

	remote := newFakeAlternateRemote()
	conv := &fakeAlternateConverter{}
	s := sweep.NewAlternateSweep(store, remote, conv, importqueue.New(), cfg, nil)
	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if conv.jpegs != 1 {
		t.Errorf("conversions = %d, want 1 per pass", conv.jpegs)
	}

	// The next pass picks up the remainder.
	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if conv.jpegs != 2 {
		t.Errorf("conversions after second pass = %d, want 2", conv.jpegs)
	}
}
