package testsupport

import (
	"context"
	"testing"

	"dugout/internal/config"
	"dugout/internal/mediastore"
)

// MustOpenStore opens a mediastore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *mediastore.Store {
	t.Helper()

	store, err := mediastore.Open(cfg)
	if err != nil {
		t.Fatalf("mediastore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPhotoUnit builds an unsaved photo unit pointing at path.
func NewPhotoUnit(baseName, path, name string) *mediastore.MediaUnit {
	return &mediastore.MediaUnit{
		BaseName:  baseName,
		Kind:      mediastore.KindPhoto,
		PhotoPath: path,
		PhotoName: name,
	}
}

// NewVideoUnit builds an unsaved video unit pointing at path.
func NewVideoUnit(baseName, path, name string) *mediastore.MediaUnit {
	return &mediastore.MediaUnit{
		BaseName:  baseName,
		Kind:      mediastore.KindVideo,
		VideoPath: path,
		VideoName: name,
	}
}

// NewLivePhotoUnit builds an unsaved live photo unit from both refs.
func NewLivePhotoUnit(baseName, photoPath, photoName, videoPath, videoName string) *mediastore.MediaUnit {
	return &mediastore.MediaUnit{
		BaseName:  baseName,
		Kind:      mediastore.KindLivePhoto,
		PhotoPath: photoPath,
		PhotoName: photoName,
		VideoPath: videoPath,
		VideoName: videoName,
	}
}

// NewTask creates a task with the given units, failing the test on error.
func NewTask(t testing.TB, store *mediastore.Store, gameID *int64, units ...*mediastore.MediaUnit) *mediastore.ImportTask {
	t.Helper()

	task, err := store.NewTask(context.Background(), gameID, units)
	if err != nil {
		t.Fatalf("store.NewTask: %v", err)
	}
	return task
}

// GameID returns a pointer to id for task constructors.
func GameID(id int64) *int64 {
	return &id
}
