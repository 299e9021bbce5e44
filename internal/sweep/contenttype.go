package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dugout/internal/config"
	"dugout/internal/convert"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
	"dugout/internal/remotestore"
)

// ContentTypeRemote is the remote surface the content-type sweep needs.
type ContentTypeRemote interface {
	Stat(ctx context.Context, key string) (remotestore.ObjectInfo, error)
	UpdateContentType(ctx context.Context, key, contentType string) error
}

// ContentTypeSweep fills in missing content types from remote metadata and
// repairs the known-bad .mov/binary-octet-stream combination left by old
// uploads.
type ContentTypeSweep struct {
	store    *mediastore.Store
	remote   ContentTypeRemote
	interval time.Duration
	logger   *slog.Logger
}

// NewContentTypeSweep builds the content-type correction loop.
func NewContentTypeSweep(store *mediastore.Store, remote ContentTypeRemote, cfg *config.Config, logger *slog.Logger) *ContentTypeSweep {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ContentTypeSweep{
		store:    store,
		remote:   remote,
		interval: cfg.Sweep.ContentTypeEvery(),
		logger:   logging.NewComponentLogger(logger, "contenttype-sweep"),
	}
}

// Run ticks until the context is canceled.
func (s *ContentTypeSweep) Run(ctx context.Context) error {
	return runEvery(ctx, s.interval, "content-types", s.logger, s.RunOnce)
}

// RunOnce performs one full correction pass. Per-file failures are logged
// and the pass continues.
func (s *ContentTypeSweep) RunOnce(ctx context.Context) error {
	if err := s.fillMissing(ctx); err != nil {
		return err
	}
	return s.fixMislabeled(ctx)
}

func (s *ContentTypeSweep) fillMissing(ctx context.Context) error {
	files, err := s.store.FilesMissingContentType(ctx)
	if err != nil {
		return err
	}
	for _, file := range files {
		key := file.RemoteKey()
		info, err := s.remote.Stat(ctx, key)
		if err != nil {
			if errors.Is(err, remotestore.ErrNotFound) {
				s.logger.Warn("recorded file missing remotely", "key", key)
			} else {
				s.logger.Error("stat remote file", "key", key, "error", err)
			}
			continue
		}
		if info.ContentType == "" {
			continue
		}
		if err := s.store.SetFileContentType(ctx, file.ID, info.ContentType); err != nil {
			s.logger.Error("persist content type", "key", key, "error", err)
			continue
		}
		s.logger.Debug("recorded content type", "key", key, "content_type", info.ContentType)
	}
	return nil
}

func (s *ContentTypeSweep) fixMislabeled(ctx context.Context) error {
	files, err := s.store.FilesWithContentType(ctx, ".mov", convert.FallbackContentType)
	if err != nil {
		return err
	}
	for _, file := range files {
		key := file.RemoteKey()
		correct := convert.ContentTypeForExtension(file.Extension)
		if correct == convert.FallbackContentType {
			continue
		}
		if err := s.remote.UpdateContentType(ctx, key, correct); err != nil {
			s.logger.Error("update remote content type", "key", key, "error", err)
			continue
		}
		confirmed := correct
		if info, err := s.remote.Stat(ctx, key); err == nil && info.ContentType != "" {
			confirmed = info.ContentType
		}
		if err := s.store.SetFileContentType(ctx, file.ID, confirmed); err != nil {
			s.logger.Error("persist content type", "key", key, "error", err)
		}
	}
	return nil
}
