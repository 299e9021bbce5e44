package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dugout/internal/config"
	"dugout/internal/convert"
	"dugout/internal/importqueue"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
	"dugout/internal/remotestore"
)

// AlternateRemote is the remote surface the backfill needs.
type AlternateRemote interface {
	Download(ctx context.Context, key, localPath string) error
	Upload(ctx context.Context, key, localPath, contentType string) error
	Stat(ctx context.Context, key string) (remotestore.ObjectInfo, error)
}

// AlternateConverter is the conversion surface the backfill needs.
type AlternateConverter interface {
	CreateJPEG(ctx context.Context, src, dst string) error
	TranscodeH264(ctx context.Context, src, dst string) error
}

// AlternateSweep backfills web-friendly alternates for assets imported
// before conversion existed, or whose conversion was skipped. It yields to
// active imports so the two never compete for bandwidth or scratch space.
type AlternateSweep struct {
	store    *mediastore.Store
	remote   AlternateRemote
	conv     AlternateConverter
	queue    *importqueue.Queue
	scratch  string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// NewAlternateSweep builds the alternate backfill loop.
func NewAlternateSweep(store *mediastore.Store, remote AlternateRemote, conv AlternateConverter, queue *importqueue.Queue, cfg *config.Config, logger *slog.Logger) *AlternateSweep {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AlternateSweep{
		store:    store,
		remote:   remote,
		conv:     conv,
		queue:    queue,
		scratch:  cfg.Paths.ScratchDir,
		interval: cfg.Sweep.AlternateEvery(),
		batch:    cfg.Sweep.AlternateBatch,
		logger:   logging.NewComponentLogger(logger, "alternate-sweep"),
	}
}

// Run ticks until the context is canceled.
func (s *AlternateSweep) Run(ctx context.Context) error {
	return runEvery(ctx, s.interval, "alternates", s.logger, s.RunOnce)
}

// RunOnce backfills one batch of assets. The whole tick is skipped while an
// import is in progress.
func (s *AlternateSweep) RunOnce(ctx context.Context) error {
	if s.queue.Busy() {
		s.logger.Debug("import in progress, skipping alternate backfill")
		return nil
	}

	assets, err := s.store.AssetsNeedingAlternates(ctx, s.batch)
	if err != nil {
		return fmt.Errorf("find assets needing alternates: %w", err)
	}
	for _, asset := range assets {
		if err := s.backfillAsset(ctx, asset); err != nil {
			s.logger.Error("alternate backfill failed",
				logging.FieldAssetID, asset.AssetID, "error", err)
		}
	}
	if len(assets) > 0 {
		s.logger.Info("alternate backfill pass finished", "assets", len(assets))
	}
	return nil
}

func (s *AlternateSweep) backfillAsset(ctx context.Context, asset *mediastore.MediaAsset) error {
	for _, file := range asset.Files {
		if file.Purpose != mediastore.PurposeOriginal {
			continue
		}
		switch file.ContentType {
		case "image/heic":
			if err := s.convertOriginal(ctx, asset, file, ".jpg", s.conv.CreateJPEG); err != nil {
				return err
			}
		case "video/quicktime":
			if err := s.convertOriginal(ctx, asset, file, ".mp4", s.conv.TranscodeH264); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *AlternateSweep) convertOriginal(ctx context.Context, asset *mediastore.MediaAsset, original *mediastore.StoredFile, altExt string, convertFn func(ctx context.Context, src, dst string) error) error {
	if hasAlternate(asset, altExt) {
		return nil
	}

	srcPath := filepath.Join(s.scratch, asset.AssetID+"-backfill"+original.Extension)
	dstPath := filepath.Join(s.scratch, asset.AssetID+"-backfill"+altExt)
	defer func() {
		_ = os.Remove(srcPath)
		_ = os.Remove(dstPath)
	}()

	if err := s.remote.Download(ctx, original.RemoteKey(), srcPath); err != nil {
		return err
	}
	if err := convertFn(ctx, srcPath, dstPath); err != nil {
		return fmt.Errorf("convert %s: %w", original.RemoteKey(), err)
	}

	alt := &mediastore.StoredFile{
		AssetID:     asset.AssetID,
		Purpose:     mediastore.PurposeAlternate,
		Extension:   altExt,
		ContentType: convert.ContentTypeForExtension(altExt),
	}
	key := alt.RemoteKey()
	if err := s.remote.Upload(ctx, key, dstPath, alt.ContentType); err != nil {
		return err
	}
	if info, err := s.remote.Stat(ctx, key); err == nil && info.ContentType != "" {
		alt.ContentType = info.ContentType
	}
	if err := s.store.AddStoredFile(ctx, asset, alt); err != nil {
		return err
	}
	s.logger.Info("backfilled alternate", logging.FieldAssetID, asset.AssetID, "key", key)
	return nil
}

func hasAlternate(asset *mediastore.MediaAsset, ext string) bool {
	for _, file := range asset.Files {
		if file.Purpose == mediastore.PurposeAlternate && file.Extension == ext {
			return true
		}
	}
	return false
}
