package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"dugout/internal/config"
	"dugout/internal/convert"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
	"dugout/internal/remotestore"
)

// ErrInvalidUnit marks a contract violation in a unit: an unsupported kind
// or a missing required file reference. Such units can never succeed, so the
// worker fails the whole task instead of retrying.
var ErrInvalidUnit = errors.New("invalid media unit")

// RemoteStore is the object-store surface the processor needs.
type RemoteStore interface {
	Upload(ctx context.Context, key, localPath, contentType string) error
	Stat(ctx context.Context, key string) (remotestore.ObjectInfo, error)
	RemoveAsset(ctx context.Context, assetID string) error
}

// Converter is the media-conversion surface the processor needs.
type Converter interface {
	ProbeImageFormat(ctx context.Context, path string) (string, error)
	ImageCaptureTime(ctx context.Context, path string) (time.Time, bool, error)
	CreateJPEG(ctx context.Context, src, dst string) error
	Thumbnail(src, dst string, maxDim int) error
	ProbeVideo(ctx context.Context, path string) (convert.VideoInfo, error)
	TranscodeH264(ctx context.Context, src, dst string) error
	ExtractFrame(ctx context.Context, src, dst string) error
}

// Processor materializes one media unit as a stored asset.
type Processor struct {
	store   *mediastore.Store
	remote  RemoteStore
	conv    Converter
	scratch string
	logger  *slog.Logger
}

// NewProcessor wires a processor to its collaborators.
func NewProcessor(store *mediastore.Store, remote RemoteStore, conv Converter, cfg *config.Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		store:   store,
		remote:  remote,
		conv:    conv,
		scratch: cfg.Paths.ScratchDir,
		logger:  logging.NewComponentLogger(logger, "processor"),
	}
}

// ProcessUnit converts and uploads everything a unit describes, then records
// the asset and its files in one transaction. Nothing is persisted until all
// uploads succeed, so a crashed or failed attempt can simply run again.
func (p *Processor) ProcessUnit(ctx context.Context, task *mediastore.ImportTask, unit *mediastore.MediaUnit) error {
	switch unit.Kind {
	case mediastore.KindPhoto:
		if unit.PhotoPath == "" {
			return fmt.Errorf("%w: photo unit %s has no photo file", ErrInvalidUnit, unit.BaseName)
		}
	case mediastore.KindVideo:
		if unit.VideoPath == "" {
			return fmt.Errorf("%w: video unit %s has no video file", ErrInvalidUnit, unit.BaseName)
		}
	case mediastore.KindLivePhoto:
		if unit.PhotoPath == "" || unit.VideoPath == "" {
			return fmt.Errorf("%w: live photo unit %s needs both photo and video files", ErrInvalidUnit, unit.BaseName)
		}
	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidUnit, unit.Kind)
	}

	asset := &mediastore.MediaAsset{
		AssetID:          uuid.NewString(),
		GameID:           task.GameID,
		Kind:             unit.Kind,
		OriginalFileName: unit.OriginalFileName(),
	}

	if unit.Kind == mediastore.KindPhoto || unit.Kind == mediastore.KindLivePhoto {
		if err := p.processPhotoSide(ctx, asset, unit); err != nil {
			p.discardUploads(ctx, asset)
			return err
		}
	}
	if unit.Kind == mediastore.KindVideo || unit.Kind == mediastore.KindLivePhoto {
		if err := p.processVideoSide(ctx, asset, unit); err != nil {
			p.discardUploads(ctx, asset)
			return err
		}
	}

	if asset.CaptureTime.IsZero() {
		asset.CaptureTime = time.Now().UTC()
	}

	if err := p.store.CreateAsset(ctx, asset); err != nil {
		p.discardUploads(ctx, asset)
		return fmt.Errorf("record asset for unit %s: %w", unit.BaseName, err)
	}

	p.logger.Info("unit imported",
		logging.FieldTaskID, task.ID,
		logging.FieldAssetID, asset.AssetID,
		"unit", unit.BaseName,
		"kind", unit.Kind,
		"files", len(asset.Files))
	return nil
}

func (p *Processor) processPhotoSide(ctx context.Context, asset *mediastore.MediaAsset, unit *mediastore.MediaUnit) error {
	src := unit.PhotoPath
	ext := strings.ToLower(filepath.Ext(src))

	if captured, ok, err := p.conv.ImageCaptureTime(ctx, src); err != nil {
		return fmt.Errorf("photo capture time: %w", err)
	} else if ok {
		asset.CaptureTime = captured.UTC()
	} else if stamp, statErr := fileModTime(src); statErr == nil {
		asset.CaptureTime = stamp
	}

	original, err := p.uploadFile(ctx, asset, mediastore.PurposeOriginal, "", ext, src)
	if err != nil {
		return err
	}
	asset.Files = append(asset.Files, original)

	format, err := p.conv.ProbeImageFormat(ctx, src)
	if err != nil {
		return fmt.Errorf("probe photo: %w", err)
	}

	webSafe := src
	if !convert.IsJPEGFormat(format) {
		altPath := p.scratchPath(asset.AssetID, "alt.jpg")
		if err := p.conv.CreateJPEG(ctx, src, altPath); err != nil {
			return fmt.Errorf("create jpeg alternate: %w", err)
		}
		alt, err := p.uploadFile(ctx, asset, mediastore.PurposeAlternate, "", ".jpg", altPath)
		if err != nil {
			return err
		}
		asset.Files = append(asset.Files, alt)
		webSafe = altPath
	}

	p.generateThumbnails(ctx, asset, webSafe)
	return nil
}

func (p *Processor) processVideoSide(ctx context.Context, asset *mediastore.MediaAsset, unit *mediastore.MediaUnit) error {
	src := unit.VideoPath
	ext := strings.ToLower(filepath.Ext(src))

	info, err := p.conv.ProbeVideo(ctx, src)
	if err != nil {
		return fmt.Errorf("probe video: %w", err)
	}

	// Live photos take their timestamp from the photo side.
	if asset.CaptureTime.IsZero() {
		if info.HasCreation {
			asset.CaptureTime = info.CreationTime
		} else if stamp, statErr := fileModTime(src); statErr == nil {
			asset.CaptureTime = stamp
		}
	}

	if info.Codec != "h264" {
		altPath := p.scratchPath(asset.AssetID, "alt.mp4")
		if err := p.conv.TranscodeH264(ctx, src, altPath); err != nil {
			return fmt.Errorf("transcode video: %w", err)
		}
		alt, err := p.uploadFile(ctx, asset, mediastore.PurposeAlternate, "", ".mp4", altPath)
		if err != nil {
			return err
		}
		asset.Files = append(asset.Files, alt)
	}

	original, err := p.uploadFile(ctx, asset, mediastore.PurposeOriginal, "", ext, src)
	if err != nil {
		return err
	}
	asset.Files = append(asset.Files, original)

	if asset.Kind == mediastore.KindVideo {
		framePath := p.scratchPath(asset.AssetID, "frame.jpg")
		if err := p.conv.ExtractFrame(ctx, src, framePath); err != nil {
			p.logger.Warn("frame extraction failed, skipping video thumbnails",
				logging.FieldAssetID, asset.AssetID, "error", err)
			return nil
		}
		p.generateThumbnails(ctx, asset, framePath)
	}
	return nil
}

// generateThumbnails writes and uploads the fixed size ladder. A failed
// variant is logged and skipped; thumbnails are best effort.
func (p *Processor) generateThumbnails(ctx context.Context, asset *mediastore.MediaAsset, src string) {
	for _, size := range mediastore.ThumbnailSizes {
		thumbPath := p.scratchPath(asset.AssetID, fmt.Sprintf("thumb-%s.jpg", size.Variant))
		if err := p.conv.Thumbnail(src, thumbPath, size.MaxDim); err != nil {
			p.logger.Warn("thumbnail generation failed",
				logging.FieldAssetID, asset.AssetID,
				"variant", size.Variant,
				"error", err)
			continue
		}
		file, err := p.uploadFile(ctx, asset, mediastore.PurposeThumbnail, size.Variant, ".jpg", thumbPath)
		if err != nil {
			p.logger.Warn("thumbnail upload failed",
				logging.FieldAssetID, asset.AssetID,
				"variant", size.Variant,
				"error", err)
			continue
		}
		asset.Files = append(asset.Files, file)
	}
}

// uploadFile pushes a local file to the remote store under the derived key
// and returns the StoredFile record with the confirmed content type.
func (p *Processor) uploadFile(ctx context.Context, asset *mediastore.MediaAsset, purpose mediastore.Purpose, variant mediastore.SizeVariant, ext, localPath string) (*mediastore.StoredFile, error) {
	file := &mediastore.StoredFile{
		AssetID:     asset.AssetID,
		Purpose:     purpose,
		SizeVariant: variant,
		Extension:   ext,
		ContentType: convert.ContentTypeForExtension(ext),
	}
	key := file.RemoteKey()
	if err := p.remote.Upload(ctx, key, localPath, file.ContentType); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	if info, err := p.remote.Stat(ctx, key); err == nil && info.ContentType != "" {
		file.ContentType = info.ContentType
	}
	return file, nil
}

// discardUploads removes whatever was already uploaded for a failed unit.
// Retries mint a fresh asset id, so these objects would otherwise leak.
func (p *Processor) discardUploads(ctx context.Context, asset *mediastore.MediaAsset) {
	if len(asset.Files) == 0 {
		return
	}
	if err := p.remote.RemoveAsset(ctx, asset.AssetID); err != nil {
		p.logger.Warn("could not remove partial uploads",
			logging.FieldAssetID, asset.AssetID, "error", err)
	}
}

func (p *Processor) scratchPath(assetID, name string) string {
	return filepath.Join(p.scratch, assetID+"-"+name)
}

func fileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime().UTC(), nil
}
