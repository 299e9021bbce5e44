package mediastore

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of an import task.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusInProgress,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further processing.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Kind identifies what a media unit contains.
type Kind string

const (
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindLivePhoto Kind = "live_photo"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindPhoto:
		return KindPhoto, true
	case KindVideo:
		return KindVideo, true
	case KindLivePhoto:
		return KindLivePhoto, true
	default:
		return "", false
	}
}

// Purpose identifies the role of a stored file within an asset.
type Purpose string

const (
	PurposeOriginal  Purpose = "original"
	PurposeAlternate Purpose = "alternate"
	PurposeThumbnail Purpose = "thumbnail"
)

func (p Purpose) baseName() string {
	switch p {
	case PurposeOriginal:
		return "original"
	case PurposeAlternate:
		return "alt"
	case PurposeThumbnail:
		return "thumbnail"
	default:
		return ""
	}
}

// SizeVariant distinguishes thumbnail sizes. Empty for non-thumbnails.
type SizeVariant string

const (
	SizeNone   SizeVariant = ""
	SizeSmall  SizeVariant = "small"
	SizeMedium SizeVariant = "medium"
	SizeLarge  SizeVariant = "large"
)

// ThumbnailSizes lists the generated variants in upload order with their
// maximum pixel dimension. Images are never enlarged to reach it.
var ThumbnailSizes = []struct {
	Variant SizeVariant
	MaxDim  int
}{
	{SizeSmall, 120},
	{SizeMedium, 400},
	{SizeLarge, 1600},
}

// ImportTask is one batch of uploaded media awaiting processing.
type ImportTask struct {
	ID           string
	GameID       *int64
	Status       Status
	Attempts     int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Units        []*MediaUnit
}

// MediaUnit is one logical media item within a task. A live photo carries
// both a photo and a video ref; photo/video units carry exactly one.
type MediaUnit struct {
	ID           int64
	TaskID       string
	Position     int
	BaseName     string
	Kind         Kind
	PhotoPath    string
	PhotoName    string
	VideoPath    string
	VideoName    string
	Processed    bool
	FilesPurged  bool
	ErrorMessage string
}

// OriginalFileName returns the uploaded filename that identifies the asset a
// unit produces. Videos are keyed by their video name; photos and live photos
// by their photo name.
func (u *MediaUnit) OriginalFileName() string {
	if u.Kind == KindVideo {
		return u.VideoName
	}
	return u.PhotoName
}

// MediaAsset is the published result of processing a media unit.
type MediaAsset struct {
	ID               int64
	AssetID          string
	GameID           *int64
	Kind             Kind
	OriginalFileName string
	CaptureTime      time.Time
	CreatedAt        time.Time
	Files            []*StoredFile
}

// StoredFile is one physical remote file belonging to an asset.
type StoredFile struct {
	ID          int64
	AssetRowID  int64
	AssetID     string
	Purpose     Purpose
	SizeVariant SizeVariant
	Extension   string
	ContentType string
}

// RemoteKey derives the deterministic object storage key for a file.
func (f *StoredFile) RemoteKey() string {
	return fmt.Sprintf("%s/%s%s%s", f.AssetID, f.Purpose.baseName(), f.SizeVariant, f.Extension)
}

// Progress returns the processed fraction of a task's units, 0 when empty.
func (t *ImportTask) Progress() float64 {
	if len(t.Units) == 0 {
		return 0
	}
	processed := 0
	for _, unit := range t.Units {
		if unit.Processed {
			processed++
		}
	}
	return float64(processed) / float64(len(t.Units))
}

// Message builds the human-readable status line shown to pollers.
func (t *ImportTask) Message() string {
	if t.Status == StatusFailed {
		return "Import failed"
	}
	var photos, videos, livePhotos int
	for _, unit := range t.Units {
		switch unit.Kind {
		case KindPhoto:
			photos++
		case KindVideo:
			videos++
		case KindLivePhoto:
			livePhotos++
		}
	}
	verb := "Importing"
	if t.Status == StatusCompleted {
		verb = "Imported"
	}
	return fmt.Sprintf("%s %s, %s, and %s",
		verb,
		pluralize(photos, "photo"),
		pluralize(videos, "video"),
		pluralize(livePhotos, "live photo"),
	)
}

func pluralize(count int, singular string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %ss", count, singular)
}

// HealthSummary describes aggregated task counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Queued     int
	InProgress int
	Completed  int
	Failed     int
}
