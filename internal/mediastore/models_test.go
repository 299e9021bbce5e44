package mediastore

import (
	"testing"
)

func TestRemoteKeyDerivation(t *testing.T) {
	cases := []struct {
		name string
		file StoredFile
		want string
	}{
		{
			name: "original photo",
			file: StoredFile{AssetID: "abc", Purpose: PurposeOriginal, Extension: ".heic"},
			want: "abc/original.heic",
		},
		{
			name: "alternate",
			file: StoredFile{AssetID: "abc", Purpose: PurposeAlternate, Extension: ".jpg"},
			want: "abc/alt.jpg",
		},
		{
			name: "thumbnail medium",
			file: StoredFile{AssetID: "abc", Purpose: PurposeThumbnail, SizeVariant: SizeMedium, Extension: ".jpg"},
			want: "abc/thumbnailmedium.jpg",
		},
		{
			name: "video original",
			file: StoredFile{AssetID: "xyz", Purpose: PurposeOriginal, Extension: ".mov"},
			want: "xyz/original.mov",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.file.RemoteKey(); got != tc.want {
				t.Errorf("RemoteKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTaskProgress(t *testing.T) {
	task := &ImportTask{}
	if got := task.Progress(); got != 0 {
		t.Errorf("empty task progress = %v, want 0", got)
	}

	task.Units = []*MediaUnit{
		{Processed: true},
		{Processed: false},
		{Processed: true},
		{Processed: false},
	}
	if got := task.Progress(); got != 0.5 {
		t.Errorf("progress = %v, want 0.5", got)
	}
}

func TestTaskMessage(t *testing.T) {
	task := &ImportTask{
		Status: StatusInProgress,
		Units: []*MediaUnit{
			{Kind: KindPhoto},
			{Kind: KindPhoto},
			{Kind: KindVideo},
			{Kind: KindLivePhoto},
		},
	}
	want := "Importing 2 photos, 1 video, and 1 live photo"
	if got := task.Message(); got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}

	task.Status = StatusCompleted
	want = "Imported 2 photos, 1 video, and 1 live photo"
	if got := task.Message(); got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}

	task.Status = StatusFailed
	if got := task.Message(); got != "Import failed" {
		t.Errorf("Message = %q, want Import failed", got)
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusQueued.IsTerminal() || StatusInProgress.IsTerminal() {
		t.Error("queued/in_progress reported terminal")
	}
	if !StatusCompleted.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Error("completed/failed not reported terminal")
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" In_Progress "); !ok || status != StatusInProgress {
		t.Errorf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := ParseStatus("bogus"); ok {
		t.Error("ParseStatus accepted bogus value")
	}
}

func TestParseKind(t *testing.T) {
	if kind, ok := ParseKind("LIVE_PHOTO"); !ok || kind != KindLivePhoto {
		t.Errorf("ParseKind = %q, %v", kind, ok)
	}
	if _, ok := ParseKind("scorecard"); ok {
		t.Error("ParseKind accepted unsupported value")
	}
}

func TestOriginalFileName(t *testing.T) {
	photo := &MediaUnit{Kind: KindPhoto, PhotoName: "img.heic", VideoName: "ignored.mov"}
	if got := photo.OriginalFileName(); got != "img.heic" {
		t.Errorf("photo OriginalFileName = %q", got)
	}
	video := &MediaUnit{Kind: KindVideo, VideoName: "clip.mov"}
	if got := video.OriginalFileName(); got != "clip.mov" {
		t.Errorf("video OriginalFileName = %q", got)
	}
	live := &MediaUnit{Kind: KindLivePhoto, PhotoName: "img.heic", VideoName: "img.mov"}
	if got := live.OriginalFileName(); got != "img.heic" {
		t.Errorf("live photo OriginalFileName = %q", got)
	}
}
