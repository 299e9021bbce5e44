package importer_test

import (
	"os"
	"path/filepath"
	"testing"

	"dugout/internal/importer"
	"dugout/internal/mediastore"
)

func TestGroupUnitsPairsLivePhotos(t *testing.T) {
	units, err := importer.GroupUnits([]importer.IntakeFile{
		{Path: "/up/IMG_0042.heic", Name: "IMG_0042.heic"},
		{Path: "/up/IMG_0042.mov", Name: "IMG_0042.mov"},
		{Path: "/up/IMG_0041.jpg", Name: "IMG_0041.jpg"},
		{Path: "/up/highlight.mp4", Name: "highlight.mp4"},
	})
	if err != nil {
		t.Fatalf("GroupUnits: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("units = %d, want 3", len(units))
	}

	// Sorted by base name, positions assigned in order.
	wantBases := []string{"IMG_0041", "IMG_0042", "highlight"}
	wantKinds := []mediastore.Kind{mediastore.KindPhoto, mediastore.KindLivePhoto, mediastore.KindVideo}
	for i, unit := range units {
		if unit.BaseName != wantBases[i] {
			t.Errorf("unit[%d] base = %q, want %q", i, unit.BaseName, wantBases[i])
		}
		if unit.Kind != wantKinds[i] {
			t.Errorf("unit[%d] kind = %q, want %q", i, unit.Kind, wantKinds[i])
		}
		if unit.Position != i {
			t.Errorf("unit[%d] position = %d", i, unit.Position)
		}
	}

	live := units[1]
	if live.PhotoPath != "/up/IMG_0042.heic" || live.VideoPath != "/up/IMG_0042.mov" {
		t.Errorf("live photo refs = %q / %q", live.PhotoPath, live.VideoPath)
	}
	if units[0].VideoPath != "" || units[2].PhotoPath != "" {
		t.Error("single-file units picked up the wrong side")
	}
}

func TestGroupUnitsRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		files []importer.IntakeFile
	}{
		{"duplicate photo", []importer.IntakeFile{
			{Path: "/up/a.jpg", Name: "a.jpg"},
			{Path: "/up/a.heic", Name: "a.heic"},
		}},
		{"duplicate video", []importer.IntakeFile{
			{Path: "/up/a.mov", Name: "a.mov"},
			{Path: "/up/a.mp4", Name: "a.mp4"},
		}},
		{"unsupported extension", []importer.IntakeFile{
			{Path: "/up/notes.txt", Name: "notes.txt"},
		}},
		{"no base name", []importer.IntakeFile{
			{Path: "/up/.heic", Name: ".heic"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := importer.GroupUnits(tc.files); err == nil {
				t.Errorf("GroupUnits accepted %v", tc.files)
			}
		})
	}
}

func TestGroupUnitsIgnoresExtensionCase(t *testing.T) {
	units, err := importer.GroupUnits([]importer.IntakeFile{
		{Path: "/up/shot.JPG", Name: "shot.JPG"},
	})
	if err != nil {
		t.Fatalf("GroupUnits: %v", err)
	}
	if len(units) != 1 || units[0].Kind != mediastore.KindPhoto {
		t.Errorf("units = %+v", units)
	}
	if units[0].PhotoName != "shot.JPG" {
		t.Errorf("photo name = %q, original casing should survive", units[0].PhotoName)
	}
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.mov", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := importer.ScanDirectory(dir)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want a.jpg and b.mov", files)
	}
	for _, file := range files {
		if file.Path != filepath.Join(dir, file.Name) {
			t.Errorf("path = %q for %q", file.Path, file.Name)
		}
	}
}

func TestScanDirectoryEmptyIsError(t *testing.T) {
	if _, err := importer.ScanDirectory(t.TempDir()); err == nil {
		t.Error("ScanDirectory accepted a directory with no media")
	}
}
