package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dugout/internal/mediastore"
)

// IntakeFile is one uploaded file handed to intake: where it landed on disk
// and the name the uploader gave it.
type IntakeFile struct {
	Path string
	Name string
}

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".heic": true,
	".heif": true,
	".webp": true,
}

var videoExtensions = map[string]bool{
	".mov":  true,
	".mp4":  true,
	".m4v":  true,
	".avi":  true,
	".webm": true,
}

// GroupUnits turns uploaded files into media units, pairing a photo and a
// video that share a base name into a live photo. Units come back sorted by
// base name so task positions are deterministic.
func GroupUnits(files []IntakeFile) ([]*mediastore.MediaUnit, error) {
	type group struct {
		photo *IntakeFile
		video *IntakeFile
	}
	groups := make(map[string]*group)

	for i := range files {
		file := files[i]
		ext := strings.ToLower(filepath.Ext(file.Name))
		base := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
		if base == "" {
			return nil, fmt.Errorf("file %q has no base name", file.Name)
		}

		g := groups[base]
		if g == nil {
			g = &group{}
			groups[base] = g
		}
		switch {
		case photoExtensions[ext]:
			if g.photo != nil {
				return nil, fmt.Errorf("duplicate photo for %q", base)
			}
			g.photo = &file
		case videoExtensions[ext]:
			if g.video != nil {
				return nil, fmt.Errorf("duplicate video for %q", base)
			}
			g.video = &file
		default:
			return nil, fmt.Errorf("unsupported media file %q", file.Name)
		}
	}

	baseNames := make([]string, 0, len(groups))
	for base := range groups {
		baseNames = append(baseNames, base)
	}
	sort.Strings(baseNames)

	units := make([]*mediastore.MediaUnit, 0, len(groups))
	for i, base := range baseNames {
		g := groups[base]
		unit := &mediastore.MediaUnit{
			Position: i,
			BaseName: base,
		}
		switch {
		case g.photo != nil && g.video != nil:
			unit.Kind = mediastore.KindLivePhoto
			unit.PhotoPath, unit.PhotoName = g.photo.Path, g.photo.Name
			unit.VideoPath, unit.VideoName = g.video.Path, g.video.Name
		case g.photo != nil:
			unit.Kind = mediastore.KindPhoto
			unit.PhotoPath, unit.PhotoName = g.photo.Path, g.photo.Name
		default:
			unit.Kind = mediastore.KindVideo
			unit.VideoPath, unit.VideoName = g.video.Path, g.video.Name
		}
		units = append(units, unit)
	}
	return units, nil
}

// ScanDirectory lists the media files directly inside dir as intake files.
func ScanDirectory(dir string) ([]IntakeFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read media directory: %w", err)
	}
	var files []IntakeFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !photoExtensions[ext] && !videoExtensions[ext] {
			continue
		}
		files = append(files, IntakeFile{Path: filepath.Join(dir, name), Name: name})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no media files in %s", dir)
	}
	return files, nil
}
