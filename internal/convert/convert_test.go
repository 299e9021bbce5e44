package convert

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestContentTypeForExtension(t *testing.T) {
	cases := []struct {
		ext  string
		want string
	}{
		{".mov", "video/quicktime"},
		{"MOV", "video/quicktime"},
		{".heic", "image/heic"},
		{".jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{".mp4", "video/mp4"},
		{".xyz", FallbackContentType},
		{"", FallbackContentType},
	}
	for _, tc := range cases {
		if got := ContentTypeForExtension(tc.ext); got != tc.want {
			t.Errorf("ContentTypeForExtension(%q) = %q, want %q", tc.ext, got, tc.want)
		}
	}
}

func TestIsJPEGFormat(t *testing.T) {
	for _, format := range []string{"JPEG", "jpeg", "jpg", " JPG "} {
		if !IsJPEGFormat(format) {
			t.Errorf("IsJPEGFormat(%q) = false, want true", format)
		}
	}
	for _, format := range []string{"HEIC", "PNG", ""} {
		if IsJPEGFormat(format) {
			t.Errorf("IsJPEGFormat(%q) = true, want false", format)
		}
	}
}

func writeTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 40, G: 90, B: 160, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save test image: %v", err)
	}
}

func TestThumbnailShrinksLargeImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "thumb.jpg")
	writeTestImage(t, src, 800, 600)

	c := &Converter{}
	if err := c.Thumbnail(src, dst, 120); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if got := maxDim(out.Bounds()); got != 120 {
		t.Errorf("thumbnail max dimension = %d, want 120", got)
	}
}

func TestThumbnailNeverEnlarges(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.jpg")
	dst := filepath.Join(dir, "thumb.jpg")
	writeTestImage(t, src, 100, 80)

	c := &Converter{}
	if err := c.Thumbnail(src, dst, 400); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 80 {
		t.Errorf("thumbnail bounds = %v, want 100x80", out.Bounds())
	}
}

func maxDim(r image.Rectangle) int {
	if r.Dx() > r.Dy() {
		return r.Dx()
	}
	return r.Dy()
}
