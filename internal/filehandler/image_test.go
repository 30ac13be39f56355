package filehandler

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestImageDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	writePNG(t, path, 64, 48)

	w, h, err := ImageDimensions(path)
	if err != nil {
		t.Fatalf("ImageDimensions() error = %v", err)
	}
	if w != 64 || h != 48 {
		t.Errorf("ImageDimensions() = (%d, %d), want (64, 48)", w, h)
	}
}

func TestImageDimensions_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ImageDimensions(path); err == nil {
		t.Error("ImageDimensions() error = nil, want error")
	}
	if _, _, err := ImageDimensions(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("ImageDimensions(missing) error = nil, want error")
	}
}

func TestExtractImageMetadata_MissingFile(t *testing.T) {
	if _, err := ExtractImageMetadata(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("ExtractImageMetadata() error = nil, want error for missing file")
	}
}

func TestImageMetadataCamera(t *testing.T) {
	tests := []struct {
		meta ImageMetadata
		want string
	}{
		{ImageMetadata{CameraMake: "Apple", CameraModel: "iPhone 15 Pro"}, "Apple iPhone 15 Pro"},
		{ImageMetadata{CameraModel: "X100V"}, "X100V"},
		{ImageMetadata{}, ""},
	}
	for _, tt := range tests {
		if got := tt.meta.Camera(); got != tt.want {
			t.Errorf("Camera() = %q, want %q", got, tt.want)
		}
	}
}
