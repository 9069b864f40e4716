// Package debug provides developer conveniences for the native viewer.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Screenshots writes PNG captures of the framebuffer.
type Screenshots struct {
	Dir    string
	Prefix string
	Now    func() time.Time
}

// NewScreenshots creates a capture writer for dir.
func NewScreenshots(dir, prefix string) *Screenshots {
	return &Screenshots{Dir: dir, Prefix: prefix, Now: time.Now}
}

// Filename returns the path the next capture would use.
func (s *Screenshots) Filename() string {
	name := fmt.Sprintf("%s_%s.png", s.Prefix, s.Now().Format("2006-01-02_15-04-05.000"))
	if s.Dir != "" {
		name = filepath.Join(s.Dir, name)
	}
	return name
}

// CaptureFromPixels saves bottom-up RGBA rows, as returned by glReadPixels.
func (s *Screenshots) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FlipRows(pixels, width, height)
	if err != nil {
		return "", err
	}
	return s.CaptureFromImage(img)
}

// CaptureFromImage saves img and returns the file written.
func (s *Screenshots) CaptureFromImage(img image.Image) (string, error) {
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := s.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}
	return filename, nil
}

// FlipRows copies bottom-up RGBA pixel rows into a top-down image.
func FlipRows(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: %dx%d needs %d bytes, got %d",
			width, height, width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := range height {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}
