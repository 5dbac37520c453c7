package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/Faultbox/sktransfer/internal/deltabuf"
)

// Writer saves debug images as PNG files.
type Writer struct {
	outputDir string
	scale     int
}

// NewWriter creates a writer saving into outputDir. Images are enlarged by
// the integer factor scale with nearest-neighbour sampling so single cells
// stay visible; scale values below 1 are treated as 1.
func NewWriter(outputDir string, scale int) *Writer {
	if scale < 1 {
		scale = 1
	}
	return &Writer{
		outputDir: outputDir,
		scale:     scale,
	}
}

// Path returns where the image of stage would be written.
func (w *Writer) Path(id ImageID, stage Stage) string {
	name := id.Filename(stage)
	if w.outputDir != "" {
		name = filepath.Join(w.outputDir, name)
	}
	return name
}

// Write renders the buffer for stage and saves it, returning the file path.
func (w *Writer) Write(id ImageID, stage Stage, b *deltabuf.Buffer) (string, error) {
	img, err := Render(b, stage)
	if err != nil {
		return "", err
	}
	return w.SaveImage(w.Path(id, stage), img)
}

// SaveImage writes img to path as PNG, applying the writer's scale.
func (w *Writer) SaveImage(path string, img image.Image) (string, error) {
	// Create output directory if needed
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	if w.scale > 1 {
		bounds := img.Bounds()
		scaled := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*w.scale, bounds.Dy()*w.scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
		img = scaled
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	return path, nil
}
