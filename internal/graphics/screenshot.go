package graphics

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// Scaler returns the interpolator for a configured filter name
func Scaler(filter string) draw.Scaler {
	switch filter {
	case "linear":
		return draw.ApproxBiLinear
	case "cubic":
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// Scale enlarges an image by an integer factor
func Scale(src *image.RGBA, scale int, filter string) *image.RGBA {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	Scaler(filter).Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// SavePNG writes a frame as a PNG, scaled by an integer factor
func SavePNG(path string, frame *Frame, scale int, filter string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, Scale(ToImage(frame), scale, filter)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// ScreenshotPath returns a timestamped file name in dir
func ScreenshotPath(dir, prefix string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, now.Format("20060102_150405.000")))
}
