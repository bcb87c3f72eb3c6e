// Package textures decodes image files into RGBA pixel data ready for
// upload as shader textures.
package textures

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load decodes the image at path (PNG, JPEG, BMP, TIFF or WebP). When
// vflip is set the rows are flipped so the first row is the bottom of the
// image, matching GL's texture origin.
func Load(path string, vflip bool) (*image.RGBA, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	rgba := ToRGBA(img)
	if vflip {
		FlipRows(rgba)
	}
	return rgba, format, nil
}

// ToRGBA converts img to a tightly packed *image.RGBA with its origin at
// (0, 0). An image that already is one is returned as-is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// FlipRows reverses the row order of img in place.
func FlipRows(img *image.RGBA) {
	height := img.Rect.Dy()
	rowSize := img.Rect.Dx() * 4
	tmp := make([]byte, rowSize)
	for y := 0; y < height/2; y++ {
		top := img.Pix[y*img.Stride : y*img.Stride+rowSize]
		bottom := img.Pix[(height-1-y)*img.Stride : (height-1-y)*img.Stride+rowSize]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// FromBottomUp copies tightly packed RGBA rows read from a framebuffer,
// bottom row first, into a top-down image.
func FromBottomUp(pix []byte, width, height int) (*image.RGBA, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}
	if need := width * height * 4; len(pix) < need {
		return nil, fmt.Errorf("pixel buffer holds %d bytes, need %d", len(pix), need)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	FlipRows(img)
	return img, nil
}
