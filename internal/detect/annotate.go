// annotate.go: draws detection boxes onto copies of input frames, used only
// for persisted artifacts.
package detect

import (
	"image"
	"image/color"
)

var boxColor = color.RGBA{R: 0, G: 220, B: 0, A: 255}

// Annotate returns a copy of the image with the bounding boxes drawn as
// one-pixel rectangles. The input image is never mutated.
func Annotate(img *image.RGBA, boxes []image.Rectangle) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	for _, box := range boxes {
		drawRect(out, box.Intersect(out.Bounds()))
	}
	return out
}

func drawRect(img *image.RGBA, r image.Rectangle) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, boxColor)
		img.SetRGBA(x, r.Max.Y-1, boxColor)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, boxColor)
		img.SetRGBA(r.Max.X-1, y, boxColor)
	}
}
