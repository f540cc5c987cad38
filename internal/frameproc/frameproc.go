// Package frameproc converts raw captured frames into detector-ready
// images. Processing is deterministic: identical inputs yield byte-identical
// outputs.
package frameproc

import (
	"image"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/calibrate"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/realsense"
)

// Mode selects which stream feeds the detector.
type Mode int

const (
	// ModeColor passes the color image through unchanged.
	ModeColor Mode = iota
	// ModeDepth normalizes the depth matrix into an 8-bit grayscale image.
	ModeDepth
)

// fallbackBackgroundMM replaces invalid samples when a frame has no valid
// samples and the range itself is degenerate.
const fallbackBackgroundMM = 4000

// narrowRangeMM: below this width the calibrated range is considered broken
// and per-frame percentiles are used instead.
const narrowRangeMM = 50

// Process converts one frame pair into a detector-ready RGB image at the
// given resolution. Pure function of (pair, rng, mode, outW, outH).
func Process(pair *realsense.FramePair, rng calibrate.Range, mode Mode, outW, outH int) *image.RGBA {
	var img *image.RGBA
	if mode == ModeDepth {
		img = depthToImage(pair.Depth, rng)
	} else {
		img = pair.Color
	}
	return resize(img, outW, outH)
}

// depthToImage normalizes a 16-bit depth matrix into an 8-bit image where
// the near clip bound maps to 0 and the far bound to 255.
func depthToImage(frame *realsense.DepthFrame, rng calibrate.Range) *image.RGBA {
	w, h := frame.Width, frame.Height
	d := make([]float64, w*h)
	for i, v := range frame.Data {
		d[i] = float64(v)
	}

	fixInvalid(d, rng)
	d = medianFilter3(d, w, h)

	dMin, dMax := float64(rng.MinMM), float64(rng.MaxMM)
	if dMax-dMin < narrowRangeMM {
		// broken range, use robust per-frame percentiles
		p5, p95 := framePercentiles(d)
		dMin = p5
		dMax = p95
		if dMax <= dMin {
			dMax = dMin + narrowRangeMM
		}
	}

	// clip and rescale: near = dark
	gray := make([]uint8, w*h)
	scale := 255.0 / (dMax - dMin)
	for i, v := range d {
		if v < dMin {
			v = dMin
		} else if v > dMax {
			v = dMax
		}
		gray[i] = uint8((v - dMin) * scale)
	}

	gray = gaussianBlur3(gray, w, h)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, g := range gray {
		o := i * 4
		img.Pix[o] = g
		img.Pix[o+1] = g
		img.Pix[o+2] = g
		img.Pix[o+3] = 255
	}
	return img
}

// fixInvalid replaces invalid samples (<= 0) with the median of the valid
// samples, approximating the background so holes do not read as near
// objects.
func fixInvalid(d []float64, rng calibrate.Range) {
	var valid []float64
	for _, v := range d {
		if v > 0 {
			valid = append(valid, v)
		}
	}

	var bg float64
	switch {
	case len(valid) > 0:
		sort.Float64s(valid)
		bg = valid[len(valid)/2]
	case rng.MaxMM > rng.MinMM:
		bg = float64(rng.MaxMM)
	default:
		bg = fallbackBackgroundMM
	}

	for i, v := range d {
		if v <= 0 {
			d[i] = bg
		}
	}
}

// framePercentiles returns the 5th and 95th percentile of the samples.
func framePercentiles(d []float64) (p5, p95 float64) {
	sorted := make([]float64, len(d))
	copy(sorted, d)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0, 0
	}
	p5 = sorted[n*5/100]
	p95 = sorted[min(n-1, n*95/100)]
	return p5, p95
}

// medianFilter3 applies a 3x3 median filter with replicated borders to
// reduce depth speckle.
func medianFilter3(d []float64, w, h int) []float64 {
	out := make([]float64, len(d))
	var window [9]float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					sy := clampInt(y+dy, 0, h-1)
					window[k] = d[sy*w+sx]
					k++
				}
			}
			out[y*w+x] = median9(window)
		}
	}
	return out
}

// median9 returns the median of a 9-element window using a partial
// insertion sort up to the middle element.
func median9(window [9]float64) float64 {
	for i := 1; i < 9; i++ {
		v := window[i]
		j := i - 1
		for j >= 0 && window[j] > v {
			window[j+1] = window[j]
			j--
		}
		window[j+1] = v
	}
	return window[4]
}

// gaussianBlur3 applies a 3x3 gaussian kernel (1 2 1 / 2 4 2 / 1 2 1)/16
// with replicated borders to smooth the normalized plane.
func gaussianBlur3(src []uint8, w, h int) []uint8 {
	kernel := [3][3]int{{1, 2, 1}, {2, 4, 2}, {1, 2, 1}}
	out := make([]uint8, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					sy := clampInt(y+dy, 0, h-1)
					sum += int(src[sy*w+sx]) * kernel[dy+1][dx+1]
				}
			}
			out[y*w+x] = uint8((sum + 8) / 16)
		}
	}
	return out
}

// resize scales the image to the target resolution with bilinear
// interpolation. The source image is never mutated.
func resize(src *image.RGBA, outW, outH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	if src.Bounds().Dx() == outW && src.Bounds().Dy() == outH {
		copy(dst.Pix, src.Pix)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
