// Package imagefilter blurs regions of RGBA canvases and alpha masks.
package imagefilter

import (
	"image"
	"math"
	"sync"
)

// Blur applies a separable Gaussian blur (sigma = radius) in place to the
// part of img inside r. Pixels outside r are read but never written, so a
// caller that wants the full spread passes the drawn bounds grown by
// Expand(radius).
func Blur(img *image.RGBA, r image.Rectangle, radius float64) {
	blurChannels(img.Pix, img.Stride, 4, r.Sub(img.Rect.Min).Intersect(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy())), radius)
}

// BlurAlpha is Blur for an alpha mask.
func BlurAlpha(img *image.Alpha, r image.Rectangle, radius float64) {
	blurChannels(img.Pix, img.Stride, 1, r.Sub(img.Rect.Min).Intersect(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy())), radius)
}

// Expand grows r by the reach of a blur of the given radius (3 sigma).
func Expand(r image.Rectangle, radius float64) image.Rectangle {
	if radius <= 0 {
		return r
	}
	n := int(math.Ceil(radius * 3))
	return r.Inset(-n)
}

func blurChannels(pix []uint8, stride, channels int, r image.Rectangle, radius float64) {
	if radius <= 0 || r.Empty() {
		return
	}
	kernel := cachedKernel(radius)
	half := len(kernel) / 2
	width, height := r.Dx(), r.Dy()

	temp := getTemp(width * height * channels)
	defer putTemp(temp)

	// Horizontal pass: pix -> temp. Samples are clamped to r.
	for y := 0; y < height; y++ {
		row := (r.Min.Y + y) * stride
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				var sum float32
				for k, w := range kernel {
					kx := min(max(x+k-half, 0), width-1) + r.Min.X
					sum += float32(pix[row+kx*channels+c]) * w
				}
				temp.data[(y*width+x)*channels+c] = sum
			}
		}
	}

	// Vertical pass: temp -> pix.
	for y := 0; y < height; y++ {
		row := (r.Min.Y + y) * stride
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				var sum float32
				for k, w := range kernel {
					ky := min(max(y+k-half, 0), height-1)
					sum += temp.data[(ky*width+x)*channels+c] * w
				}
				pix[row+(r.Min.X+x)*channels+c] = clampUint8(sum)
			}
		}
	}
}

// GaussianKernel returns a normalized 1D kernel of size 2*ceil(3*sigma)+1.
func GaussianKernel(sigma float64) []float32 {
	if sigma <= 0 {
		return []float32{1}
	}
	half := int(math.Ceil(sigma * 3))
	kernel := make([]float32, half*2+1)
	twoSigmaSq := 2 * sigma * sigma
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	for i := range kernel {
		kernel[i] = float32(float64(kernel[i]) / sum)
	}
	return kernel
}

// kernelSteps quantizes cached kernel radii to quarter pixels.
const kernelSteps = 4

var kernels sync.Map // quantized radius -> []float32

func cachedKernel(radius float64) []float32 {
	key := int(math.Round(radius * kernelSteps))
	if k, ok := kernels.Load(key); ok {
		return k.([]float32)
	}
	k, _ := kernels.LoadOrStore(key, GaussianKernel(float64(key)/kernelSteps))
	return k.([]float32)
}

type floatBuffer struct {
	data []float32
}

var tempPool = sync.Pool{
	New: func() any { return &floatBuffer{} },
}

func getTemp(size int) *floatBuffer {
	b := tempPool.Get().(*floatBuffer)
	if cap(b.data) < size {
		b.data = make([]float32, size)
	}
	b.data = b.data[:size]
	return b
}

func putTemp(b *floatBuffer) { tempPool.Put(b) }

func clampUint8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
