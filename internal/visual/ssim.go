package visual

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultWindow is the SSIM window edge length in pixels.
const DefaultWindow = 8

// Stabilizing constants for 8-bit dynamic range.
const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// SSIM computes the mean structural similarity of two images.
//
// Images of different size are both resampled to the smaller common size
// before comparison. The image is tiled with non-overlapping window x window
// blocks; when either dimension is smaller than the window a single SSIM is
// computed over the whole image. The result is clamped to [0,1], and a nil
// or empty image yields 0.
func SSIM(a, b image.Image, window int) float64 {
	if a == nil || b == nil || a.Bounds().Empty() || b.Bounds().Empty() {
		return 0
	}
	if window <= 0 {
		window = DefaultWindow
	}

	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		w := min(ab.Dx(), bb.Dx())
		h := min(ab.Dy(), bb.Dy())
		a = Resize(a, w, h)
		b = Resize(b, w, h)
	}
	return SSIMPlanes(Luminance(a), Luminance(b), window)
}

// SSIMPlanes computes SSIM over two luminance planes of equal size.
// Planes of different size yield 0.
func SSIMPlanes(pa, pb *Plane, window int) float64 {
	if pa.Empty() || pb.Empty() || pa.Width != pb.Width || pa.Height != pb.Height {
		return 0
	}
	if window <= 0 {
		window = DefaultWindow
	}

	if pa.Width < window || pa.Height < window {
		return clamp(ssimBlock(pa, pb, 0, 0, pa.Width, pa.Height))
	}

	var (
		total float64
		count int
	)
	for y := 0; y+window <= pa.Height; y += window {
		for x := 0; x+window <= pa.Width; x += window {
			total += ssimBlock(pa, pb, x, y, window, window)
			count++
		}
	}
	return clamp(total / float64(count))
}

// ssimBlock evaluates the SSIM formula over one rectangle using population
// statistics.
func ssimBlock(pa, pb *Plane, x0, y0, w, h int) float64 {
	var sa, sb, saa, sbb, sab float64
	for y := y0; y < y0+h; y++ {
		ra := pa.Pix[y*pa.Width:]
		rb := pb.Pix[y*pb.Width:]
		for x := x0; x < x0+w; x++ {
			va, vb := ra[x], rb[x]
			sa += va
			sb += vb
			saa += va * va
			sbb += vb * vb
			sab += va * vb
		}
	}
	n := float64(w * h)
	mu1, mu2 := sa/n, sb/n
	var1 := saa/n - mu1*mu1
	var2 := sbb/n - mu2*mu2
	cov := sab/n - mu1*mu2

	num := (2*mu1*mu2 + ssimC1) * (2*cov + ssimC2)
	den := (mu1*mu1 + mu2*mu2 + ssimC1) * (var1 + var2 + ssimC2)
	return num / den
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Resize scales img to width x height with bilinear sampling.
func Resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
