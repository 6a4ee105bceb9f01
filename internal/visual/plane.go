package visual

import (
	"image"
	"image/color"
)

// Plane is a grayscale image stored as float64 luminance values in [0,255].
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// At returns the luminance at (x, y).
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Empty reports whether the plane has no pixels.
func (p *Plane) Empty() bool {
	return p == nil || p.Width <= 0 || p.Height <= 0
}

// Luminance converts img to a luminance plane.
// A nil image yields an empty plane.
func Luminance(img image.Image) *Plane {
	if img == nil {
		return NewPlane(0, 0)
	}
	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())
	if p.Empty() {
		return p
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < p.Height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+p.Width]
			for x, v := range row {
				p.Pix[y*p.Width+x] = float64(v)
			}
		}
	case *image.RGBA:
		for y := 0; y < p.Height; y++ {
			off := y * src.Stride
			for x := 0; x < p.Width; x++ {
				i := off + 4*x
				p.Pix[y*p.Width+x] = luma(float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2]))
			}
		}
	default:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				p.Pix[y*p.Width+x] = luma(float64(c.R), float64(c.G), float64(c.B))
			}
		}
	}
	return p
}

func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// Shrink downsamples the plane to width x height by averaging the source
// pixels that fall into each target cell. When the target is larger than
// the source along an axis, the nearest source pixel is used instead.
func (p *Plane) Shrink(width, height int) *Plane {
	out := NewPlane(width, height)
	if p.Empty() || width <= 0 || height <= 0 {
		return out
	}
	for ty := 0; ty < height; ty++ {
		y0, y1 := span(ty, height, p.Height)
		for tx := 0; tx < width; tx++ {
			x0, x1 := span(tx, width, p.Width)
			var sum float64
			for y := y0; y < y1; y++ {
				row := p.Pix[y*p.Width:]
				for x := x0; x < x1; x++ {
					sum += row[x]
				}
			}
			out.Pix[ty*width+tx] = sum / float64((y1-y0)*(x1-x0))
		}
	}
	return out
}

// span returns the half-open source interval covered by target cell i.
func span(i, targetSize, sourceSize int) (int, int) {
	lo := i * sourceSize / targetSize
	hi := (i + 1) * sourceSize / targetSize
	if hi <= lo {
		hi = lo + 1
	}
	if hi > sourceSize {
		hi = sourceSize
		if lo >= hi {
			lo = hi - 1
		}
	}
	return lo, hi
}
