package visual

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math/bits"
	"strconv"
	"strings"
)

// HashKind selects the perceptual hash algorithm.
type HashKind int

const (
	// HashGradient sets a bit when a cell is brighter than its right
	// neighbor, on a (grid+1) x grid thumbnail.
	HashGradient HashKind = iota

	// HashAverage sets a bit when a cell is brighter than the thumbnail
	// mean, on a grid x grid thumbnail.
	HashAverage
)

// String returns the configuration name of the hash kind.
func (k HashKind) String() string {
	switch k {
	case HashGradient:
		return "gradient"
	case HashAverage:
		return "average"
	default:
		return "unknown"
	}
}

// ParseHashKind parses "gradient" or "average".
func ParseHashKind(name string) (HashKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gradient", "difference", "dhash":
		return HashGradient, nil
	case "average", "ahash":
		return HashAverage, nil
	default:
		return 0, fmt.Errorf("unknown hash kind %q", name)
	}
}

// DefaultHashGrid is the thumbnail size giving 64-bit hashes.
const DefaultHashGrid = 8

// ErrNoImage is returned when there is nothing to hash.
var ErrNoImage = errors.New("no image to hash")

// Hasher computes perceptual hashes.
type Hasher struct {
	kind HashKind
	grid int
}

// NewHasher creates a hasher. A non-positive grid uses DefaultHashGrid.
func NewHasher(kind HashKind, grid int) *Hasher {
	if grid <= 0 {
		grid = DefaultHashGrid
	}
	return &Hasher{kind: kind, grid: grid}
}

// Bits returns the number of bits in a hash produced by h.
func (h *Hasher) Bits() int {
	return h.grid * h.grid
}

// Hash computes the encoded hash of img.
func (h *Hasher) Hash(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrNoImage
	}
	return h.HashPlane(Luminance(img))
}

// HashPlane computes the encoded hash of a luminance plane.
func (h *Hasher) HashPlane(p *Plane) (string, error) {
	if p.Empty() {
		return "", ErrNoImage
	}

	set := make([]bool, 0, h.Bits())
	switch h.kind {
	case HashAverage:
		thumb := p.Shrink(h.grid, h.grid)
		var mean float64
		for _, v := range thumb.Pix {
			mean += v
		}
		mean /= float64(len(thumb.Pix))
		for _, v := range thumb.Pix {
			set = append(set, v > mean)
		}
	case HashGradient:
		thumb := p.Shrink(h.grid+1, h.grid)
		for y := 0; y < thumb.Height; y++ {
			for x := 0; x < h.grid; x++ {
				set = append(set, thumb.At(x, y) > thumb.At(x+1, y))
			}
		}
	default:
		return "", fmt.Errorf("unsupported hash kind %d", h.kind)
	}
	return encode(set), nil
}

// encode formats bits as "<bit count>:<base64>" so the pad bits of the
// last byte are never compared.
func encode(set []bool) string {
	return strconv.Itoa(len(set)) + ":" + base64.StdEncoding.EncodeToString(pack(set))
}

// decode parses an encoded hash and returns its bytes and bit count.
// A bare base64 string counts every decoded bit.
func decode(s string) ([]byte, int, bool) {
	n := -1
	if i := strings.IndexByte(s, ':'); i >= 0 {
		v, err := strconv.Atoi(s[:i])
		if err != nil {
			return nil, 0, false
		}
		n, s = v, s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) == 0 {
		return nil, 0, false
	}
	if n < 0 {
		n = 8 * len(raw)
	}
	if n <= 0 || n > 8*len(raw) {
		return nil, 0, false
	}
	return raw, n, true
}

// pack stores bits most significant first; trailing pad bits are zero.
func pack(set []bool) []byte {
	out := make([]byte, (len(set)+7)/8)
	for i, b := range set {
		if b {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// Similarity returns 1 - hamming/bits for two encoded hashes.
//
// Hashes of unequal length are compared over their common bit prefix only,
// so a hash is never penalized for bits its counterpart does not have.
// Empty or undecodable hashes yield 0.
func Similarity(a, b string) float64 {
	ra, na, ok := decode(a)
	if !ok {
		return 0
	}
	rb, nb, ok := decode(b)
	if !ok {
		return 0
	}
	n := min(na, nb)
	return 1 - float64(hammingBits(ra, rb, n))/float64(n)
}

// hammingBits counts differing bits among the first n bits.
func hammingBits(a, b []byte, n int) int {
	full := n / 8
	d := Hamming(a[:full], b[:full])
	if r := n % 8; r > 0 {
		mask := byte(0xFF) << (8 - r)
		d += bits.OnesCount8((a[full] ^ b[full]) & mask)
	}
	return d
}

// Hamming counts differing bits between two byte slices of equal length.
// Extra bytes in the longer slice are ignored.
func Hamming(a, b []byte) int {
	n := min(len(a), len(b))
	d := 0
	for i := 0; i < n; i++ {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d
}
