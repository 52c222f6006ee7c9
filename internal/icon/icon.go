// Package icon implements the binary codec between sets of RGBA images and
// the flat 32-bit word array stored in the _NET_WM_ICON window property. The
// codec is pure: it never touches a display connection.
package icon

import (
	"errors"
	"fmt"
	"image"
	"sort"
)

var (
	// ErrUnsupportedPixelFormat is returned when an image to encode is not
	// 8-bit non-premultiplied RGBA, or its bounds disagree with its key.
	ErrUnsupportedPixelFormat = errors.New("icon: unsupported pixel format")

	// ErrMalformedData is returned when a serialized icon claims more pixel
	// words than remain in the sequence.
	ErrMalformedData = errors.New("icon: malformed icon data")
)

// Size is an icon image's dimensions in pixels.
type Size struct {
	W, H int
}

// Set maps sizes to RGBA images. The canonical image type is *image.NRGBA:
// four channels at 8 bits each, alpha not premultiplied, matching the
// property's pixel contract.
type Set map[Size]image.Image

// Sizes returns the set's sizes in encoding order: ascending width, then
// ascending height.
func (s Set) Sizes() []Size {
	sizes := make([]Size, 0, len(s))
	for size := range s {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].W != sizes[j].W {
			return sizes[i].W < sizes[j].W
		}
		return sizes[i].H < sizes[j].H
	})
	return sizes
}

// Encode serializes an icon set into the flat word sequence the icon
// property requires: for each image, a [width, height] header followed by
// width*height words, each packing one pixel as a<<24|r<<16|g<<8|b.
// Images are emitted in the deterministic order of Sizes.
func Encode(set Set) ([]uint32, error) {
	var words []uint32
	for _, size := range set.Sizes() {
		im, ok := set[size].(*image.NRGBA)
		if !ok {
			return nil, fmt.Errorf("%w: %dx%d image is %T, not *image.NRGBA",
				ErrUnsupportedPixelFormat, size.W, size.H, set[size])
		}
		b := im.Bounds()
		if b.Dx() != size.W || b.Dy() != size.H {
			return nil, fmt.Errorf("%w: image bounds %dx%d stored under size %dx%d",
				ErrUnsupportedPixelFormat, b.Dx(), b.Dy(), size.W, size.H)
		}
		words = append(words, uint32(size.W), uint32(size.H))
		for y := 0; y < size.H; y++ {
			row := im.Pix[im.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < size.W; x++ {
				p := row[x*4 : x*4+4]
				words = append(words, uint32(p[3])<<24|uint32(p[0])<<16|uint32(p[1])<<8|uint32(p[2]))
			}
		}
	}
	return words, nil
}

// Decode parses a flat word sequence back into an icon set: repeatedly read
// a [width, height] header, consume width*height pixel words, until the
// sequence is exhausted.
func Decode(words []uint32) (Set, error) {
	set := Set{}
	for i := 0; i < len(words); {
		if len(words)-i < 2 {
			return nil, fmt.Errorf("%w: truncated image header at word %d", ErrMalformedData, i)
		}
		w, h := words[i], words[i+1]
		i += 2
		n := uint64(w) * uint64(h)
		if n > uint64(len(words)-i) {
			return nil, fmt.Errorf("%w: %dx%d image needs %d pixel words, %d remain",
				ErrMalformedData, w, h, n, len(words)-i)
		}
		im := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
		for p := 0; p < int(n); p++ {
			word := words[i+p]
			im.Pix[p*4+0] = uint8(word >> 16)
			im.Pix[p*4+1] = uint8(word >> 8)
			im.Pix[p*4+2] = uint8(word)
			im.Pix[p*4+3] = uint8(word >> 24)
		}
		i += int(n)
		set[Size{W: int(w), H: int(h)}] = im
	}
	return set, nil
}
