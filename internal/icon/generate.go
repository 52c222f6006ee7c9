package icon

import (
	"image"
	"image/color"
	"math/rand/v2"

	"golang.org/x/image/draw"
)

// StandardSizes are the sizes most window managers pick icons from.
var StandardSizes = []Size{{16, 16}, {32, 32}, {64, 64}}

// Gradient builds opaque test icons with a two-axis color gradient. The
// channel order is shuffled with rng so repeated runs produce visibly
// different icons.
func Gradient(sizes []Size, rng *rand.Rand) Set {
	order := [3]int{0, 1, 2}
	rng.Shuffle(3, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	set := Set{}
	for _, size := range sizes {
		im := image.NewNRGBA(image.Rect(0, 0, size.W, size.H))
		for x := 0; x < size.W; x++ {
			for y := 0; y < size.H; y++ {
				val := [3]uint8{
					uint8(255 * x / size.W),
					uint8(255 * y / size.H),
					0,
				}
				im.SetNRGBA(x, y, color.NRGBA{
					R: val[order[0]],
					G: val[order[1]],
					B: val[order[2]],
					A: 255,
				})
			}
		}
		set[size] = im
	}
	return set
}

// Invert returns a copy of im with the color channels inverted and the alpha
// channel preserved.
func Invert(im image.Image) *image.NRGBA {
	b := im.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(im.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.SetNRGBA(x, y, color.NRGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A})
		}
	}
	return out
}

// Render scales src into each of the given sizes with bilinear filtering.
func Render(src image.Image, sizes []Size) Set {
	set := Set{}
	for _, size := range sizes {
		dst := image.NewNRGBA(image.Rect(0, 0, size.W, size.H))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		set[size] = dst
	}
	return set
}
