package icon

import (
	"fmt"
	"image"
	"math/rand/v2"
	"os"

	_ "image/jpeg"
	_ "image/png"
)

// SquareSizes converts edge lengths into square sizes.
func SquareSizes(edges []int) []Size {
	sizes := make([]Size, len(edges))
	for i, e := range edges {
		sizes[i] = Size{W: e, H: e}
	}
	return sizes
}

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	im, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode image: %w", path, err)
	}
	return im, nil
}

// BuildSet produces the icon set to apply: imagePath rendered into sizes
// when given, otherwise a gradient test icon; optionally color-inverted.
func BuildSet(imagePath string, invert bool, sizes []Size, rng *rand.Rand) (Set, error) {
	if imagePath == "" {
		set := Gradient(sizes, rng)
		if invert {
			for size, im := range set {
				set[size] = Invert(im)
			}
		}
		return set, nil
	}
	im, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}
	if invert {
		im = Invert(im)
	}
	return Render(im, sizes), nil
}
