package phash

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

const (
	gridWidth  = 9
	gridHeight = 8
)

// BT.709 luma coefficients.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// DHash computes the difference hash of img. It returns Invalid for a nil
// image, an empty image or any failure while resampling.
func DHash(img image.Image) (h Hash) {
	if img == nil {
		return Invalid
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Invalid
	}
	defer func() {
		if recover() != nil {
			h = Invalid
		}
	}()

	src := flatten(img)
	grid := image.NewRGBA(image.Rect(0, 0, gridWidth, gridHeight))
	draw.BiLinear.Scale(grid, grid.Bounds(), src, src.Bounds(), draw.Src, nil)
	if grid.Bounds().Dx() != gridWidth || grid.Bounds().Dy() != gridHeight {
		return Invalid
	}

	var lum [gridHeight][gridWidth]float64
	for y := 0; y < gridHeight; y++ {
		for x := 0; x < gridWidth; x++ {
			lum[y][x] = luma(grid.RGBAAt(x, y))
		}
	}

	var v uint64
	for y := 0; y < gridHeight; y++ {
		for x := 0; x < gridWidth-1; x++ {
			if lum[y][x] > lum[y][x+1] {
				v |= 1 << uint(y*8+x)
			}
		}
	}
	return FromUint64(v)
}

// flatten composites images that may carry transparency over an opaque
// white background of the same size.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func luma(c color.RGBA) float64 {
	return lumaR*float64(c.R) + lumaG*float64(c.G) + lumaB*float64(c.B)
}
