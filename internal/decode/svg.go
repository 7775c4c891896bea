package decode

import (
	"bytes"
	"errors"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const maxSVGHeight = 4096

var errNoViewBox = errors.New("svg has no usable dimensions")

// svgAt returns a strategy that rasterises SVG data at the given width,
// keeping the aspect ratio of the view box.
func svgAt(width int) func([]byte, Hint) (image.Image, error) {
	return func(data []byte, _ Hint) (image.Image, error) {
		return rasterizeSVG(data, width)
	}
}

func rasterizeSVG(data []byte, width int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, err
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 || math.IsNaN(vw) || math.IsNaN(vh) {
		return nil, errNoViewBox
	}
	height := int(math.Round(float64(width) * vh / vw))
	if height <= 0 || height > maxSVGHeight {
		return nil, errNoViewBox
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}
