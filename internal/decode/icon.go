package decode

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	ico "github.com/sergeymakinen/go-ico"
	"github.com/sergeymakinen/go-ico/cur"
)

var errEmptyIcon = errors.New("icon has no images")

const curPrefix = "\x00\x00\x02\x00"

// nativeFormats are the format names the native strategy accepts from
// image.Decode. Icon containers are left to the icon strategy.
var nativeFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"tiff": true,
	"webp": true,
}

func decodeNative(data []byte, _ Hint) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if !nativeFormats[format] {
		return nil, fmt.Errorf("format %s is not a native raster format", format)
	}
	return img, nil
}

// decodeIcon decodes the largest image stored in an ICO or CUR file.
func decodeIcon(data []byte, _ Hint) (image.Image, error) {
	images, err := iconImages(data)
	if err != nil {
		return nil, err
	}
	var best image.Image
	bestArea := 0
	for _, img := range images {
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}
	if best == nil {
		return nil, errEmptyIcon
	}
	return best, nil
}

func iconImages(data []byte) ([]image.Image, error) {
	if bytes.HasPrefix(data, []byte(curPrefix)) {
		c, err := cur.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return c.Cursor, nil
	}
	return ico.DecodeAll(bytes.NewReader(data))
}

// decodeContainer runs every registered decoder, icon containers included,
// and applies the EXIF orientation of JPEG data.
func decodeContainer(data []byte, _ Hint) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}
