// Package avatar normalizes player avatars into bounded webp images.
package avatar

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

// MaxDimension bounds the longest avatar edge after normalization.
const MaxDimension = 256

const encodeQuality = 80

// Normalize decodes an avatar, scales it down to MaxDimension and re-encodes
// it as webp. Input that cannot be decoded is passed through untouched so an
// unrecognized format never blocks a join.
func Normalize(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}

	img, err := decode(data)
	if err != nil {
		return data
	}

	img = scaleDown(img)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: encodeQuality}); err != nil {
		return data
	}
	return buf.Bytes()
}

func decode(data []byte) (image.Image, error) {
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= MaxDimension && height <= MaxDimension {
		return img
	}

	if width >= height {
		height = height * MaxDimension / width
		width = MaxDimension
	} else {
		width = width * MaxDimension / height
		height = MaxDimension
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
