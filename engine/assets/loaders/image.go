package loaders

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/resources"
)

/** @brief Parameters used when loading an image. */
type ImageParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
}

type ImageLoader struct{}

// DecodeImage decodes any registered format into tightly packed RGBA8.
func DecodeImage(data []byte, flipY bool) (*image.RGBA, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedImage, err)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s image has no pixels", core.ErrUnsupportedImage, format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	if flipY {
		flipRows(dst)
	}
	return dst, nil
}

func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

func (il *ImageLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	var flip bool
	if p, ok := params.(*ImageParams); ok && p != nil {
		flip = p.FlipY
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(data, flip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &resources.Resource{
		Type:     resources.ResourceTypeImage,
		Name:     path,
		FullPath: path,
		DataSize: uint64(len(img.Pix)),
		Data: &resources.ImageResourceData{
			Width:  uint32(img.Bounds().Dx()),
			Height: uint32(img.Bounds().Dy()),
			Image:  img,
		},
	}, nil
}

func (il *ImageLoader) Unload(res *resources.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}
