// Package decoder extracts a barcode string from a product photo.
package decoder

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// ErrBarcodeNotFound means the image decoded fine but no supported barcode
// was detected in it.
var ErrBarcodeNotFound = errors.New("no barcode found in image")

// Decoder turns a raw image into a barcode string.
type Decoder interface {
	Decode(imageData []byte) (string, error)
}

type zxingDecoder struct{}

// New returns a Decoder for EAN/UPC retail barcodes.
func New() Decoder {
	return &zxingDecoder{}
}

func (d *zxingDecoder) Decode(imageData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", err
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}

	reader := oned.NewMultiFormatUPCEANReader(nil)
	result, err := reader.Decode(bmp, nil)
	if err != nil {
		return "", ErrBarcodeNotFound
	}
	return result.GetText(), nil
}
