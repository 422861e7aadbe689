// Package frame turns captured camera images into the small JPEG payloads
// sent for inference.
package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

const (
	DefaultMaxWidth  = 320
	DefaultMaxHeight = 240
	DefaultQuality   = 80
)

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

// Fit scales w×h down to lie within maxW×maxH, keeping the aspect ratio.
// Width is clamped first, then height, so a frame that is too tall after
// the first pass is shrunk again.
func Fit(w, h, maxW, maxH int) Size {
	if w <= 0 || h <= 0 {
		return Size{}
	}
	fw, fh := float64(w), float64(h)
	if maxW > 0 && fw > float64(maxW) {
		fh = fh * float64(maxW) / fw
		fw = float64(maxW)
	}
	if maxH > 0 && fh > float64(maxH) {
		fw = fw * float64(maxH) / fh
		fh = float64(maxH)
	}
	return Size{
		Width:  max(1, int(math.Round(fw))),
		Height: max(1, int(math.Round(fh))),
	}
}

// Downscale returns img unchanged when it already fits.
func Downscale(img image.Image, maxW, maxH int) image.Image {
	src := SizeOf(img)
	dst := Fit(src.Width, src.Height, maxW, maxH)
	if dst == src {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, dst.Width, dst.Height))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

type Prepared struct {
	JPEG     []byte
	Captured Size
	Sent     Size
}

// Prepare downscales and encodes one captured frame.
func Prepare(img image.Image, maxW, maxH, quality int) (*Prepared, error) {
	if img == nil {
		return nil, fmt.Errorf("nil frame")
	}
	captured := SizeOf(img)
	if captured.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	scaled := Downscale(img, maxW, maxH)
	data, err := EncodeJPEG(scaled, quality)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		JPEG:     data,
		Captured: captured,
		Sent:     SizeOf(scaled),
	}, nil
}

func DecodeJPEG(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	return img, nil
}
