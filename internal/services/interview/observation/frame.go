package observation

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	// PNG frames are accepted as well as JPEG.
	_ "image/png"

	"golang.org/x/image/draw"
)

// MaxFrameWidth bounds the width of frames handed to a classifier.
const MaxFrameWidth = 640

// ErrEmptyFrame is returned for a zero-length frame.
var ErrEmptyFrame = errors.New("frame is empty")

// PrepareFrame decodes a JPEG or PNG frame, scales it down to at most
// MaxFrameWidth pixels wide keeping the aspect ratio, and re-encodes it as
// JPEG.
func PrepareFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	src, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame has no pixels")
	}

	img := src
	if width > MaxFrameWidth {
		scaledHeight := height * MaxFrameWidth / width
		if scaledHeight < 1 {
			scaledHeight = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, MaxFrameWidth, scaledHeight))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
