package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-gl/mathgl/mgl32"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxTextureSize bounds the longer edge of decoded textures.
const MaxTextureSize = 1024

type textureData struct {
	rgba *image.RGBA
	mean mgl32.Vec4
}

// decodeTexture decodes PNG, JPEG, BMP or WebP data into RGBA, scaling
// it down when it exceeds MaxTextureSize.
func decodeTexture(data []byte) (*textureData, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	src := img.Bounds()
	w, h := fitWithin(src.Dx(), src.Dy(), MaxTextureSize)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty %s image", format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	}

	return &textureData{rgba: dst, mean: meanColor(dst)}, nil
}

// fitWithin scales w x h down so neither edge exceeds limit.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// meanColor averages every texel, normalized to [0, 1].
func meanColor(img *image.RGBA) mgl32.Vec4 {
	var sum [4]uint64
	n := uint64(0)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		sum[0] += uint64(img.Pix[i])
		sum[1] += uint64(img.Pix[i+1])
		sum[2] += uint64(img.Pix[i+2])
		sum[3] += uint64(img.Pix[i+3])
		n++
	}
	if n == 0 {
		return mgl32.Vec4{1, 1, 1, 1}
	}
	d := float32(n) * 255
	return mgl32.Vec4{
		float32(sum[0]) / d,
		float32(sum[1]) / d,
		float32(sum[2]) / d,
		float32(sum[3]) / d,
	}
}
