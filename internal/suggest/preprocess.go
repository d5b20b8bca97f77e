package suggest

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/draw"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// inputSize is the encoder's expected square input edge.
const inputSize = 224

// CLIP preprocessing constants, per-channel mean and std in RGB order.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// preprocessImage decodes the image at path and produces the encoder
// input: shortest side scaled to inputSize, center crop, values scaled
// to [0,1] and normalized with the CLIP mean/std, laid out CHW.
func preprocessImage(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return encodePixels(resizeCenterCrop(src)), nil
}

// resizeCenterCrop scales the shortest side to inputSize and crops the
// center square.
func resizeCenterCrop(src image.Image) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := inputSize, inputSize
	if w < h {
		dh = (h*inputSize + w/2) / w
	} else if h < w {
		dw = (w*inputSize + h/2) / h
	}
	if dw < inputSize {
		dw = inputSize
	}
	if dh < inputSize {
		dh = inputSize
	}

	scaled := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, draw.Src, nil)

	out := image.NewRGBA(image.Rect(0, 0, inputSize, inputSize))
	draw.Draw(out, out.Bounds(), scaled, image.Pt((dw-inputSize)/2, (dh-inputSize)/2), draw.Src)
	return out
}

// encodePixels converts an RGBA crop to normalized CHW float32.
func encodePixels(img *image.RGBA) []float32 {
	const plane = inputSize * inputSize
	out := make([]float32, 3*plane)
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			i := img.PixOffset(x, y)
			idx := y*inputSize + x
			out[idx] = (float32(img.Pix[i])/255 - clipMean[0]) / clipStd[0]
			out[plane+idx] = (float32(img.Pix[i+1])/255 - clipMean[1]) / clipStd[1]
			out[2*plane+idx] = (float32(img.Pix[i+2])/255 - clipMean[2]) / clipStd[2]
		}
	}
	return out
}
