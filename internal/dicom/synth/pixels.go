package synth

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// slicePixels renders one 16-bit slice: a bright disc of "body" over dark
// background with noise, and the label stamped in the corner.
func slicePixels(cfg modalities.PixelConfig, width, height int, seed uint64, label string) dicom.PixelDataInfo {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	nf := frame.NewNativeFrame[uint16](int(cfg.BitsAllocated), height, width, width*height, 1)

	maxVal := float64(int(1)<<cfg.BitsStored - 1)
	cx, cy := float64(width)/2, float64(height)/2
	radius := math.Min(cx, cy) * 0.8

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := 0.0
			if math.Sqrt(dx*dx+dy*dy) < radius {
				v = float64(cfg.BaseValue)
			}
			v += (rng.Float64() - 0.5) * float64(cfg.MaxValue) * 0.02
			nf.RawData[y*width+x] = uint16(math.Max(0, math.Min(maxVal, v)))
		}
	}

	stampLabel(nf, width, height, label, uint16(maxVal))

	return dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nf,
			},
		},
	}
}

// stampLabel draws text at the top-left of the frame, scaled so it stays
// legible on small slices.
func stampLabel(nf *frame.NativeFrame[uint16], width, height int, text string, white uint16) {
	if text == "" {
		return
	}

	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	textH := face.Metrics().Height.Ceil()
	src := image.NewAlpha(image.Rect(0, 0, textW, textH))
	d := &font.Drawer{
		Dst:  src,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: face.Metrics().Ascent},
	}
	d.DrawString(text)

	scale := max(1, width/(4*max(1, textW)))
	dst := image.NewAlpha(image.Rect(0, 0, textW*scale, textH*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	margin := max(2, width/64)
	b := dst.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if dst.AlphaAt(x, y) == (color.Alpha{}) {
				continue
			}
			px, py := x+margin, y+margin
			if px < width && py < height {
				nf.RawData[py*width+px] = white
			}
		}
	}
}
