package accuracy

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrNoConfusionData is returned when the confusion matrix is empty.
var ErrNoConfusionData = errors.New("no confusion data")

// ConfusionScale is the upscaling factor applied to the rendered matrix.
const ConfusionScale = 2

const (
	glyphWidth  = 7
	glyphHeight = 13
	cellPadding = 8
	minCell     = 48
)

var (
	background = color.NRGBA{255, 255, 255, 255}
	ink        = color.NRGBA{0, 0, 0, 255}
	paper      = color.NRGBA{255, 255, 255, 255}
	lowBlue    = color.NRGBA{247, 251, 255, 255}
	highBlue   = color.NRGBA{8, 48, 107, 255}
)

// ConfusionImage renders the confusion matrix as a heatmap with rows for
// declared symbols and columns for predicted symbols.
func (t *Tracker) ConfusionImage(format Format) ([]byte, error) {
	img, err := RenderConfusion(t.Metrics().Gesture.Confusion)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode confusion image: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderConfusion draws the matrix. Cell shading is relative to the
// largest count.
func RenderConfusion(c Confusion) (*image.NRGBA, error) {
	labels := c.Labels()
	if len(labels) == 0 {
		return nil, ErrNoConfusionData
	}

	longest := 0
	for _, l := range labels {
		longest = max(longest, len(l))
	}
	cell := max(minCell, longest*glyphWidth+cellPadding)
	labelCol := longest*glyphWidth + 2*cellPadding
	header := 2*glyphHeight + 3*cellPadding

	n := len(labels)
	width := labelCol + n*cell + cellPadding
	height := header + n*cell + cellPadding

	img := imaging.New(width, height, background)

	peak := 0
	for _, row := range c {
		for _, v := range row {
			peak = max(peak, v)
		}
	}

	drawText(img, "declared \\ predicted", cellPadding, cellPadding+glyphHeight, ink)
	for j, l := range labels {
		x := labelCol + j*cell + (cell-len(l)*glyphWidth)/2
		drawText(img, string(l), x, header-cellPadding, ink)
	}

	for i, truth := range labels {
		y := header + i*cell
		drawText(img, string(truth), cellPadding, y+(cell+glyphHeight)/2, ink)

		for j, predicted := range labels {
			v := c[truth][predicted]
			x := labelCol + j*cell
			rect := image.Rect(x+1, y+1, x+cell-1, y+cell-1)
			draw.Draw(img, rect, image.NewUniform(shade(v, peak)), image.Point{}, draw.Src)

			text := ink
			if peak > 0 && float64(v) >= float64(peak)*0.5 {
				text = paper
			}
			s := strconv.Itoa(v)
			drawText(img, s, x+(cell-len(s)*glyphWidth)/2, y+(cell+glyphHeight)/2, text)
		}
	}

	return imaging.Resize(img, width*ConfusionScale, height*ConfusionScale, imaging.NearestNeighbor), nil
}

func shade(v, peak int) color.NRGBA {
	if peak <= 0 {
		return lowBlue
	}
	f := float64(v) / float64(peak)
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*f)
	}
	return color.NRGBA{
		R: mix(lowBlue.R, highBlue.R),
		G: mix(lowBlue.G, highBlue.G),
		B: mix(lowBlue.B, highBlue.B),
		A: 255,
	}
}

func drawText(dst draw.Image, s string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
