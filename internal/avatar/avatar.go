// Package avatar generates letter avatars.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"unicode"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Size is a side of the square avatar canvas in pixels.
const Size = 100

const fontSize = 50

// nolint:gochecknoglobals
var palette = []color.RGBA{
	{R: 0xff, A: 0xff}, // red
	{G: 0x80, A: 0xff}, // green
	{B: 0xff, A: 0xff}, // blue
}

// nolint:gochecknoglobals
var face font.Face

// nolint:gochecknoinits
func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("failed to parse font: %s", err))
	}

	face = truetype.NewFace(f, &truetype.Options{Size: fontSize})
}

// Generate renders letter centered on a Size x Size canvas and returns it
// PNG-encoded. The background color is picked at random, callers are expected
// to cache the result.
func Generate(letter rune) ([]byte, error) {
	return generate(letter, palette[rand.Intn(len(palette))]) // nolint:gosec
}

func generate(letter rune, background color.Color) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}

	s := string(unicode.ToUpper(letter))
	m := face.Metrics()

	d.Dot = fixed.Point26_6{
		X: (fixed.I(Size) - d.MeasureString(s)) / 2,
		Y: (fixed.I(Size) + m.Ascent - m.Descent) / 2,
	}
	d.DrawString(s)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}
