package avatar

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	b, err := Generate('a')
	require.NoError(t, err)
	require.NotEmpty(t, b)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)

	assert.Equal(t, Size, img.Bounds().Dx())
	assert.Equal(t, Size, img.Bounds().Dy())

	// corner is background, the background is one of the palette colors
	r, g, bl, _ := img.At(1, 1).RGBA()
	found := false
	for _, c := range palette {
		cr, cg, cb, _ := c.RGBA()
		if r == cr && g == cg && bl == cb {
			found = true
			break
		}
	}
	assert.True(t, found)
}

func TestGenerate_deterministic(t *testing.T) {
	b1, err := generate('A', color.RGBA{R: 0xff, A: 0xff})
	require.NoError(t, err)

	b2, err := generate('A', color.RGBA{R: 0xff, A: 0xff})
	require.NoError(t, err)

	require.Equal(t, b1, b2)
}

func TestGenerate_uppercases(t *testing.T) {
	b1, err := generate('a', color.RGBA{B: 0xff, A: 0xff})
	require.NoError(t, err)

	b2, err := generate('A', color.RGBA{B: 0xff, A: 0xff})
	require.NoError(t, err)

	require.Equal(t, b1, b2)
}
