package common

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectGeometry(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 70}
	assert.Equal(t, float32(100), r.Width())
	assert.Equal(t, float32(50), r.Height())
	assert.Equal(t, float32(2), r.Aspect())
	assert.False(t, r.Empty())
	assert.True(t, r.Contains(10, 20))
	assert.False(t, r.Contains(110, 20))

	moved := r.Translate(5, -20)
	assert.Equal(t, Rect{Left: 15, Top: 0, Right: 115, Bottom: 50}, moved)

	assert.True(t, Rect{Left: 5, Top: 5, Right: 5, Bottom: 10}.Empty())
	assert.Equal(t, float32(0), Rect{}.Aspect())
}

func TestViewportScale(t *testing.T) {
	v := Viewport{Left: 1, Bottom: 2, Width: 3, Height: 4}.Scale(2)
	assert.Equal(t, Viewport{Left: 2, Bottom: 4, Width: 6, Height: 8}, v)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(12, 0, 10))
	assert.Equal(t, float32(2.5), Clamp(float32(2.5), 0, 10))
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#e0e0e0", color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}},
		{"ffffff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"0x102030", color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}},
		{"#abc", color.RGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseHexColor("#12")
	assert.Error(t, err)
	_, err = ParseHexColor("#zzzzzz")
	assert.Error(t, err)
}

func TestDigitIndex(t *testing.T) {
	idx, ok := DigitIndex(Key1)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = DigitIndex(Key9)
	assert.True(t, ok)
	assert.Equal(t, 8, idx)

	_, ok = DigitIndex(Key0)
	assert.False(t, ok)
}
