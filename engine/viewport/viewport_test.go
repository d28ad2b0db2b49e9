package viewport

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/stretchr/testify/assert"
)

func TestFromBounds(t *testing.T) {
	tests := []struct {
		name   string
		rect   common.Rect
		want   common.Viewport
		onView bool
	}{
		{
			name:   "fully visible",
			rect:   common.Rect{Left: 100, Top: 50, Right: 400, Bottom: 250},
			want:   common.Viewport{Left: 100, Bottom: 550, Width: 300, Height: 200},
			onView: true,
		},
		{
			name: "entirely below",
			rect: common.Rect{Left: 0, Top: 900, Right: 300, Bottom: 1100},
		},
		{
			name: "entirely above",
			rect: common.Rect{Left: 0, Top: -300, Right: 300, Bottom: -1},
		},
		{
			name: "entirely left",
			rect: common.Rect{Left: -500, Top: 0, Right: -10, Bottom: 100},
		},
		{
			name: "entirely right",
			rect: common.Rect{Left: 1300, Top: 0, Right: 1600, Bottom: 100},
		},
		{
			name:   "straddling the top edge",
			rect:   common.Rect{Left: 0, Top: -100, Right: 300, Bottom: 100},
			want:   common.Viewport{Left: 0, Bottom: 700, Width: 300, Height: 200},
			onView: true,
		},
		{
			name:   "touching the bottom edge",
			rect:   common.Rect{Left: 0, Top: 800, Right: 300, Bottom: 1000},
			want:   common.Viewport{Left: 0, Bottom: -200, Width: 300, Height: 200},
			onView: true,
		},
		{
			name: "zero area",
			rect: common.Rect{Left: 10, Top: 10, Right: 10, Bottom: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromBounds(tt.rect, 1280, 800)
			assert.Equal(t, tt.onView, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeMissingElement(t *testing.T) {
	page := host.NewPage(host.WithViewportSize(1280, 800))

	_, ok := Compute(nil, page)
	assert.False(t, ok)

	el := page.AppendSlot("a", "Scene a")
	vp, ok := Compute(el, page)
	assert.True(t, ok)
	assert.Equal(t, common.Viewport{Left: 16, Bottom: 484, Width: 400, Height: 300}, vp)

	page.Detach("a")
	_, ok = Compute(el, page)
	assert.False(t, ok)
}

func TestComputeFollowsScroll(t *testing.T) {
	page := host.NewPage(host.WithViewportSize(1280, 200))
	for _, id := range []string{"a", "b", "c", "d"} {
		page.AppendSlot(id, "")
	}
	d, _ := page.Element("d")

	_, ok := Compute(d, page)
	assert.False(t, ok)

	page.ScrollBy(300)
	vp, ok := Compute(d, page)
	assert.True(t, ok)
	assert.Equal(t, float32(200-(656-300)), vp.Bottom)
}
