package loader

import (
	"image"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wrappedJSON = `{
  "stages": [
    {"name": "1", "outerImage": "assets/img/lobby.jpg",
     "videos": [{"url": "assets/video/a.mp4", "x": 100, "y": 200, "width": 320, "height": 180}]},
    {"name": "2", "outerImage": "assets/img/hall.jpg", "videos": []}
  ]
}`

const bareYAML = `
- name: lobby
  outerImage: lobby.jpg
  videos:
    - url: a.mp4
      x: 10
      y: 20
      width: 30
      height: 40
- name: hall
  outerImage: hall.jpg
`

func TestLoadJSONDocument(t *testing.T) {
	l := NewLoader(WithFS(fstest.MapFS{"stages/data.json": {Data: []byte(wrappedJSON)}}))
	stages, err := l.Load("stages/data.json")
	require.NoError(t, err)
	require.Len(t, stages, 2)

	assert.Equal(t, "1", stages[0].Name)
	assert.Equal(t, "assets/img/lobby.jpg", stages[0].OuterImage)
	require.Len(t, stages[0].Videos, 1)
	assert.Equal(t, image.Rect(100, 200, 420, 380), stages[0].Videos[0].Rect())
	assert.Empty(t, stages[1].Videos)

	assert.Equal(t, stages, l.Get("stages/data.json"))
}

func TestLoadBareJSONArray(t *testing.T) {
	stages, err := NewLoader().LoadReader("inline", strings.NewReader(`[{"name":"x","outerImage":"x.png"}]`), BackendTypeJSON)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, "x.png", stages[0].OuterImage)
}

func TestLoadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"bare.yml": {Data: []byte(bareYAML)},
		"doc.yaml": {Data: []byte("stages:\n  - name: only\n    outerImage: only.png\n")},
	}
	l := NewLoader(WithFS(fsys))

	bare, err := l.Load("bare.yml")
	require.NoError(t, err)
	require.Len(t, bare, 2)
	assert.Equal(t, VideoRegion{URL: "a.mp4", X: 10, Y: 20, Width: 30, Height: 40}, bare[0].Videos[0])
	assert.Equal(t, "hall", bare[1].Name)

	doc, err := l.Load("doc.yaml")
	require.NoError(t, err)
	require.Len(t, doc, 1)
	assert.Equal(t, "only", doc[0].Name)
	assert.Len(t, l.Stages(), 2)
}

func TestLoadErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"stages.txt":    {Data: []byte("[]")},
		"empty.json":    {Data: []byte(`{"stages": []}`)},
		"blank.yaml":    {Data: []byte("")},
		"bad.json":      {Data: []byte(`{"stages": [`)},
		"sizeless.json": {Data: []byte(`[{"name":"a","videos":[{"url":"v.mp4","width":0,"height":10}]}]`)},
		"nourl.yaml":    {Data: []byte("- name: a\n  videos:\n    - width: 1\n      height: 1\n")},
	}
	l := NewLoader(WithFS(fsys))

	_, err := l.Load("stages.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load("missing.json")
	assert.Error(t, err)

	for _, name := range []string{"empty.json", "blank.yaml", "sizeless.json", "nourl.yaml"} {
		_, err = l.Load(name)
		assert.ErrorIs(t, err, ErrInvalidStage, name)
		assert.Nil(t, l.Get(name), name)
	}

	_, err = l.Load("bad.json")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidStage)
}

func TestPrepopulatedCache(t *testing.T) {
	cached := []Stage{{Name: "cached"}}
	l := NewLoader(WithStages("data.json", cached))
	stages, err := l.Load("data.json")
	require.NoError(t, err)
	assert.Equal(t, cached, stages)
}

func TestLoadBundledStages(t *testing.T) {
	stages, err := NewLoader().Load(filepath.Join("..", "..", "assets", "json", "data.json"))
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "Lobby", stages[0].Name)
	assert.Equal(t, image.Rect(1600, 760, 2240, 1120), stages[0].Videos[0].Rect())
	assert.Empty(t, stages[2].Videos)
}
