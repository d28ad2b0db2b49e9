//go:build ffmpeg

package ffvideo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	v, err := Open("testdata/missing.mp4")
	assert.Error(t, err)
	assert.Nil(t, v)
}

// OXY_TEST_VIDEO names a local clip to decode.
func TestOpenPlayClose(t *testing.T) {
	path := os.Getenv("OXY_TEST_VIDEO")
	if path == "" {
		t.Skip("OXY_TEST_VIDEO not set")
	}
	v, err := Open(path)
	require.NoError(t, err)
	assert.False(t, v.Playing())

	require.NoError(t, v.Play())
	assert.True(t, v.Playing())

	require.NoError(t, v.Close())
	assert.NoError(t, v.Close())
	assert.Error(t, v.Play())
}
