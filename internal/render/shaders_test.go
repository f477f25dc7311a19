package render

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spirvMagic = []byte{0x03, 0x02, 0x23, 0x07}

func TestLoadShaders(t *testing.T) {
	fsys := fstest.MapFS{
		VertexShaderPath:   {Data: append(append([]byte{}, spirvMagic...), 1, 0, 0, 0)},
		FragmentShaderPath: {Data: spirvMagic},
	}

	code, err := LoadShaders(fsys, VertexShaderPath, FragmentShaderPath)

	require.NoError(t, err)
	assert.Len(t, code.Vertex, 8)
	assert.Equal(t, spirvMagic, code.Fragment)
	assert.Equal(t, []uint32{0x07230203, 1}, bytesToBytecode(code.Vertex))
}

func TestLoadShadersMissingFile(t *testing.T) {
	fsys := fstest.MapFS{
		VertexShaderPath: {Data: spirvMagic},
	}

	_, err := LoadShaders(fsys, VertexShaderPath, FragmentShaderPath)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSetup))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadShadersRejectsTruncatedCode(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     {},
		"truncated": spirvMagic[:3],
	} {
		t.Run(name, func(t *testing.T) {
			fsys := fstest.MapFS{
				VertexShaderPath:   {Data: spirvMagic},
				FragmentShaderPath: {Data: data},
			}

			_, err := LoadShaders(fsys, VertexShaderPath, FragmentShaderPath)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSetup))
			assert.Contains(t, err.Error(), FragmentShaderPath)
		})
	}
}
