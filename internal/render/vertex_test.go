package render

import (
	"encoding/binary"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestQuadVertices(t *testing.T) {
	vertices := quadVertices()

	require.Len(t, vertices, 6)
	for _, v := range vertices {
		assert.InDelta(t, 0.5, abs(v.Position.X()), 0)
		assert.InDelta(t, 0.5, abs(v.Position.Y()), 0)
		assert.Equal(t, float32(1), v.Color.X())
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestVertexLayout(t *testing.T) {
	bindings := vertexBindingDescriptions()
	require.Len(t, bindings, 1)
	assert.Equal(t, 20, bindings[0].Stride)
	assert.Equal(t, binary.Size(Vertex{}), bindings[0].Stride)

	attributes := vertexAttributeDescriptions()
	require.Len(t, attributes, 2)
	assert.Equal(t, core1_0.FormatR32G32SignedFloat, attributes[0].Format)
	assert.Equal(t, 0, attributes[0].Offset)
	assert.Equal(t, core1_0.FormatR32G32B32SignedFloat, attributes[1].Format)
	assert.Equal(t, 8, attributes[1].Offset)
	assert.Equal(t, 1, attributes[1].Location)
}

func TestVertexBufferNeedsATriangle(t *testing.T) {
	var device *Device

	_, err := device.createVertexBuffer(quadVertices()[:2])

	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}
