package render

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type Vertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
}

func vertexBindingDescriptions() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func vertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
	}
}

// quadVertices is a unit square centered on the origin, as two triangles.
func quadVertices() []Vertex {
	white := mgl32.Vec3{1, 1, 1}
	return []Vertex{
		{Position: mgl32.Vec2{-0.5, -0.5}, Color: white},
		{Position: mgl32.Vec2{0.5, -0.5}, Color: white},
		{Position: mgl32.Vec2{0.5, 0.5}, Color: white},
		{Position: mgl32.Vec2{0.5, 0.5}, Color: white},
		{Position: mgl32.Vec2{-0.5, 0.5}, Color: white},
		{Position: mgl32.Vec2{-0.5, -0.5}, Color: white},
	}
}

type vertexBuffer struct {
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	count  int
}

func (d *Device) createVertexBuffer(vertices []Vertex) (vertexBuffer, error) {
	if len(vertices) < 3 {
		return vertexBuffer{}, errors.AssertionFailedf("vertex buffer needs at least one triangle, got %d vertices", len(vertices))
	}

	bufferSize := binary.Size(vertices)
	buffer, memory, err := d.createBuffer(bufferSize, core1_0.BufferUsageVertexBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	vb := vertexBuffer{buffer: buffer, memory: memory, count: len(vertices)}
	if err != nil {
		vb.destroy(d.Driver)
		return vertexBuffer{}, setupError(err, "creating vertex buffer")
	}

	err = writeData(d.Driver, memory, 0, vertices)
	if err != nil {
		vb.destroy(d.Driver)
		return vertexBuffer{}, setupError(err, "uploading vertices")
	}

	return vb, nil
}

func (b vertexBuffer) destroy(driver core1_0.DeviceDriver) {
	if b.buffer.Initialized() {
		driver.DestroyBuffer(b.buffer, nil)
	}

	if b.memory.Initialized() {
		driver.FreeMemory(b.memory, nil)
	}
}

func writeData(driver core1_0.DeviceDriver, memory core1_0.DeviceMemory, offset int, data any) error {
	bufferSize := binary.Size(data)

	memoryPtr, _, err := driver.MapMemory(memory, offset, bufferSize, 0)
	if err != nil {
		return err
	}
	defer driver.UnmapMemory(memory)

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), bufferSize)

	buf := &bytes.Buffer{}
	err = binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return err
	}

	copy(dataBuffer, buf.Bytes())
	return nil
}
