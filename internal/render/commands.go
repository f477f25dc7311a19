package render

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// ShaderMatrices is the push constant block shared by both shader stages.
type ShaderMatrices struct {
	Projection mgl32.Mat4
	Transform  mgl32.Mat4
}

const pushConstantStages = core1_0.StageVertex | core1_0.StageFragment

var pushConstantSize = binary.Size(ShaderMatrices{})

var clearValues = []core1_0.ClearValue{
	core1_0.ClearValueFloat{0.01, 0.01, 0.01, 1},
	core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
}

// CommandEncoder records into a single command buffer.
type CommandEncoder interface {
	Reset() error
	Begin() error
	BeginRenderPass(renderPass core1_0.RenderPass, framebuffer core1_0.Framebuffer, extent core1_0.Extent2D, clear []core1_0.ClearValue) error
	SetViewport(viewport core1_0.Viewport)
	SetScissor(scissor core1_0.Rect2D)
	BindPipeline(pipeline core1_0.Pipeline)
	BindVertexBuffer(buffer core1_0.Buffer)
	PushConstants(layout core1_0.PipelineLayout, stages core1_0.ShaderStageFlags, data []byte)
	Draw(vertexCount int)
	EndRenderPass()
	End() error
}

// DrawTarget is everything a frame's commands refer to besides the
// transforms themselves.
type DrawTarget struct {
	RenderPass   core1_0.RenderPass
	Framebuffer  core1_0.Framebuffer
	Extent       core1_0.Extent2D
	Pipeline     core1_0.Pipeline
	Layout       core1_0.PipelineLayout
	VertexBuffer core1_0.Buffer
	VertexCount  int
}

// Record resets the encoder's command buffer and records one draw of the
// quad per transform: both paddles, then the ball. Recording again replaces
// everything recorded before.
func Record(enc CommandEncoder, target DrawTarget, projection mgl32.Mat4, transforms [3]mgl32.Mat4) error {
	err := enc.Reset()
	if err != nil {
		return err
	}

	err = enc.Begin()
	if err != nil {
		return err
	}

	err = enc.BeginRenderPass(target.RenderPass, target.Framebuffer, target.Extent, clearValues)
	if err != nil {
		return err
	}

	enc.SetViewport(core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(target.Extent.Width),
		Height:   float32(target.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	enc.SetScissor(core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: target.Extent,
	})
	enc.BindPipeline(target.Pipeline)
	enc.BindVertexBuffer(target.VertexBuffer)

	pushWriter := bytes.NewBuffer(make([]byte, 0, pushConstantSize))
	for _, transform := range transforms {
		pushWriter.Reset()
		err = binary.Write(pushWriter, common.ByteOrder, ShaderMatrices{
			Projection: projection,
			Transform:  transform,
		})
		if err != nil {
			return err
		}

		enc.PushConstants(target.Layout, pushConstantStages, bytes.Clone(pushWriter.Bytes()))
		enc.Draw(target.VertexCount)
	}

	enc.EndRenderPass()
	return enc.End()
}

type vulkanEncoder struct {
	driver core1_0.DeviceDriver
	buffer core1_0.CommandBuffer
}

func newVulkanEncoder(driver core1_0.DeviceDriver, buffer core1_0.CommandBuffer) *vulkanEncoder {
	return &vulkanEncoder{driver: driver, buffer: buffer}
}

func (e *vulkanEncoder) Reset() error {
	_, err := e.driver.ResetCommandBuffer(e.buffer, 0)
	return err
}

func (e *vulkanEncoder) Begin() error {
	_, err := e.driver.BeginCommandBuffer(e.buffer, core1_0.CommandBufferBeginInfo{})
	return err
}

func (e *vulkanEncoder) BeginRenderPass(renderPass core1_0.RenderPass, framebuffer core1_0.Framebuffer, extent core1_0.Extent2D, clear []core1_0.ClearValue) error {
	return e.driver.CmdBeginRenderPass(e.buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  renderPass,
			Framebuffer: framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent,
			},
			ClearValues: clear,
		})
}

func (e *vulkanEncoder) SetViewport(viewport core1_0.Viewport) {
	e.driver.CmdSetViewport(e.buffer, viewport)
}

func (e *vulkanEncoder) SetScissor(scissor core1_0.Rect2D) {
	e.driver.CmdSetScissor(e.buffer, scissor)
}

func (e *vulkanEncoder) BindPipeline(pipeline core1_0.Pipeline) {
	e.driver.CmdBindPipeline(e.buffer, core1_0.PipelineBindPointGraphics, pipeline)
}

func (e *vulkanEncoder) BindVertexBuffer(buffer core1_0.Buffer) {
	e.driver.CmdBindVertexBuffers(e.buffer, 0, []core1_0.Buffer{buffer}, []int{0})
}

func (e *vulkanEncoder) PushConstants(layout core1_0.PipelineLayout, stages core1_0.ShaderStageFlags, data []byte) {
	e.driver.CmdPushConstants(e.buffer, layout, stages, 0, data)
}

func (e *vulkanEncoder) Draw(vertexCount int) {
	e.driver.CmdDraw(e.buffer, vertexCount, 1, 0, 0)
}

func (e *vulkanEncoder) EndRenderPass() {
	e.driver.CmdEndRenderPass(e.buffer)
}

func (e *vulkanEncoder) End() error {
	_, err := e.driver.EndCommandBuffer(e.buffer)
	return err
}
