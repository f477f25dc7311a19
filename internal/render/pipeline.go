package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// PipelineConfig describes the fixed function state of a graphics pipeline.
// Build it with NewPipelineConfig and adjust fields before calling Build.
type PipelineConfig struct {
	VertexInput   core1_0.PipelineVertexInputStateCreateInfo
	InputAssembly core1_0.PipelineInputAssemblyStateCreateInfo
	Viewport      core1_0.PipelineViewportStateCreateInfo
	Rasterization core1_0.PipelineRasterizationStateCreateInfo
	Multisample   core1_0.PipelineMultisampleStateCreateInfo
	DepthStencil  core1_0.PipelineDepthStencilStateCreateInfo
	ColorBlend    core1_0.PipelineColorBlendStateCreateInfo
	DynamicStates []core1_0.DynamicState

	Layout     core1_0.PipelineLayout
	RenderPass core1_0.RenderPass
	Subpass    int
}

// NewPipelineConfig returns the defaults used for drawing flat rectangles:
// dynamic viewport and scissor, triangle lists, no culling, no blending and
// a LESS depth test.
func NewPipelineConfig(layout core1_0.PipelineLayout, renderPass core1_0.RenderPass) (*PipelineConfig, error) {
	config := defaultPipelineConfig()
	config.Layout = layout
	config.RenderPass = renderPass

	err := config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func defaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		VertexInput: core1_0.PipelineVertexInputStateCreateInfo{
			VertexBindingDescriptions:   vertexBindingDescriptions(),
			VertexAttributeDescriptions: vertexAttributeDescriptions(),
		},
		InputAssembly: core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},
		// Contents are ignored since both are dynamic, only the counts matter.
		Viewport: core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{{}},
			Scissors:  []core1_0.Rect2D{{}},
		},
		Rasterization: core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    core1_0.CullModeNone,
			FrontFace:   core1_0.FrontFaceCounterClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},
		Multisample: core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		DepthStencil: core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLess,
		},
		ColorBlend: core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,

			BlendConstants: [4]float32{0, 0, 0, 0},
			Attachments: []core1_0.PipelineColorBlendAttachmentState{
				{
					BlendEnabled:   false,
					ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
				},
			},
		},
		DynamicStates: []core1_0.DynamicState{core1_0.DynamicStateViewport, core1_0.DynamicStateScissor},
		Subpass:       0,
	}
}

func (c *PipelineConfig) validate() error {
	if !c.Layout.Initialized() {
		return errors.AssertionFailedf("pipeline config has no pipeline layout")
	}

	if !c.RenderPass.Initialized() {
		return errors.AssertionFailedf("pipeline config has no render pass")
	}

	return nil
}

// Build creates the pipeline from the config and the given SPIR-V code.
// Shader modules only live for the duration of the call.
func (c *PipelineConfig) Build(driver core1_0.DeviceDriver, vertexCode, fragmentCode []byte) (core1_0.Pipeline, error) {
	err := c.validate()
	if err != nil {
		return core1_0.Pipeline{}, err
	}

	vertShader, _, err := driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(vertexCode),
	})
	if err != nil {
		return core1_0.Pipeline{}, setupError(err, "creating vertex shader module")
	}
	defer driver.DestroyShaderModule(vertShader, nil)

	fragShader, _, err := driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(fragmentCode),
	})
	if err != nil {
		return core1_0.Pipeline{}, setupError(err, "creating fragment shader module")
	}
	defer driver.DestroyShaderModule(fragShader, nil)

	pipelines, _, err := driver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   "main",
				},
			},
			VertexInputState:   &c.VertexInput,
			InputAssemblyState: &c.InputAssembly,
			ViewportState:      &c.Viewport,
			RasterizationState: &c.Rasterization,
			MultisampleState:   &c.Multisample,
			DepthStencilState:  &c.DepthStencil,
			ColorBlendState:    &c.ColorBlend,
			DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
				DynamicStates: c.DynamicStates,
			},
			Layout:            c.Layout,
			RenderPass:        c.RenderPass,
			Subpass:           c.Subpass,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		return core1_0.Pipeline{}, setupError(err, "creating graphics pipeline")
	}

	return pipelines[0], nil
}

func createPipelineLayout(driver core1_0.DeviceDriver) (core1_0.PipelineLayout, error) {
	layout, _, err := driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: pushConstantStages,
				Offset:     0,
				Size:       pushConstantSize,
			},
		},
	})
	if err != nil {
		return core1_0.PipelineLayout{}, setupError(err, "creating pipeline layout")
	}

	return layout, nil
}
