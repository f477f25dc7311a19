package render

import (
	"io/fs"

	"golang.org/x/sync/errgroup"
)

//go:generate glslc ../../shaders/pong.vert -o ../../shaders/pong.vert.spv
//go:generate glslc ../../shaders/pong.frag -o ../../shaders/pong.frag.spv

const (
	VertexShaderPath   = "pong.vert.spv"
	FragmentShaderPath = "pong.frag.spv"
)

// ShaderCode holds SPIR-V binaries for the single graphics pipeline.
type ShaderCode struct {
	Vertex   []byte
	Fragment []byte
}

// LoadShaders reads both shader binaries from fsys.
func LoadShaders(fsys fs.FS, vertexPath, fragmentPath string) (ShaderCode, error) {
	var code ShaderCode
	var group errgroup.Group

	group.Go(func() error {
		var err error
		code.Vertex, err = readSPIRV(fsys, vertexPath)
		return err
	})
	group.Go(func() error {
		var err error
		code.Fragment, err = readSPIRV(fsys, fragmentPath)
		return err
	})

	if err := group.Wait(); err != nil {
		return ShaderCode{}, err
	}

	return code, nil
}

func readSPIRV(fsys fs.FS, path string) ([]byte, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, setupError(err, "reading shader")
	}

	if len(b) == 0 || len(b)%4 != 0 {
		return nil, setupErrorf("shader %s: %d bytes is not a whole number of SPIR-V words", path, len(b))
	}

	return b, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
