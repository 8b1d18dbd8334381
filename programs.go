package avixel

//go:generate glslangValidator -V shaders/render.vert -o shaders/render.vert.spv
//go:generate glslangValidator -V shaders/render.frag -o shaders/render.frag.spv
//go:generate glslangValidator -V shaders/font.frag -o shaders/font.frag.spv

import (
	"path/filepath"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/render"
)

// ShaderProgram names the SPIR-V files one pipeline is compiled from, relative to the
// shader directory.
type ShaderProgram struct {
	Name     string
	Vertex   string
	Fragment string
}

// DefaultPrograms is the base render pipeline and its font derivative.
var DefaultPrograms = []ShaderProgram{
	{Name: "render", Vertex: "render.vert.spv", Fragment: "render.frag.spv"},
	{Name: "font", Vertex: "render.vert.spv", Fragment: "font.frag.spv"},
}

// LoadPrograms reads every program's shaders from dir. Files shared between programs are read once.
func LoadPrograms(dir string, programs []ShaderProgram) ([]render.PipelineDescriptor, error) {
	loaded := make(map[string][]byte)
	load := func(name string) ([]byte, error) {
		path := filepath.Join(dir, name)
		if code, ok := loaded[path]; ok {
			return code, nil
		}
		code, err := render.LoadShader(path)
		if err != nil {
			return nil, err
		}
		loaded[path] = code
		return code, nil
	}

	descs := make([]render.PipelineDescriptor, 0, len(programs))
	for _, p := range programs {
		vert, err := load(p.Vertex)
		if err != nil {
			return nil, err
		}
		frag, err := load(p.Fragment)
		if err != nil {
			return nil, err
		}
		descs = append(descs, render.PipelineDescriptor{
			Name: p.Name,
			Stages: []render.ShaderStageDescriptor{
				{Stage: gpu.ShaderStageVertex, Code: vert},
				{Stage: gpu.ShaderStageFragment, Code: frag},
			},
			VertexLayout: render.VertexLayout(),
		})
	}
	return descs, nil
}
