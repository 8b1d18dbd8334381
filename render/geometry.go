package render

import (
	"encoding/binary"
	"math"

	"github.com/andewx/avixel/gpu"
)

type Vertex struct {
	Pos   [3]float32
	Color [3]float32
}

const vertexStride = 6 * 4

// VertexLayout describes Vertex at binding 0: position at location 0, color at location 1.
func VertexLayout() gpu.VertexLayout {
	return gpu.VertexLayout{
		Bindings: []gpu.VertexInputBinding{{Binding: 0, Stride: vertexStride}},
		Attributes: []gpu.VertexInputAttribute{
			{Location: 0, Binding: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: 0},
			{Location: 1, Binding: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: 3 * 4},
		},
	}
}

// Geometry is static indexed geometry uploaded once.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint16
}

// Quad is a unit quad centered on the origin with one color per corner.
func Quad() Geometry {
	return Geometry{
		Vertices: []Vertex{
			{Pos: [3]float32{-0.5, -0.5, 0}, Color: [3]float32{1, 0, 0}},
			{Pos: [3]float32{0.5, -0.5, 0}, Color: [3]float32{0, 1, 0}},
			{Pos: [3]float32{0.5, 0.5, 0}, Color: [3]float32{0, 0, 1}},
			{Pos: [3]float32{-0.5, 0.5, 0}, Color: [3]float32{1, 1, 1}},
		},
		Indices: []uint16{0, 1, 2, 2, 3, 0},
	}
}

func (g Geometry) VertexBytes() []byte {
	out := make([]byte, 0, len(g.Vertices)*vertexStride)
	for _, v := range g.Vertices {
		for _, f := range v.Pos {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		for _, f := range v.Color {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

func (g Geometry) IndexBytes() []byte {
	out := make([]byte, 0, len(g.Indices)*2)
	for _, i := range g.Indices {
		out = binary.LittleEndian.AppendUint16(out, i)
	}
	return out
}
