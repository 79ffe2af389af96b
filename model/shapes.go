package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/resource"
	glm "github.com/go-gl/mathgl/mgl32"
)

// ErrNoGeometry is returned when building a shape without adding any.
var ErrNoGeometry = errors.New("model: shape has no geometry")

// White is the default vertex color.
var White = glm.Vec4{1, 1, 1, 1}

// VertexLayout returns the layout of Vertex: position and color.
func VertexLayout() gfx.VertexLayout {
	layout, err := gfx.NewVertexLayout(
		gfx.VertexComponent{Attr: gfx.Position, Format: gfx.Float3},
		gfx.VertexComponent{Attr: gfx.Color0, Format: gfx.Float4},
	)
	if err != nil {
		panic(err)
	}
	return layout
}

// Shape is built geometry, one primitive group per added primitive.
type Shape struct {
	Vertices []Vertex
	Indices  []uint16
	Groups   []gfx.PrimitiveGroup
}

// MeshSetup describes an immutable mesh of the shape.
func (s *Shape) MeshSetup(loc resource.Locator) (gfx.MeshSetup, error) {
	setup := gfx.NewMeshSetup(loc, VertexLayout(), len(s.Vertices), gfx.Index16, len(s.Indices))
	for _, g := range s.Groups {
		if err := setup.AddPrimitiveGroup(g); err != nil {
			return gfx.MeshSetup{}, err
		}
	}
	return setup, nil
}

// Data returns the vertex bytes followed by the index bytes.
func (s *Shape) Data() []byte {
	const floats = 7
	stride := floats * 4
	data := make([]byte, len(s.Vertices)*stride+len(s.Indices)*2)
	values := make([]float32, 0, floats)
	for i, v := range s.Vertices {
		values = append(values[:0], v.Pos[:]...)
		values = append(values, v.Color[:]...)
		gfx.PutFloats(data[i*stride:], values)
	}
	indices := data[len(s.Vertices)*stride:]
	for i, idx := range s.Indices {
		binary.LittleEndian.PutUint16(indices[i*2:], idx)
	}
	return data
}

// ShapeBuilder accumulates boxes and planes into one Shape.
type ShapeBuilder struct {
	colors    []glm.Vec4
	transform glm.Mat4

	shape Shape
}

// NewShapeBuilder creates a builder that makes white shapes.
func NewShapeBuilder() *ShapeBuilder {
	return &ShapeBuilder{
		colors:    []glm.Vec4{White},
		transform: glm.Ident4(),
	}
}

// Colors sets the colors of following shapes. Box faces and plane tiles
// cycle through them.
func (b *ShapeBuilder) Colors(colors ...glm.Vec4) *ShapeBuilder {
	if len(colors) == 0 {
		colors = []glm.Vec4{White}
	}
	b.colors = colors
	return b
}

// Transform sets the transform applied to following shapes.
func (b *ShapeBuilder) Transform(m glm.Mat4) *ShapeBuilder {
	b.transform = m
	return b
}

func (b *ShapeBuilder) color(i int) glm.Vec4 {
	return b.colors[i%len(b.colors)]
}

func (b *ShapeBuilder) vertex(pos glm.Vec3, color glm.Vec4) {
	b.shape.Vertices = append(b.shape.Vertices, Vertex{
		Pos:   glm.TransformCoordinate(pos, b.transform),
		Color: color,
	})
}

// group closes a primitive group over the indices added since base.
func (b *ShapeBuilder) group(base int) {
	b.shape.Groups = append(b.shape.Groups, gfx.PrimitiveGroup{
		Type:        gfx.Triangles,
		BaseElement: base,
		NumElements: len(b.shape.Indices) - base,
	})
}

func (b *ShapeBuilder) quad(a, c, d, e int) {
	b.shape.Indices = append(b.shape.Indices,
		uint16(a), uint16(c), uint16(d),
		uint16(a), uint16(d), uint16(e))
}

// boxFaces holds normal, u and v of each face with u x v = normal.
var boxFaces = [6][3]glm.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

func scale(v, s glm.Vec3) glm.Vec3 {
	return glm.Vec3{v[0] * s[0], v[1] * s[1], v[2] * s[2]}
}

// Box adds a box centered on the origin with counter clockwise faces.
func (b *ShapeBuilder) Box(width, height, depth float32) *ShapeBuilder {
	half := glm.Vec3{width / 2, height / 2, depth / 2}
	base := len(b.shape.Indices)
	for i, face := range boxFaces {
		n, u, v := scale(face[0], half), scale(face[1], half), scale(face[2], half)
		first := len(b.shape.Vertices)
		color := b.color(i)
		b.vertex(n.Sub(u).Sub(v), color)
		b.vertex(n.Add(u).Sub(v), color)
		b.vertex(n.Add(u).Add(v), color)
		b.vertex(n.Sub(u).Add(v), color)
		b.quad(first, first+1, first+2, first+3)
	}
	b.group(base)
	return b
}

// Plane adds a plane on XZ facing +Y split into tiles x tiles quads.
func (b *ShapeBuilder) Plane(width, depth float32, tiles int) *ShapeBuilder {
	if tiles < 1 {
		tiles = 1
	}
	base := len(b.shape.Indices)
	first := len(b.shape.Vertices)
	row := tiles + 1
	for j := 0; j < row; j++ {
		for i := 0; i < row; i++ {
			pos := glm.Vec3{
				-width/2 + float32(i)*width/float32(tiles),
				0,
				depth/2 - float32(j)*depth/float32(tiles),
			}
			b.vertex(pos, b.color(i+j))
		}
	}
	for j := 0; j < tiles; j++ {
		for i := 0; i < tiles; i++ {
			a := first + j*row + i
			b.quad(a, a+1, a+row+1, a+row)
		}
	}
	b.group(base)
	return b
}

// Build returns the accumulated shape and resets the builder.
func (b *ShapeBuilder) Build() (*Shape, error) {
	shape := b.shape
	b.shape = Shape{}
	if len(shape.Vertices) == 0 {
		return nil, ErrNoGeometry
	}
	if len(shape.Vertices) > math.MaxUint16+1 {
		return nil, fmt.Errorf("model: %d vertices do not fit 16 bit indices", len(shape.Vertices))
	}
	if len(shape.Groups) > gfx.MaxNumPrimGroups {
		return nil, &gfx.CapacityError{Table: "primitive groups", Limit: gfx.MaxNumPrimGroups}
	}
	return &shape, nil
}
