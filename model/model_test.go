package model_test

import (
	"encoding/binary"
	"testing"

	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/model"
	"github.com/devblok/korugfx/resource"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	shape, err := model.NewShapeBuilder().Box(2, 4, 6).Build()
	require.NoError(t, err)

	assert.Len(t, shape.Vertices, 24)
	assert.Len(t, shape.Indices, 36)
	assert.Equal(t, []gfx.PrimitiveGroup{{Type: gfx.Triangles, BaseElement: 0, NumElements: 36}}, shape.Groups)
	for _, v := range shape.Vertices {
		assert.InDelta(t, 1, abs(v.Pos[0]), 1e-6)
		assert.InDelta(t, 2, abs(v.Pos[1]), 1e-6)
		assert.InDelta(t, 3, abs(v.Pos[2]), 1e-6)
		assert.Equal(t, model.White, v.Color)
	}
}

func TestBoxFacesPointOutwards(t *testing.T) {
	shape, err := model.NewShapeBuilder().Box(1, 1, 1).Build()
	require.NoError(t, err)

	for i := 0; i < len(shape.Indices); i += 3 {
		p0 := shape.Vertices[shape.Indices[i]].Pos
		p1 := shape.Vertices[shape.Indices[i+1]].Pos
		p2 := shape.Vertices[shape.Indices[i+2]].Pos
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		center := p0.Add(p1).Add(p2).Mul(1.0 / 3)
		assert.Greater(t, normal.Dot(center), float32(0), "triangle %d", i/3)
	}
}

func TestColorsCycle(t *testing.T) {
	red := glm.Vec4{1, 0, 0, 1}
	blue := glm.Vec4{0, 0, 1, 1}
	shape, err := model.NewShapeBuilder().Colors(red, blue).Box(1, 1, 1).Build()
	require.NoError(t, err)

	for face := 0; face < 6; face++ {
		want := red
		if face%2 == 1 {
			want = blue
		}
		for i := 0; i < 4; i++ {
			assert.Equal(t, want, shape.Vertices[face*4+i].Color)
		}
	}
}

func TestPlaneAndTransform(t *testing.T) {
	shape, err := model.NewShapeBuilder().
		Box(1, 1, 1).
		Transform(glm.Translate3D(0, -1, 0)).
		Plane(4, 4, 2).
		Build()
	require.NoError(t, err)

	assert.Len(t, shape.Vertices, 24+9)
	assert.Len(t, shape.Indices, 36+24)
	require.Len(t, shape.Groups, 2)
	assert.Equal(t, gfx.PrimitiveGroup{Type: gfx.Triangles, BaseElement: 36, NumElements: 24}, shape.Groups[1])

	for _, idx := range shape.Indices[36:] {
		assert.GreaterOrEqual(t, int(idx), 24)
	}
	for _, v := range shape.Vertices[24:] {
		assert.InDelta(t, -1, v.Pos[1], 1e-6)
	}
	assert.Equal(t, glm.Vec3{-2, -1, 2}, shape.Vertices[24].Pos)
	assert.Equal(t, glm.Vec3{2, -1, -2}, shape.Vertices[len(shape.Vertices)-1].Pos)
}

func TestBuildEmpty(t *testing.T) {
	_, err := model.NewShapeBuilder().Build()
	assert.ErrorIs(t, err, model.ErrNoGeometry)
}

func TestBuildResets(t *testing.T) {
	b := model.NewShapeBuilder()
	_, err := b.Box(1, 1, 1).Build()
	require.NoError(t, err)

	_, err = b.Build()
	assert.ErrorIs(t, err, model.ErrNoGeometry)
}

func TestTooManyGroups(t *testing.T) {
	b := model.NewShapeBuilder()
	for i := 0; i <= gfx.MaxNumPrimGroups; i++ {
		b.Plane(1, 1, 1)
	}
	_, err := b.Build()
	var capErr *gfx.CapacityError
	assert.ErrorAs(t, err, &capErr)
}

func TestMeshSetupMatchesData(t *testing.T) {
	shape, err := model.NewShapeBuilder().Box(1, 1, 1).Plane(2, 2, 1).Build()
	require.NoError(t, err)

	setup, err := shape.MeshSetup(resource.NewLocator("shapes"))
	require.NoError(t, err)
	data := shape.Data()
	require.NoError(t, setup.Validate(data))

	assert.Equal(t, gfx.Index16, setup.IndexType)
	assert.Equal(t, 28, setup.Layout.ByteSize())
	assert.Equal(t, 2, setup.NumPrimitiveGroups())

	floats := gfx.Floats(data[:28])
	v := shape.Vertices[0]
	assert.Equal(t, []float32{v.Pos[0], v.Pos[1], v.Pos[2], v.Color[0], v.Color[1], v.Color[2], v.Color[3]}, floats)

	indices := data[setup.VertexDataSize():]
	assert.Equal(t, shape.Indices[5], binary.LittleEndian.Uint16(indices[10:]))
}

func TestShapeObject(t *testing.T) {
	shape, err := model.NewShapeBuilder().Box(1, 1, 1).Build()
	require.NoError(t, err)

	obj := model.NewShapeObject(shape)
	assert.Same(t, shape, obj.Shape())
	assert.Equal(t, glm.Ident4(), model.ModelMatrix(obj))

	obj.SetPosition(glm.Translate3D(1, 2, 3))
	obj.SetRotation(glm.HomogRotate3DY(glm.DegToRad(90)))
	m := model.ModelMatrix(obj)
	p := glm.TransformCoordinate(glm.Vec3{1, 0, 0}, m)
	assert.InDelta(t, 1, p[0], 1e-5)
	assert.InDelta(t, 2, p[1], 1e-5)
	assert.InDelta(t, 2, p[2], 1e-5)
}

func TestUniformMVP(t *testing.T) {
	u := model.Uniform{
		Model:      glm.Translate3D(1, 0, 0),
		View:       glm.Translate3D(0, 1, 0),
		Projection: glm.Scale3D(2, 2, 2),
	}
	p := glm.TransformCoordinate(glm.Vec3{}, u.MVP())
	assert.Equal(t, glm.Vec3{2, 2, 0}, p)
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
