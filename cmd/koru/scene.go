// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/model"
	"github.com/devblok/korugfx/resource"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
)

// Primitive groups of the shapes mesh.
const (
	boxGroup = iota
	planeGroup
)

// vulkanClip maps GL clip space to Vulkan: y points down, depth is 0..1.
var vulkanClip = glm.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type scene struct {
	g       *gfx.Gfx
	box     *model.ShapeObject
	plane   *model.ShapeObject
	params  *gfx.UniformData
	drawID  resource.Id
	uniform model.Uniform
	angle   float32
}

func paramsLayout() gfx.UniformLayout {
	var layout gfx.UniformLayout
	if err := layout.Add("mvp", gfx.UniformMat4); err != nil {
		panic(err)
	}
	return layout
}

// programSetup picks the shader input the running backend consumes.
func programSetup(backend gfx.BackendType, shaders packr.Box) (gfx.ProgramBundleSetup, error) {
	setup := gfx.NewProgramBundleSetup(resource.NewLocator("shapes.program"))
	switch backend {
	case gfx.BackendGL:
		vs, err := shaders.FindString("shapes.vert.glsl")
		if err != nil {
			return setup, err
		}
		fs, err := shaders.FindString("shapes.frag.glsl")
		if err != nil {
			return setup, err
		}
		if err := setup.AddProgramFromSources(0, gfx.GLSL330, vs, fs); err != nil {
			return setup, err
		}
	case gfx.BackendVulkan:
		lib, err := shaders.Find("shapes.kar")
		if err != nil {
			return setup, fmt.Errorf("shader library missing, build it with kar -library: %w", err)
		}
		setup.Library = lib
		if err := setup.AddProgramFromLibrary(0, "shapes.vert", "shapes.frag"); err != nil {
			return setup, err
		}
	default:
		return setup, fmt.Errorf("the sample has no shaders for the %q backend", backend)
	}
	err := setup.AddUniformBlock("params", paramsLayout(), gfx.VertexStage, 0)
	return setup, err
}

func newScene(g *gfx.Gfx, shaders packr.Box) (*scene, error) {
	shape, err := model.NewShapeBuilder().
		Colors(
			glm.Vec4{0.9, 0.3, 0.2, 1},
			glm.Vec4{0.2, 0.8, 0.3, 1},
			glm.Vec4{0.2, 0.4, 0.9, 1},
		).
		Box(1, 1, 1).
		Colors(glm.Vec4{0.35, 0.35, 0.35, 1}, glm.Vec4{0.6, 0.6, 0.6, 1}).
		Transform(glm.Translate3D(0, -0.75, 0)).
		Plane(4, 4, 8).
		Build()
	if err != nil {
		return nil, err
	}

	meshSetup, err := shape.MeshSetup(resource.NewLocator("shapes.mesh"))
	if err != nil {
		return nil, err
	}
	mesh := g.CreateResourceWithData(meshSetup, shape.Data())

	progSetup, err := programSetup(g.Backend(), shaders)
	if err != nil {
		return nil, err
	}
	prog := g.CreateResource(progSetup)

	dsSetup := gfx.NewDrawStateSetup(resource.NewLocator("shapes.drawstate"), mesh, prog)
	dsSetup.DepthStencil.DepthWriteEnabled = true
	dsSetup.DepthStencil.DepthCmpFunc = gfx.CompareLessEqual
	dsSetup.Rasterizer.CullFaceEnabled = true
	dsSetup.Rasterizer.CullFace = gfx.FaceBack
	drawID := g.CreateResource(dsSetup)

	if state := g.QueryResourceState(drawID); state != resource.Valid {
		return nil, fmt.Errorf("draw state is %s (mesh %s, program %s)",
			state, g.QueryResourceState(mesh), g.QueryResourceState(prog))
	}

	return &scene{
		g:      g,
		box:    model.NewShapeObject(shape),
		plane:  model.NewShapeObject(shape),
		params: gfx.NewUniformData(paramsLayout()),
		drawID: drawID,
		uniform: model.Uniform{
			View: glm.LookAtV(glm.Vec3{3, 2, 4}, glm.Vec3{0, -0.25, 0}, glm.Vec3{0, 1, 0}),
		},
	}, nil
}

func (s *scene) projection() glm.Mat4 {
	attrs := s.g.DisplayAttrs()
	aspect := float32(1)
	if attrs.FramebufferHeight > 0 {
		aspect = float32(attrs.FramebufferWidth) / float32(attrs.FramebufferHeight)
	}
	proj := glm.Perspective(glm.DegToRad(45), aspect, 0.1, 100)
	if s.g.Backend() == gfx.BackendVulkan {
		proj = vulkanClip.Mul4(proj)
	}
	return proj
}

func (s *scene) drawObject(obj model.Object, group int) {
	s.uniform.Model = model.ModelMatrix(obj)
	if err := s.params.SetMat4("mvp", s.uniform.MVP()); err != nil {
		panic(err)
	}
	s.g.ApplyUniformBlock(gfx.VertexStage, 0, s.params.Bytes())
	s.g.Draw(group)
}

// frame advances the box rotation and renders one frame.
func (s *scene) frame() {
	s.angle += 0.01
	s.box.SetRotation(glm.HomogRotate3D(s.angle, glm.Vec3{0, 1, 0}.Add(glm.Vec3{0.3, 0, 0.2}).Normalize()))
	s.uniform.Projection = s.projection()

	s.g.ApplyDefaultRenderTarget()
	cs := gfx.DefaultClearState()
	cs.Color = glm.Vec4{0.05, 0.05, 0.1, 1}
	s.g.Clear(cs)
	s.g.ApplyDrawState(s.drawID)
	s.drawObject(s.box, boxGroup)
	s.drawObject(s.plane, planeGroup)
	s.g.CommitFrame()
}
