// Package model holds the sample geometry and transforms that feed meshes
// and uniform blocks.
package model

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Object represents the engine supported model
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Shape returns the geometry drawn for the object.
	Shape() *Shape
}

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// MVP returns Projection * View * Model.
func (u Uniform) MVP() glm.Mat4 {
	return u.Projection.Mul4(u.View).Mul4(u.Model)
}

// ShapeObject places a shape in the scene.
type ShapeObject struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	shape *Shape
}

// NewShapeObject creates an object at the origin without rotation.
func NewShapeObject(shape *Shape) *ShapeObject {
	return &ShapeObject{
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		shape:    shape,
	}
}

// SetPosition implements interface
func (o *ShapeObject) SetPosition(pos glm.Mat4) {
	o.mutex.Lock()
	o.position = pos
	o.mutex.Unlock()
}

// Position implements interface
func (o *ShapeObject) Position() glm.Mat4 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.position
}

// SetRotation implements interface
func (o *ShapeObject) SetRotation(rot glm.Mat4) {
	o.mutex.Lock()
	o.rotation = rot
	o.mutex.Unlock()
}

// Rotation implements interface
func (o *ShapeObject) Rotation() glm.Mat4 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.rotation
}

// Shape implements interface
func (o *ShapeObject) Shape() *Shape {
	return o.shape
}

// ModelMatrix returns the object's position times its rotation.
func ModelMatrix(o Object) glm.Mat4 {
	return o.Position().Mul4(o.Rotation())
}

var _ Object = (*ShapeObject)(nil)
