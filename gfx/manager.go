// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"

	"github.com/devblok/korugfx/resource"
	"github.com/sirupsen/logrus"
)

// contract reports violations of the calling protocol.
type contract struct {
	debug bool
	log   logrus.FieldLogger
}

func (c contract) violated(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.debug {
		panic("gfx: " + msg)
	}
	c.log.Error(msg)
}

type shaderSlot struct {
	setup ShaderSetup
	obj   Object
}

type programBundleSlot struct {
	setup   ProgramBundleSetup
	obj     Object
	shaders []resource.Id
}

type meshSlot struct {
	setup MeshSetup
	obj   Object
}

type textureSlot struct {
	setup TextureSetup
	obj   Object
}

type drawStateSlot struct {
	setup        DrawStateSetup
	obj          Object
	program      ProgramBundleSetup
	programIndex int
}

// manager owns the resource pools and drives creation and destruction
// through the backend factory.
type manager struct {
	cfg      Configuration
	log      logrus.FieldLogger
	contract contract
	factory  Factory
	registry *resource.Registry

	// onDestroy is called before a resource is destroyed.
	onDestroy func(id resource.Id)

	shaders        *resource.Pool[shaderSlot]
	programBundles *resource.Pool[programBundleSlot]
	meshes         *resource.Pool[meshSlot]
	textures       *resource.Pool[textureSlot]
	drawStates     *resource.Pool[drawStateSlot]
}

func newManager(cfg Configuration, factory Factory) (*manager, error) {
	m := &manager{
		cfg:      cfg,
		log:      cfg.Log(),
		contract: contract{debug: cfg.Debug, log: cfg.Log()},
		factory:  factory,
		registry: resource.NewRegistry(),
	}
	var err error
	if m.shaders, err = resource.NewPool[shaderSlot](TypeShader, cfg.ShaderPoolSize); err != nil {
		return nil, err
	}
	if m.programBundles, err = resource.NewPool[programBundleSlot](TypeProgramBundle, cfg.ProgramBundlePoolSize); err != nil {
		return nil, err
	}
	if m.meshes, err = resource.NewPool[meshSlot](TypeMesh, cfg.MeshPoolSize); err != nil {
		return nil, err
	}
	if m.textures, err = resource.NewPool[textureSlot](TypeTexture, cfg.TexturePoolSize); err != nil {
		return nil, err
	}
	if m.drawStates, err = resource.NewPool[drawStateSlot](TypeDrawState, cfg.DrawStatePoolSize); err != nil {
		return nil, err
	}
	return m, nil
}

// create deduplicates shared locators and dispatches on the setup type.
func (m *manager) create(setup ResourceSetup, data []byte) resource.Id {
	loc := setup.ResourceLocator()
	if id := m.registry.Lookup(loc); id.IsValid() {
		return id
	}
	switch s := setup.(type) {
	case ShaderSetup:
		return m.createShader(s)
	case *ShaderSetup:
		return m.createShader(*s)
	case ProgramBundleSetup:
		return m.createProgramBundle(s)
	case *ProgramBundleSetup:
		return m.createProgramBundle(*s)
	case MeshSetup:
		return m.createMesh(s, data)
	case *MeshSetup:
		return m.createMesh(*s, data)
	case TextureSetup:
		return m.createTexture(s, data)
	case *TextureSetup:
		return m.createTexture(*s, data)
	case DrawStateSetup:
		return m.createDrawState(s)
	case *DrawStateSetup:
		return m.createDrawState(*s)
	}
	m.contract.violated("unsupported resource setup %T", setup)
	return resource.InvalidId()
}

// realize allocates a slot, registers it and runs build synchronously.
// The slot ends up Valid or Failed.
func realize[T any](m *manager, pool *resource.Pool[T], loc resource.Locator, build func(*T) error) resource.Id {
	slot, err := pool.Alloc()
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"locator": loc.String(),
			"type":    TypeName(pool.Type()),
		}).WithError(err).Error("resource creation failed")
		return resource.InvalidId()
	}
	slot.State = resource.Setup
	m.registry.Add(loc, slot.Id)

	if err := build(&slot.Value); err != nil {
		slot.State = resource.Failed
		m.log.WithFields(logrus.Fields{
			"locator": loc.String(),
			"type":    TypeName(pool.Type()),
		}).WithError(err).Error("resource setup failed")
		return slot.Id
	}
	slot.State = resource.Valid
	return slot.Id
}

func (m *manager) createShader(setup ShaderSetup) resource.Id {
	return realize(m, m.shaders, setup.Locator, func(s *shaderSlot) error {
		s.setup = setup
		if setup.Stage < 0 || setup.Stage >= NumShaderStages {
			return fmt.Errorf("gfx: invalid shader stage %d", setup.Stage)
		}
		obj, err := m.factory.CreateShader(setup)
		if err != nil {
			return err
		}
		s.obj = obj
		return nil
	})
}

func (m *manager) createProgramBundle(setup ProgramBundleSetup) resource.Id {
	return realize(m, m.programBundles, setup.Locator, func(s *programBundleSlot) error {
		s.setup = setup
		if setup.NumPrograms() == 0 {
			return ErrNoProgram
		}
		if setup.NumPrograms() > m.cfg.MaxProgramsPerBundle {
			return &CapacityError{Table: "bundle programs", Limit: m.cfg.MaxProgramsPerBundle}
		}
		if setup.NumUniformBlocks() > m.cfg.MaxUniformBlocks {
			return &CapacityError{Table: "uniform blocks", Limit: m.cfg.MaxUniformBlocks}
		}
		obj, err := m.factory.CreateProgramBundle(setup, m)
		if err != nil {
			return err
		}
		s.obj = obj

		// Referenced shaders stay alive while the bundle uses them.
		for i := 0; i < setup.NumPrograms(); i++ {
			entry := setup.Program(i)
			for _, id := range []resource.Id{entry.VS.Shader, entry.FS.Shader} {
				if id.IsValid() {
					m.retain(id)
					s.shaders = append(s.shaders, id)
				}
			}
		}
		return nil
	})
}

func (m *manager) createMesh(setup MeshSetup, data []byte) resource.Id {
	return realize(m, m.meshes, setup.Locator, func(s *meshSlot) error {
		s.setup = setup
		if err := setup.Validate(data); err != nil {
			return err
		}
		obj, err := m.factory.CreateMesh(setup, data)
		if err != nil {
			return err
		}
		s.obj = obj
		return nil
	})
}

func (m *manager) createTexture(setup TextureSetup, data []byte) resource.Id {
	return realize(m, m.textures, setup.Locator, func(s *textureSlot) error {
		s.setup = setup
		if err := setup.Validate(data); err != nil {
			return err
		}
		obj, err := m.factory.CreateTexture(setup, data)
		if err != nil {
			return err
		}
		s.obj = obj
		return nil
	})
}

func (m *manager) createDrawState(setup DrawStateSetup) resource.Id {
	return realize(m, m.drawStates, setup.Locator, func(s *drawStateSlot) error {
		s.setup = setup
		s.programIndex = -1

		mesh := m.meshes.Lookup(setup.Mesh)
		if mesh == nil || mesh.State != resource.Valid {
			return fmt.Errorf("%w: mesh %s is %s", ErrDependencyNotValid, setup.Mesh, m.meshes.QueryState(setup.Mesh))
		}
		prog := m.programBundles.Lookup(setup.Program)
		if prog == nil || prog.State != resource.Valid {
			return fmt.Errorf("%w: program bundle %s is %s", ErrDependencyNotValid, setup.Program, m.programBundles.QueryState(setup.Program))
		}
		index, ok := prog.Value.setup.SelectProgram(setup.ProgramMask, mesh.Value.setup.Layout)
		if !ok {
			return fmt.Errorf("%w: mask %#x", ErrNoProgram, setup.ProgramMask)
		}
		obj, err := m.factory.CreateDrawState(setup, DrawStateDeps{
			Mesh:         mesh.Value.obj,
			MeshSetup:    mesh.Value.setup,
			Program:      prog.Value.obj,
			ProgramSetup: prog.Value.setup,
			ProgramIndex: index,
		})
		if err != nil {
			return err
		}
		s.obj = obj
		s.program = prog.Value.setup
		s.programIndex = index
		m.retain(setup.Mesh)
		m.retain(setup.Program)
		return nil
	})
}

// ResolveShader implements ShaderResolver.
func (m *manager) ResolveShader(id resource.Id) (Object, ShaderSetup, error) {
	slot := m.shaders.Lookup(id)
	if slot == nil {
		return nil, ShaderSetup{}, fmt.Errorf("%w: shader %s does not exist", ErrDependencyNotValid, id)
	}
	if slot.State != resource.Valid {
		return nil, ShaderSetup{}, fmt.Errorf("%w: shader %s is %s", ErrDependencyNotValid, slot.Value.setup.Locator, slot.State)
	}
	return slot.Value.obj, slot.Value.setup, nil
}

func (m *manager) retain(id resource.Id) {
	m.registry.Retain(id)
}

func (m *manager) lookup(loc resource.Locator) resource.Id {
	return m.registry.Lookup(loc)
}

func (m *manager) discard(id resource.Id) {
	known, last := m.registry.Release(id)
	if !known {
		m.contract.violated("discard of unknown resource %s", id)
		return
	}
	if last {
		m.destroy(id)
	}
}

// destroy releases the backend object, frees the slot and drops the uses
// the resource held on its dependencies.
func (m *manager) destroy(id resource.Id) {
	if m.onDestroy != nil {
		m.onDestroy(id)
	}
	loc, _ := m.registry.Locator(id)
	m.registry.Remove(id)

	var deps []resource.Id
	var obj Object
	switch id.Type() {
	case TypeShader:
		if s := m.shaders.Lookup(id); s != nil {
			obj = s.Value.obj
		}
		m.shaders.Free(id)
	case TypeProgramBundle:
		if s := m.programBundles.Lookup(id); s != nil {
			obj = s.Value.obj
			deps = s.Value.shaders
		}
		m.programBundles.Free(id)
	case TypeMesh:
		if s := m.meshes.Lookup(id); s != nil {
			obj = s.Value.obj
		}
		m.meshes.Free(id)
	case TypeTexture:
		if s := m.textures.Lookup(id); s != nil {
			obj = s.Value.obj
		}
		m.textures.Free(id)
	case TypeDrawState:
		if s := m.drawStates.Lookup(id); s != nil {
			obj = s.Value.obj
			if s.State == resource.Valid {
				deps = []resource.Id{s.Value.setup.Mesh, s.Value.setup.Program}
			}
		}
		m.drawStates.Free(id)
	}

	if obj != nil {
		obj.Release()
		if n := obj.LiveHandles(); n != 0 {
			m.contract.violated("resource %s leaked %d native handles", loc, n)
		}
	}
	for _, dep := range deps {
		m.discard(dep)
	}
}

func (m *manager) queryState(id resource.Id) resource.State {
	switch id.Type() {
	case TypeShader:
		return m.shaders.QueryState(id)
	case TypeProgramBundle:
		return m.programBundles.QueryState(id)
	case TypeMesh:
		return m.meshes.QueryState(id)
	case TypeTexture:
		return m.textures.QueryState(id)
	case TypeDrawState:
		return m.drawStates.QueryState(id)
	}
	return resource.Invalid
}

func (m *manager) useCount(id resource.Id) int {
	return m.registry.UseCount(id)
}

// liveHandles sums the native handles of every live object.
func (m *manager) liveHandles() int {
	n := 0
	count := func(obj Object) {
		if obj != nil {
			n += obj.LiveHandles()
		}
	}
	m.shaders.Each(func(s *resource.Slot[shaderSlot]) { count(s.Value.obj) })
	m.programBundles.Each(func(s *resource.Slot[programBundleSlot]) { count(s.Value.obj) })
	m.meshes.Each(func(s *resource.Slot[meshSlot]) { count(s.Value.obj) })
	m.textures.Each(func(s *resource.Slot[textureSlot]) { count(s.Value.obj) })
	m.drawStates.Each(func(s *resource.Slot[drawStateSlot]) { count(s.Value.obj) })
	return n
}

// discardAll destroys every live resource, dependents first.
func (m *manager) discardAll() {
	if n := m.registry.Len(); n > 0 {
		m.log.WithField("resources", n).Debug("destroying live resources at discard")
	}
	collect := func(each func(func(resource.Id))) []resource.Id {
		var ids []resource.Id
		each(func(id resource.Id) { ids = append(ids, id) })
		return ids
	}
	order := [][]resource.Id{
		collect(func(fn func(resource.Id)) {
			m.drawStates.Each(func(s *resource.Slot[drawStateSlot]) { fn(s.Id) })
		}),
		collect(func(fn func(resource.Id)) {
			m.programBundles.Each(func(s *resource.Slot[programBundleSlot]) { fn(s.Id) })
		}),
		collect(func(fn func(resource.Id)) {
			m.shaders.Each(func(s *resource.Slot[shaderSlot]) { fn(s.Id) })
		}),
		collect(func(fn func(resource.Id)) {
			m.meshes.Each(func(s *resource.Slot[meshSlot]) { fn(s.Id) })
		}),
		collect(func(fn func(resource.Id)) {
			m.textures.Each(func(s *resource.Slot[textureSlot]) { fn(s.Id) })
		}),
	}
	for _, ids := range order {
		for _, id := range ids {
			if m.registry.Contains(id) {
				m.destroy(id)
			}
		}
	}
}

func (m *manager) drawState(id resource.Id) (*drawStateSlot, error) {
	slot := m.drawStates.Lookup(id)
	if slot == nil {
		return nil, errors.New("unknown draw state")
	}
	if slot.State != resource.Valid {
		return nil, fmt.Errorf("draw state %s is %s", slot.Value.setup.Locator, slot.State)
	}
	return &slot.Value, nil
}

func (m *manager) meshSlot(id resource.Id) *meshSlot {
	if slot := m.meshes.Lookup(id); slot != nil && slot.State == resource.Valid {
		return &slot.Value
	}
	return nil
}

func (m *manager) textureSlot(id resource.Id) *textureSlot {
	if slot := m.textures.Lookup(id); slot != nil && slot.State == resource.Valid {
		return &slot.Value
	}
	return nil
}
