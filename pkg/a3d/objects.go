package a3d

import (
	"fmt"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/alternativa"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/math"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// Material is a named color with an optional diffuse texture path. Version 2
// stores its strings null-terminated, version 3 length-prefixed.
type Material struct {
	Name       string
	Color      [3]float32
	DiffuseMap string
}

func (m *Material) readV2(r *stream.Reader) error {
	var err error
	if m.Name, err = r.CString(); err != nil {
		return err
	}
	if err = readVec3f(r, &m.Color); err != nil {
		return err
	}
	m.DiffuseMap, err = r.CString()
	return err
}

func (m *Material) writeV2(w *stream.Writer) {
	w.WriteCString(m.Name)
	writeVec3f(w, m.Color)
	w.WriteCString(m.DiffuseMap)
}

func (m *Material) readV3(r *stream.Reader) error {
	var err error
	if m.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if err = readVec3f(r, &m.Color); err != nil {
		return err
	}
	m.DiffuseMap, err = alternativa.ReadString(r)
	return err
}

func (m *Material) writeV3(w *stream.Writer) {
	alternativa.WriteString(w, m.Name)
	writeVec3f(w, m.Color)
	alternativa.WriteString(w, m.DiffuseMap)
}

// BufferType tags the per-vertex attribute a vertex buffer holds.
type BufferType uint32

const (
	BufferCoordinate BufferType = 1
	BufferUV1        BufferType = 2
	BufferNormal1    BufferType = 3
	BufferUV2        BufferType = 4
	BufferColor      BufferType = 5
	BufferNormal2    BufferType = 6
)

// Arity returns the number of floats stored per vertex, or 0 for an unknown
// buffer type.
func (t BufferType) Arity() int {
	switch t {
	case BufferCoordinate, BufferNormal1, BufferNormal2:
		return 3
	case BufferUV1, BufferUV2:
		return 2
	case BufferColor:
		return 4
	default:
		return 0
	}
}

// String returns a human-readable buffer type name.
func (t BufferType) String() string {
	switch t {
	case BufferCoordinate:
		return "Coordinate"
	case BufferUV1:
		return "UV1"
	case BufferNormal1:
		return "Normal1"
	case BufferUV2:
		return "UV2"
	case BufferColor:
		return "Color"
	case BufferNormal2:
		return "Normal2"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// VertexBuffer is one typed per-vertex attribute array. Data holds
// Arity() floats per vertex, flattened.
type VertexBuffer struct {
	Type BufferType
	Data []float32
}

func (vb *VertexBuffer) read(r *stream.Reader, vertexCount uint32) error {
	t, err := r.Uint32()
	if err != nil {
		return err
	}
	vb.Type = BufferType(t)
	arity := vb.Type.Arity()
	if arity == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownBufferType, t)
	}

	vb.Data = make([]float32, int(vertexCount)*arity)
	for i := range vb.Data {
		if vb.Data[i], err = r.Float32(); err != nil {
			return err
		}
	}
	return nil
}

func (vb *VertexBuffer) write(w *stream.Writer) error {
	if vb.Type.Arity() == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownBufferType, uint32(vb.Type))
	}
	w.WriteUint32(uint32(vb.Type))
	for _, f := range vb.Data {
		w.WriteFloat32(f)
	}
	return nil
}

// Submesh is a triangle-index run. Version 2 additionally carries one
// smoothing group per triangle and a material binding; version 3 carries
// neither and pads its index bytes to a 4-byte boundary.
type Submesh struct {
	Indices         []uint16
	SmoothingGroups []uint32 // v2 only, one per triangle
	MaterialID      uint16   // v2 only
}

func (s *Submesh) readV2(r *stream.Reader) error {
	faceCount, err := r.Uint32()
	if err != nil {
		return err
	}
	s.Indices = make([]uint16, faceCount*3)
	for i := range s.Indices {
		if s.Indices[i], err = r.Uint16(); err != nil {
			return err
		}
	}
	s.SmoothingGroups = make([]uint32, faceCount)
	for i := range s.SmoothingGroups {
		if s.SmoothingGroups[i], err = r.Uint32(); err != nil {
			return err
		}
	}
	s.MaterialID, err = r.Uint16()
	return err
}

func (s *Submesh) writeV2(w *stream.Writer) {
	w.WriteUint32(uint32(len(s.Indices) / 3))
	for _, idx := range s.Indices {
		w.WriteUint16(idx)
	}
	for _, g := range s.SmoothingGroups {
		w.WriteUint32(g)
	}
	w.WriteUint16(s.MaterialID)
}

func (s *Submesh) readV3(r *stream.Reader) error {
	indexCount, err := r.Uint32()
	if err != nil {
		return err
	}
	s.Indices = make([]uint16, indexCount)
	for i := range s.Indices {
		if s.Indices[i], err = r.Uint16(); err != nil {
			return err
		}
	}
	return r.Skip(stream.Padding(int(indexCount) * 2))
}

func (s *Submesh) writeV3(w *stream.Writer) {
	w.WriteUint32(uint32(len(s.Indices)))
	for _, idx := range s.Indices {
		w.WriteUint16(idx)
	}
	w.WritePadding(len(s.Indices) * 2)
}

// Mesh is a vertex pool with typed attribute buffers and indexed submeshes.
// Name and bounds exist in version 3 only.
type Mesh struct {
	Name    string
	BBoxMax [3]float32 // stored max-then-min; semantics unconfirmed
	BBoxMin [3]float32
	// BoundsReserved is an unidentified float following the bounds in v3
	// files, preserved positionally.
	BoundsReserved float32
	VertexCount    uint32
	VertexBuffers  []VertexBuffer
	Submeshes      []Submesh
}

func (m *Mesh) readV2(r *stream.Reader) error {
	return m.readBody(r, 2)
}

func (m *Mesh) readV3(r *stream.Reader) error {
	var err error
	if m.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if err = readVec3f(r, &m.BBoxMax); err != nil {
		return err
	}
	if err = readVec3f(r, &m.BBoxMin); err != nil {
		return err
	}
	if m.BoundsReserved, err = r.Float32(); err != nil {
		return err
	}
	return m.readBody(r, 3)
}

func (m *Mesh) readBody(r *stream.Reader, version int) error {
	var err error
	if m.VertexCount, err = r.Uint32(); err != nil {
		return err
	}
	bufferCount, err := r.Uint32()
	if err != nil {
		return err
	}
	m.VertexBuffers = make([]VertexBuffer, 0, bufferCount)
	for i := uint32(0); i < bufferCount; i++ {
		var vb VertexBuffer
		if err := vb.read(r, m.VertexCount); err != nil {
			return fmt.Errorf("vertex buffer %d: %w", i, err)
		}
		m.VertexBuffers = append(m.VertexBuffers, vb)
	}

	submeshCount, err := r.Uint32()
	if err != nil {
		return err
	}
	m.Submeshes = make([]Submesh, 0, submeshCount)
	for i := uint32(0); i < submeshCount; i++ {
		var sm Submesh
		if version == 2 {
			err = sm.readV2(r)
		} else {
			err = sm.readV3(r)
		}
		if err != nil {
			return fmt.Errorf("submesh %d: %w", i, err)
		}
		m.Submeshes = append(m.Submeshes, sm)
	}
	return nil
}

func (m *Mesh) writeV2(w *stream.Writer) error {
	return m.writeBody(w, 2)
}

func (m *Mesh) writeV3(w *stream.Writer) error {
	alternativa.WriteString(w, m.Name)
	writeVec3f(w, m.BBoxMax)
	writeVec3f(w, m.BBoxMin)
	w.WriteFloat32(m.BoundsReserved)
	return m.writeBody(w, 3)
}

func (m *Mesh) writeBody(w *stream.Writer, version int) error {
	w.WriteUint32(m.VertexCount)
	w.WriteUint32(uint32(len(m.VertexBuffers)))
	for i := range m.VertexBuffers {
		if err := m.VertexBuffers[i].write(w); err != nil {
			return err
		}
	}
	w.WriteUint32(uint32(len(m.Submeshes)))
	for i := range m.Submeshes {
		if version == 2 {
			m.Submeshes[i].writeV2(w)
		} else {
			m.Submeshes[i].writeV3(w)
		}
	}
	return nil
}

// Transform is a position/quaternion/scale triple. Name exists in version 3
// only.
type Transform struct {
	Name     string
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// Matrix composes the transform into a column-major matrix.
func (t *Transform) Matrix() math.Mat4 {
	return math.Compose(t.Position, t.Rotation, t.Scale)
}

func (t *Transform) readV2(r *stream.Reader) error {
	return t.readTRS(r)
}

func (t *Transform) readV3(r *stream.Reader) error {
	var err error
	if t.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	return t.readTRS(r)
}

func (t *Transform) readTRS(r *stream.Reader) error {
	var err error
	if err = readVec3(r, &t.Position); err != nil {
		return err
	}
	if t.Rotation.X, err = r.Float32(); err != nil {
		return err
	}
	if t.Rotation.Y, err = r.Float32(); err != nil {
		return err
	}
	if t.Rotation.Z, err = r.Float32(); err != nil {
		return err
	}
	if t.Rotation.W, err = r.Float32(); err != nil {
		return err
	}
	return readVec3(r, &t.Scale)
}

func (t *Transform) writeV2(w *stream.Writer) {
	t.writeTRS(w)
}

func (t *Transform) writeV3(w *stream.Writer) {
	alternativa.WriteString(w, t.Name)
	t.writeTRS(w)
}

func (t *Transform) writeTRS(w *stream.Writer) {
	writeVec3(w, t.Position)
	w.WriteFloat32(t.Rotation.X)
	w.WriteFloat32(t.Rotation.Y)
	w.WriteFloat32(t.Rotation.Z)
	w.WriteFloat32(t.Rotation.W)
	writeVec3(w, t.Scale)
}

// Object binds a mesh to a transform. Version 2 names the object and binds
// materials through its submeshes; version 3 drops the name and carries a
// signed material ID list where -1 means "no material".
type Object struct {
	Name        string
	MeshID      uint32
	TransformID uint32
	MaterialIDs []int32
}

func (o *Object) readV2(r *stream.Reader) error {
	var err error
	if o.Name, err = r.CString(); err != nil {
		return err
	}
	if o.MeshID, err = r.Uint32(); err != nil {
		return err
	}
	o.TransformID, err = r.Uint32()
	return err
}

func (o *Object) writeV2(w *stream.Writer) {
	w.WriteCString(o.Name)
	w.WriteUint32(o.MeshID)
	w.WriteUint32(o.TransformID)
}

func (o *Object) readV3(r *stream.Reader) error {
	var err error
	if o.MeshID, err = r.Uint32(); err != nil {
		return err
	}
	if o.TransformID, err = r.Uint32(); err != nil {
		return err
	}
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	o.MaterialIDs = make([]int32, count)
	for i := range o.MaterialIDs {
		if o.MaterialIDs[i], err = r.Int32(); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) writeV3(w *stream.Writer) {
	w.WriteUint32(o.MeshID)
	w.WriteUint32(o.TransformID)
	w.WriteUint32(uint32(len(o.MaterialIDs)))
	for _, id := range o.MaterialIDs {
		w.WriteInt32(id)
	}
}

func readVec3f(r *stream.Reader, out *[3]float32) error {
	for i := range out {
		v, err := r.Float32()
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

func writeVec3f(w *stream.Writer, v [3]float32) {
	for _, f := range v {
		w.WriteFloat32(f)
	}
}

func readVec3(r *stream.Reader, out *math.Vec3) error {
	var v [3]float32
	if err := readVec3f(r, &v); err != nil {
		return err
	}
	out.X, out.Y, out.Z = v[0], v[1], v[2]
	return nil
}

func writeVec3(w *stream.Writer, v math.Vec3) {
	writeVec3f(w, [3]float32{v.X, v.Y, v.Z})
}
