// Package a3d implements the versioned A3D model container format.
//
// An A3D file is a 4-byte signature, a version header and a root block
// wrapping material, mesh, transform and object sub-blocks. Version 2 and 3
// differ in record layouts and in that version 3 declares authoritative
// block lengths and pads every block to a 4-byte boundary; version 1 exists
// in the wild but is not supported.
package a3d

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// A3D format errors.
var (
	ErrInvalidSignature   = errors.New("invalid A3D signature")
	ErrUnsupportedVersion = errors.New("unsupported A3D version")
	ErrUnknownBufferType  = errors.New("unknown vertex buffer type")
	ErrInvalidReference   = errors.New("invalid object reference")
)

var fileSignature = []byte("A3D\x00")

// Block signatures.
const (
	blockRoot      = 1
	blockMesh      = 2
	blockTransform = 3
	blockMaterial  = 4
	blockObject    = 5
)

// Model is a decoded A3D file.
type Model struct {
	Version    uint16
	Materials  []Material
	Meshes     []Mesh
	Transforms []Transform
	// TransformParentIDs parallels Transforms. Version 2 stores 0 for "no
	// parent" and otherwise a 1-based index; version 3 stores -1 for "no
	// parent" and a 0-based index. Use ParentIndex to resolve either.
	TransformParentIDs []int32
	Objects            []Object
}

// ParentIndex resolves the parent of transform i to a 0-based index,
// honoring the per-version sentinel convention. ok is false for a root
// transform.
func (m *Model) ParentIndex(i int) (parent int, ok bool) {
	id := m.TransformParentIDs[i]
	if m.Version == 2 {
		if id == 0 {
			return 0, false
		}
		return int(id) - 1, true
	}
	if id == -1 {
		return 0, false
	}
	return int(id), true
}

// TotalVertexCount returns the number of vertices across all meshes.
func (m *Model) TotalVertexCount() int {
	total := 0
	for i := range m.Meshes {
		total += int(m.Meshes[i].VertexCount)
	}
	return total
}

// TotalTriangleCount returns the number of triangles across all submeshes.
func (m *Model) TotalTriangleCount() int {
	total := 0
	for i := range m.Meshes {
		for j := range m.Meshes[i].Submeshes {
			total += len(m.Meshes[i].Submeshes[j].Indices) / 3
		}
	}
	return total
}

// Parse decodes an A3D file from a byte slice.
func Parse(data []byte) (*Model, error) {
	r := stream.NewReader(data)

	sig, err := r.Bytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, fileSignature) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, sig)
	}

	version, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(2); err != nil { // reserved
		return nil, err
	}

	c, err := newBlockCodec(version)
	if err != nil {
		return nil, err
	}

	m := &Model{Version: version}
	if err := c.readRoot(r, m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseFile parses an A3D file from disk.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading A3D file: %w", err)
	}
	return Parse(data)
}

// Encode writes the model as an A3D file of the given version.
func Encode(m *Model, version uint16) ([]byte, error) {
	c, err := newBlockCodec(version)
	if err != nil {
		return nil, err
	}

	w := stream.NewWriter()
	w.WriteBytes(fileSignature)
	w.WriteUint16(version)
	w.WriteUint16(0) // reserved

	if err := c.writeRoot(w, m); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// validate checks that every mesh/transform/material reference indexes an
// existing array element.
func (m *Model) validate() error {
	for i := range m.Objects {
		o := &m.Objects[i]
		if int(o.MeshID) >= len(m.Meshes) {
			return fmt.Errorf("%w: object %d references mesh %d of %d", ErrInvalidReference, i, o.MeshID, len(m.Meshes))
		}
		if int(o.TransformID) >= len(m.Transforms) {
			return fmt.Errorf("%w: object %d references transform %d of %d", ErrInvalidReference, i, o.TransformID, len(m.Transforms))
		}
		for _, id := range o.MaterialIDs {
			if id < -1 || int(id) >= len(m.Materials) {
				return fmt.Errorf("%w: object %d references material %d of %d", ErrInvalidReference, i, id, len(m.Materials))
			}
		}
	}
	if m.Version == 2 {
		for i := range m.Meshes {
			for _, sm := range m.Meshes[i].Submeshes {
				if int(sm.MaterialID) >= len(m.Materials) {
					return fmt.Errorf("%w: mesh %d submesh references material %d of %d", ErrInvalidReference, i, sm.MaterialID, len(m.Materials))
				}
			}
		}
	}
	return nil
}

// blockCodec is the per-version decode/encode strategy. Unsupported
// versions are rejected at construction.
type blockCodec interface {
	readRoot(r *stream.Reader, m *Model) error
	writeRoot(w *stream.Writer, m *Model) error
}

func newBlockCodec(version uint16) (blockCodec, error) {
	switch version {
	case 2:
		return codecV2{}, nil
	case 3:
		return codecV3{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// readBlockHeader reads a signature+length+count sub-block header. The
// declared length covers the count field and the records.
func readBlockHeader(r *stream.Reader, want uint32) (length, count uint32, err error) {
	sig, err := r.Uint32()
	if err != nil {
		return 0, 0, err
	}
	if sig != want {
		return 0, 0, fmt.Errorf("%w: block signature %d, expected %d", ErrInvalidSignature, sig, want)
	}
	if length, err = r.Uint32(); err != nil {
		return 0, 0, err
	}
	if count, err = r.Uint32(); err != nil {
		return 0, 0, err
	}
	return length, count, nil
}

// writeBlock emits a sig+length header followed by the buffered payload.
// Version 3 blocks are additionally zero-padded to a 4-byte boundary.
func writeBlock(w *stream.Writer, sig uint32, payload *stream.Writer, pad bool) {
	w.WriteUint32(sig)
	w.WriteUint32(uint32(payload.Len()))
	w.WriteBytes(payload.Bytes())
	if pad {
		w.WritePadding(payload.Len())
	}
}

// codecV2 reads and writes version 2 blocks: no padding, lengths present
// but not authoritative.
type codecV2 struct{}

func (codecV2) readRoot(r *stream.Reader, m *Model) error {
	sig, err := r.Uint32()
	if err != nil {
		return err
	}
	if sig != blockRoot {
		return fmt.Errorf("%w: root block signature %d", ErrInvalidSignature, sig)
	}
	if err := r.Skip(4); err != nil { // declared length, unverified in v2
		return err
	}

	if err := readMaterialBlock(r, m, 2); err != nil {
		return err
	}
	if err := readMeshBlock(r, m, 2); err != nil {
		return err
	}
	if err := readTransformBlock(r, m, 2); err != nil {
		return err
	}
	return readObjectBlock(r, m, 2)
}

func (codecV2) writeRoot(w *stream.Writer, m *Model) error {
	root := stream.NewWriter()
	writeMaterialBlock(root, m, 2)
	if err := writeMeshBlock(root, m, 2); err != nil {
		return err
	}
	writeTransformBlock(root, m, 2)
	writeObjectBlock(root, m, 2)

	w.WriteUint32(blockRoot)
	w.WriteUint32(uint32(root.Len()))
	w.WriteBytes(root.Bytes())
	return nil
}

// codecV3 reads and writes version 3 blocks: declared lengths are
// authoritative and every block is padded to a 4-byte boundary.
type codecV3 struct{}

func (codecV3) readRoot(r *stream.Reader, m *Model) error {
	sig, err := r.Uint32()
	if err != nil {
		return err
	}
	if sig != blockRoot {
		return fmt.Errorf("%w: root block signature %d", ErrInvalidSignature, sig)
	}
	length, err := r.Uint32()
	if err != nil {
		return err
	}

	if err := readMaterialBlock(r, m, 3); err != nil {
		return err
	}
	if err := readMeshBlock(r, m, 3); err != nil {
		return err
	}
	if err := readTransformBlock(r, m, 3); err != nil {
		return err
	}
	if err := readObjectBlock(r, m, 3); err != nil {
		return err
	}
	return r.Skip(stream.Padding(int(length)))
}

func (codecV3) writeRoot(w *stream.Writer, m *Model) error {
	root := stream.NewWriter()
	writeMaterialBlock(root, m, 3)
	if err := writeMeshBlock(root, m, 3); err != nil {
		return err
	}
	writeTransformBlock(root, m, 3)
	writeObjectBlock(root, m, 3)

	// Sub-block padding keeps the root payload 4-aligned already, so the
	// root block itself carries no trailing padding.
	w.WriteUint32(blockRoot)
	w.WriteUint32(uint32(root.Len()))
	w.WriteBytes(root.Bytes())
	return nil
}

func readMaterialBlock(r *stream.Reader, m *Model, version int) error {
	length, count, err := readBlockHeader(r, blockMaterial)
	if err != nil {
		return err
	}
	m.Materials = make([]Material, 0, count)
	for i := uint32(0); i < count; i++ {
		var mat Material
		if version == 2 {
			err = mat.readV2(r)
		} else {
			err = mat.readV3(r)
		}
		if err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
		m.Materials = append(m.Materials, mat)
	}
	if version == 3 {
		return r.Skip(stream.Padding(int(length)))
	}
	return nil
}

func writeMaterialBlock(w *stream.Writer, m *Model, version int) {
	payload := stream.NewWriter()
	payload.WriteUint32(uint32(len(m.Materials)))
	for i := range m.Materials {
		if version == 2 {
			m.Materials[i].writeV2(payload)
		} else {
			m.Materials[i].writeV3(payload)
		}
	}
	writeBlock(w, blockMaterial, payload, version == 3)
}

func readMeshBlock(r *stream.Reader, m *Model, version int) error {
	length, count, err := readBlockHeader(r, blockMesh)
	if err != nil {
		return err
	}
	m.Meshes = make([]Mesh, 0, count)
	for i := uint32(0); i < count; i++ {
		var mesh Mesh
		if version == 2 {
			err = mesh.readV2(r)
		} else {
			err = mesh.readV3(r)
		}
		if err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
		m.Meshes = append(m.Meshes, mesh)
	}
	if version == 3 {
		return r.Skip(stream.Padding(int(length)))
	}
	return nil
}

func writeMeshBlock(w *stream.Writer, m *Model, version int) error {
	payload := stream.NewWriter()
	payload.WriteUint32(uint32(len(m.Meshes)))
	for i := range m.Meshes {
		var err error
		if version == 2 {
			err = m.Meshes[i].writeV2(payload)
		} else {
			err = m.Meshes[i].writeV3(payload)
		}
		if err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	writeBlock(w, blockMesh, payload, version == 3)
	return nil
}

func readTransformBlock(r *stream.Reader, m *Model, version int) error {
	length, count, err := readBlockHeader(r, blockTransform)
	if err != nil {
		return err
	}
	m.Transforms = make([]Transform, 0, count)
	for i := uint32(0); i < count; i++ {
		var tr Transform
		if version == 2 {
			err = tr.readV2(r)
		} else {
			err = tr.readV3(r)
		}
		if err != nil {
			return fmt.Errorf("transform %d: %w", i, err)
		}
		m.Transforms = append(m.Transforms, tr)
	}
	// Parent IDs trail the transform records as a parallel array.
	m.TransformParentIDs = make([]int32, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := r.Int32()
		if err != nil {
			return err
		}
		m.TransformParentIDs = append(m.TransformParentIDs, id)
	}
	if version == 3 {
		return r.Skip(stream.Padding(int(length)))
	}
	return nil
}

func writeTransformBlock(w *stream.Writer, m *Model, version int) {
	payload := stream.NewWriter()
	payload.WriteUint32(uint32(len(m.Transforms)))
	for i := range m.Transforms {
		if version == 2 {
			m.Transforms[i].writeV2(payload)
		} else {
			m.Transforms[i].writeV3(payload)
		}
	}
	for _, id := range m.TransformParentIDs {
		payload.WriteInt32(id)
	}
	writeBlock(w, blockTransform, payload, version == 3)
}

func readObjectBlock(r *stream.Reader, m *Model, version int) error {
	length, count, err := readBlockHeader(r, blockObject)
	if err != nil {
		return err
	}
	m.Objects = make([]Object, 0, count)
	for i := uint32(0); i < count; i++ {
		var o Object
		if version == 2 {
			err = o.readV2(r)
		} else {
			err = o.readV3(r)
		}
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		m.Objects = append(m.Objects, o)
	}
	if version == 3 {
		return r.Skip(stream.Padding(int(length)))
	}
	return nil
}

func writeObjectBlock(w *stream.Writer, m *Model, version int) {
	payload := stream.NewWriter()
	payload.WriteUint32(uint32(len(m.Objects)))
	for i := range m.Objects {
		if version == 2 {
			m.Objects[i].writeV2(payload)
		} else {
			m.Objects[i].writeV3(payload)
		}
	}
	writeBlock(w, blockObject, payload, version == 3)
}
