// Package battlemap decodes BattleMap files: one Alternativa Protocol packet
// holding atlases, batches, collision geometry, materials, spawn points and
// prop placements. All fixed-width scalars in the payload are big-endian.
package battlemap

import (
	"errors"
	"fmt"
	"os"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/alternativa"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/math"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// Lookup errors.
var (
	ErrMaterialNotFound  = errors.New("material not found")
	ErrRectNotFound      = errors.New("atlas rect not found")
	ErrParameterNotFound = errors.New("texture parameter not found")
)

// BattleMap is a fully decoded map. The top-level value owns every nested
// record; nothing is shared across decode calls.
type BattleMap struct {
	Atlases           []Atlas
	Batches           []Batch
	CollisionGeometry CollisionGeometry
	// CollisionGeometryOutsideGamingZone bounds the area beyond the
	// playable zone, same shape as CollisionGeometry.
	CollisionGeometryOutsideGamingZone CollisionGeometry
	Materials                          []Material
	SpawnPoints                        []SpawnPoint
	StaticGeometry                     []Prop
}

// MaterialByID returns the material with the given ID.
func (m *BattleMap) MaterialByID(id uint32) (*Material, error) {
	for i := range m.Materials {
		if m.Materials[i].ID == id {
			return &m.Materials[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrMaterialNotFound, id)
}

// Parse decodes one BattleMap from a byte slice. The packet is unwrapped
// and the shared optional mask decoded eagerly before any field is read;
// every nested record then consumes its presence bits from that single
// mask in schema order.
func Parse(data []byte) (*BattleMap, error) {
	packet, err := alternativa.UnwrapPacket(stream.NewReader(data))
	if err != nil {
		return nil, err
	}
	mask, err := alternativa.ReadOptionalMask(packet)
	if err != nil {
		return nil, err
	}

	m := &BattleMap{}

	hasAtlases, err := mask.Next()
	if err != nil {
		return nil, err
	}
	if hasAtlases {
		if m.Atlases, err = readAtlases(packet, mask); err != nil {
			return nil, fmt.Errorf("atlases: %w", err)
		}
	}

	hasBatches, err := mask.Next()
	if err != nil {
		return nil, err
	}
	if hasBatches {
		if m.Batches, err = readBatches(packet, mask); err != nil {
			return nil, fmt.Errorf("batches: %w", err)
		}
	}

	if err := m.CollisionGeometry.read(packet, mask); err != nil {
		return nil, fmt.Errorf("collision geometry: %w", err)
	}
	if err := m.CollisionGeometryOutsideGamingZone.read(packet, mask); err != nil {
		return nil, fmt.Errorf("outside collision geometry: %w", err)
	}

	if m.Materials, err = readMaterials(packet, mask); err != nil {
		return nil, fmt.Errorf("materials: %w", err)
	}

	hasSpawnPoints, err := mask.Next()
	if err != nil {
		return nil, err
	}
	if hasSpawnPoints {
		if m.SpawnPoints, err = readSpawnPoints(packet); err != nil {
			return nil, fmt.Errorf("spawn points: %w", err)
		}
	}

	if m.StaticGeometry, err = readProps(packet, mask); err != nil {
		return nil, fmt.Errorf("props: %w", err)
	}
	return m, nil
}

// ParseFile parses a BattleMap file from disk.
func ParseFile(path string) (*BattleMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}
	return Parse(data)
}

// Atlas is a named texture sheet subdivided into rects.
type Atlas struct {
	Height  int32
	Name    string
	Padding uint32
	Rects   []AtlasRect
	Width   uint32
}

// RectByName returns the atlas rect with the given name.
func (a *Atlas) RectByName(name string) (*AtlasRect, error) {
	for i := range a.Rects {
		if a.Rects[i].Name == name {
			return &a.Rects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrRectNotFound, name)
}

func (a *Atlas) read(r *stream.Reader, mask *alternativa.OptionalMask) error {
	var err error
	if a.Height, err = r.Int32BE(); err != nil {
		return err
	}
	if a.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if a.Padding, err = r.Uint32BE(); err != nil {
		return err
	}
	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return err
	}
	a.Rects = make([]AtlasRect, n)
	for i := range a.Rects {
		if err := a.Rects[i].read(r, mask); err != nil {
			return err
		}
	}
	a.Width, err = r.Uint32BE()
	return err
}

// AtlasRect is one named region inside an atlas.
type AtlasRect struct {
	Height      uint32
	LibraryName string
	Name        string
	Width       uint32
	X           uint32
	Y           uint32
}

func (ar *AtlasRect) read(r *stream.Reader, _ *alternativa.OptionalMask) error {
	var err error
	if ar.Height, err = r.Uint32BE(); err != nil {
		return err
	}
	if ar.LibraryName, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if ar.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if ar.Width, err = r.Uint32BE(); err != nil {
		return err
	}
	if ar.X, err = r.Uint32BE(); err != nil {
		return err
	}
	ar.Y, err = r.Uint32BE()
	return err
}

// Batch groups props that share a material.
type Batch struct {
	MaterialID uint32
	Name       string
	Position   math.Vec3
	PropIDs    string
}

func (b *Batch) read(r *stream.Reader) error {
	var err error
	if b.MaterialID, err = r.Uint32BE(); err != nil {
		return err
	}
	if b.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if b.Position, err = readVec3BE(r); err != nil {
		return err
	}
	b.PropIDs, err = alternativa.ReadString(r)
	return err
}

// CollisionGeometry holds the map's collision primitives.
type CollisionGeometry struct {
	Boxes     []CollisionBox
	Planes    []CollisionPlane
	Triangles []CollisionTriangle
}

func (cg *CollisionGeometry) read(r *stream.Reader, _ *alternativa.OptionalMask) error {
	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return err
	}
	cg.Boxes = make([]CollisionBox, n)
	for i := range cg.Boxes {
		if err := cg.Boxes[i].read(r); err != nil {
			return err
		}
	}

	if n, err = alternativa.ReadArrayLength(r); err != nil {
		return err
	}
	cg.Planes = make([]CollisionPlane, n)
	for i := range cg.Planes {
		if err := cg.Planes[i].read(r); err != nil {
			return err
		}
	}

	if n, err = alternativa.ReadArrayLength(r); err != nil {
		return err
	}
	cg.Triangles = make([]CollisionTriangle, n)
	for i := range cg.Triangles {
		if err := cg.Triangles[i].read(r); err != nil {
			return err
		}
	}
	return nil
}

// CollisionBox is an oriented box collider.
type CollisionBox struct {
	Position math.Vec3
	Rotation math.Vec3
	Size     math.Vec3
}

func (cb *CollisionBox) read(r *stream.Reader) error {
	var err error
	if cb.Position, err = readVec3BE(r); err != nil {
		return err
	}
	if cb.Rotation, err = readVec3BE(r); err != nil {
		return err
	}
	cb.Size, err = readVec3BE(r)
	return err
}

// CollisionPlane is a bounded plane collider. Length and Width are stored
// as float64 on the wire.
type CollisionPlane struct {
	Length   float64
	Position math.Vec3
	Rotation math.Vec3
	Width    float64
}

func (cp *CollisionPlane) read(r *stream.Reader) error {
	var err error
	if cp.Length, err = r.Float64BE(); err != nil {
		return err
	}
	if cp.Position, err = readVec3BE(r); err != nil {
		return err
	}
	if cp.Rotation, err = readVec3BE(r); err != nil {
		return err
	}
	cp.Width, err = r.Float64BE()
	return err
}

// CollisionTriangle is a triangle collider.
type CollisionTriangle struct {
	Length   float64
	Position math.Vec3
	Rotation math.Vec3
	V0       math.Vec3
	V1       math.Vec3
	V2       math.Vec3
}

func (ct *CollisionTriangle) read(r *stream.Reader) error {
	var err error
	if ct.Length, err = r.Float64BE(); err != nil {
		return err
	}
	if ct.Position, err = readVec3BE(r); err != nil {
		return err
	}
	if ct.Rotation, err = readVec3BE(r); err != nil {
		return err
	}
	if ct.V0, err = readVec3BE(r); err != nil {
		return err
	}
	if ct.V1, err = readVec3BE(r); err != nil {
		return err
	}
	ct.V2, err = readVec3BE(r)
	return err
}

func readAtlases(r *stream.Reader, mask *alternativa.OptionalMask) ([]Atlas, error) {
	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]Atlas, n)
	for i := range out {
		if err := out[i].read(r, mask); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readBatches(r *stream.Reader, _ *alternativa.OptionalMask) ([]Batch, error) {
	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]Batch, n)
	for i := range out {
		if err := out[i].read(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readSpawnPoints(r *stream.Reader) ([]SpawnPoint, error) {
	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]SpawnPoint, n)
	for i := range out {
		if err := out[i].read(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readProps(r *stream.Reader, mask *alternativa.OptionalMask) ([]Prop, error) {
	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]Prop, n)
	for i := range out {
		if err := out[i].read(r, mask); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readVec3BE(r *stream.Reader) (math.Vec3, error) {
	var v math.Vec3
	var err error
	if v.X, err = r.Float32BE(); err != nil {
		return v, err
	}
	if v.Y, err = r.Float32BE(); err != nil {
		return v, err
	}
	v.Z, err = r.Float32BE()
	return v, err
}
