package battlemap

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/alternativa"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/math"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// makeMask encodes a medium-form optional mask whose bits will be consumed
// in the given order (true = field present). This is the inverse of the
// decoder: pad to a byte boundary, reverse, pack most significant bit
// first with 0 meaning present.
func makeMask(consume []bool) []byte {
	padded := make([]bool, (len(consume)+7)/8*8)
	copy(padded, consume)
	for i, j := 0, len(padded)-1; i < j; i, j = i+1, j-1 {
		padded[i], padded[j] = padded[j], padded[i]
	}

	out := []byte{0x80 | byte(len(padded)/8)}
	for i := 0; i < len(padded); i += 8 {
		var b byte
		for bit := 0; bit < 8; bit++ {
			if !padded[i+bit] {
				b |= 1 << (7 - bit)
			}
		}
		out = append(out, b)
	}
	return out
}

// wrapPacket frames a payload as a short uncompressed packet.
func wrapPacket(payload []byte) []byte {
	out := []byte{byte(len(payload) >> 8), byte(len(payload))}
	return append(out, payload...)
}

func writeVec3BETest(w *stream.Writer, v math.Vec3) {
	w.WriteFloat32BE(v.X)
	w.WriteFloat32BE(v.Y)
	w.WriteFloat32BE(v.Z)
}

// makeMapPayload builds a map with one atlas, one batch, collision
// primitives, one fully-parameterized material, one spawn point and two
// props (one with all optionals, one with none).
func makeMapPayload(t *testing.T) []byte {
	t.Helper()
	w := stream.NewWriter()

	// Consumption order: atlases, batches, material scalars, texture
	// library, vec2, vec3, vec4, spawn points, prop0 group/rot/scale,
	// prop1 group/rot/scale.
	w.WriteBytes(makeMask([]bool{
		true, true,
		true, true, true, false, true,
		true,
		true, true, true,
		false, false, false,
	}))

	// Atlases.
	alternativa.WriteArrayLength(w, 1)
	w.WriteInt32BE(512) // atlas height
	alternativa.WriteString(w, "atlas0")
	w.WriteUint32BE(2) // padding
	alternativa.WriteArrayLength(w, 1)
	w.WriteUint32BE(64) // rect height
	alternativa.WriteString(w, "lib")
	alternativa.WriteString(w, "rect0")
	w.WriteUint32BE(64)   // rect width
	w.WriteUint32BE(0)    // x
	w.WriteUint32BE(32)   // y
	w.WriteUint32BE(1024) // atlas width

	// Batches.
	alternativa.WriteArrayLength(w, 1)
	w.WriteUint32BE(7)
	alternativa.WriteString(w, "batch0")
	writeVec3BETest(w, math.Vec3{X: 1, Y: 2, Z: 3})
	alternativa.WriteString(w, "1,2,3")

	// Collision geometry: one box, one plane, one triangle.
	alternativa.WriteArrayLength(w, 1)
	writeVec3BETest(w, math.Vec3{X: 10})
	writeVec3BETest(w, math.Vec3{})
	writeVec3BETest(w, math.Vec3{X: 2, Y: 2, Z: 2})
	alternativa.WriteArrayLength(w, 1)
	w.WriteFloat64BE(100)
	writeVec3BETest(w, math.Vec3{})
	writeVec3BETest(w, math.Vec3{})
	w.WriteFloat64BE(50)
	alternativa.WriteArrayLength(w, 1)
	w.WriteFloat64BE(1)
	writeVec3BETest(w, math.Vec3{})
	writeVec3BETest(w, math.Vec3{})
	writeVec3BETest(w, math.Vec3{X: 1})
	writeVec3BETest(w, math.Vec3{Y: 1})
	writeVec3BETest(w, math.Vec3{Z: 1})

	// Outside-zone collision geometry: all empty.
	alternativa.WriteArrayLength(w, 0)
	alternativa.WriteArrayLength(w, 0)
	alternativa.WriteArrayLength(w, 0)

	// Materials.
	alternativa.WriteArrayLength(w, 1)
	w.WriteUint32BE(7)
	alternativa.WriteString(w, "mat0")
	alternativa.WriteArrayLength(w, 1) // scalar parameters (present)
	alternativa.WriteString(w, "alpha")
	w.WriteFloat32BE(0.5)
	alternativa.WriteString(w, "StaticShader")
	alternativa.WriteArrayLength(w, 1)    // texture parameters
	alternativa.WriteString(w, "proplib") // library (present)
	alternativa.WriteString(w, "diffuse")
	alternativa.WriteString(w, "tex.webp")
	alternativa.WriteArrayLength(w, 1) // vector2 parameters (present)
	alternativa.WriteString(w, "uv")
	w.WriteFloat32BE(1)
	w.WriteFloat32BE(2)
	// vector3 parameters absent
	alternativa.WriteArrayLength(w, 1) // vector4 parameters (present)
	alternativa.WriteString(w, "tint")
	w.WriteFloat32BE(1)
	w.WriteFloat32BE(0)
	w.WriteFloat32BE(0)
	w.WriteFloat32BE(1)

	// Spawn points.
	alternativa.WriteArrayLength(w, 1)
	writeVec3BETest(w, math.Vec3{X: 5})
	writeVec3BETest(w, math.Vec3{})
	w.WriteUint32BE(uint32(SpawnTeamA))

	// Props.
	alternativa.WriteArrayLength(w, 2)
	alternativa.WriteString(w, "group0") // prop0 group (present)
	w.WriteUint32BE(1)
	alternativa.WriteString(w, "proplib")
	w.WriteUint32BE(7)
	alternativa.WriteString(w, "prop0")
	writeVec3BETest(w, math.Vec3{X: 1})
	writeVec3BETest(w, math.Vec3{Z: 3})             // rotation (present)
	writeVec3BETest(w, math.Vec3{X: 2, Y: 2, Z: 2}) // scale (present)
	// prop1: no group, no rotation, no scale.
	w.WriteUint32BE(2)
	alternativa.WriteString(w, "proplib")
	w.WriteUint32BE(7)
	alternativa.WriteString(w, "prop1")
	writeVec3BETest(w, math.Vec3{Y: 9})

	return w.Bytes()
}

func TestParse_FullMap(t *testing.T) {
	m, err := Parse(wrapPacket(makeMapPayload(t)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(m.Atlases) != 1 {
		t.Fatalf("atlases = %d, want 1", len(m.Atlases))
	}
	atlas := m.Atlases[0]
	if atlas.Name != "atlas0" || atlas.Height != 512 || atlas.Width != 1024 || atlas.Padding != 2 {
		t.Errorf("atlas = %+v", atlas)
	}
	rect, err := atlas.RectByName("rect0")
	if err != nil {
		t.Fatalf("RectByName failed: %v", err)
	}
	if rect.LibraryName != "lib" || rect.Width != 64 || rect.Y != 32 {
		t.Errorf("rect = %+v", rect)
	}
	if _, err := atlas.RectByName("nope"); !errors.Is(err, ErrRectNotFound) {
		t.Errorf("missing rect err = %v", err)
	}

	if len(m.Batches) != 1 || m.Batches[0].Name != "batch0" || m.Batches[0].PropIDs != "1,2,3" {
		t.Errorf("batches = %+v", m.Batches)
	}

	cg := m.CollisionGeometry
	if len(cg.Boxes) != 1 || len(cg.Planes) != 1 || len(cg.Triangles) != 1 {
		t.Fatalf("collision geometry = %+v", cg)
	}
	if cg.Boxes[0].Position != (math.Vec3{X: 10}) || cg.Boxes[0].Size != (math.Vec3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("box = %+v", cg.Boxes[0])
	}
	if cg.Planes[0].Length != 100 || cg.Planes[0].Width != 50 {
		t.Errorf("plane = %+v", cg.Planes[0])
	}
	if cg.Triangles[0].V2 != (math.Vec3{Z: 1}) {
		t.Errorf("triangle = %+v", cg.Triangles[0])
	}

	out := m.CollisionGeometryOutsideGamingZone
	if len(out.Boxes) != 0 || len(out.Planes) != 0 || len(out.Triangles) != 0 {
		t.Errorf("outside-zone geometry = %+v", out)
	}

	mat, err := m.MaterialByID(7)
	if err != nil {
		t.Fatalf("MaterialByID failed: %v", err)
	}
	if mat.Name != "mat0" || mat.Shader != "StaticShader" {
		t.Errorf("material = %+v", mat)
	}
	if mat.ShaderKind() != ShaderStatic {
		t.Errorf("ShaderKind = %v", mat.ShaderKind())
	}
	if len(mat.ScalarParameters) != 1 || mat.ScalarParameters[0].Name != "alpha" || mat.ScalarParameters[0].Value != 0.5 {
		t.Errorf("scalar parameters = %+v", mat.ScalarParameters)
	}
	tp, err := mat.TextureParameterByName("diffuse")
	if err != nil {
		t.Fatalf("TextureParameterByName failed: %v", err)
	}
	if !tp.HasLibrary || tp.LibraryName != "proplib" || tp.TextureName != "tex.webp" {
		t.Errorf("texture parameter = %+v", tp)
	}
	if len(mat.Vector2Parameters) != 1 || mat.Vector2Parameters[0].Value != [2]float32{1, 2} {
		t.Errorf("vector2 parameters = %+v", mat.Vector2Parameters)
	}
	if mat.Vector3Parameters != nil {
		t.Errorf("vector3 parameters = %+v, want absent", mat.Vector3Parameters)
	}
	if len(mat.Vector4Parameters) != 1 || mat.Vector4Parameters[0].Name != "tint" {
		t.Errorf("vector4 parameters = %+v", mat.Vector4Parameters)
	}
	if _, err := m.MaterialByID(999); !errors.Is(err, ErrMaterialNotFound) {
		t.Errorf("missing material err = %v", err)
	}

	if len(m.SpawnPoints) != 1 || m.SpawnPoints[0].Type != SpawnTeamA {
		t.Errorf("spawn points = %+v", m.SpawnPoints)
	}

	if len(m.StaticGeometry) != 2 {
		t.Fatalf("props = %d, want 2", len(m.StaticGeometry))
	}
	p0, p1 := m.StaticGeometry[0], m.StaticGeometry[1]
	if !p0.HasGroup || p0.GroupName != "group0" || p0.Rotation != (math.Vec3{Z: 3}) || p0.Scale != (math.Vec3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("prop0 = %+v", p0)
	}
	if p1.HasGroup || p1.Rotation != (math.Vec3{}) || p1.Scale != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("prop1 = %+v", p1)
	}
	if p1.Position != (math.Vec3{Y: 9}) {
		t.Errorf("prop1 position = %v", p1.Position)
	}
}

func TestParse_CompressedPacket(t *testing.T) {
	payload := makeMapPayload(t)

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write(payload)
	zw.Close()
	compressed := zbuf.Bytes()

	framed := []byte{0x40 | byte(len(compressed)>>8), byte(len(compressed))}
	framed = append(framed, compressed...)

	m, err := Parse(framed)
	if err != nil {
		t.Fatalf("Parse of compressed map failed: %v", err)
	}
	if len(m.StaticGeometry) != 2 || m.StaticGeometry[1].Name != "prop1" {
		t.Errorf("compressed decode mismatch: %+v", m.StaticGeometry)
	}
}

func TestParse_MinimalMap(t *testing.T) {
	// Everything optional absent, all mandatory arrays empty.
	w := stream.NewWriter()
	w.WriteBytes(makeMask([]bool{false, false, false}))
	for i := 0; i < 6; i++ { // two collision geometries, three arrays each
		alternativa.WriteArrayLength(w, 0)
	}
	alternativa.WriteArrayLength(w, 0) // materials
	alternativa.WriteArrayLength(w, 0) // props

	m, err := Parse(wrapPacket(w.Bytes()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Atlases != nil || m.Batches != nil || m.SpawnPoints != nil {
		t.Errorf("optional collections decoded: %+v", m)
	}
	if len(m.Materials) != 0 || len(m.StaticGeometry) != 0 {
		t.Errorf("mandatory arrays = %+v", m)
	}
}

func TestParse_UnknownShaderTolerated(t *testing.T) {
	// One material with an unrecognized shader and no parameters. Mask
	// consumption: atlases, batches, then the material's bits, then
	// spawn points.
	w := stream.NewWriter()
	w.WriteBytes(makeMask([]bool{false, false, true, false, false, false, false}))
	for i := 0; i < 6; i++ {
		alternativa.WriteArrayLength(w, 0)
	}
	alternativa.WriteArrayLength(w, 1)
	w.WriteUint32BE(1)
	alternativa.WriteString(w, "mystery")
	alternativa.WriteArrayLength(w, 0) // scalar parameters (present, empty)
	alternativa.WriteString(w, "FancyNewShader")
	alternativa.WriteArrayLength(w, 0) // texture parameters
	// vec2/3/4 absent, spawn points absent
	alternativa.WriteArrayLength(w, 0) // props

	m, err := Parse(wrapPacket(w.Bytes()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Materials[0].Shader != "FancyNewShader" {
		t.Errorf("shader = %q", m.Materials[0].Shader)
	}
	if m.Materials[0].ShaderKind() != ShaderGeneric {
		t.Errorf("ShaderKind = %v, want Generic", m.Materials[0].ShaderKind())
	}
}

func TestParse_TruncatedPayload(t *testing.T) {
	data := wrapPacket(makeMapPayload(t))
	if _, err := Parse(data[:len(data)/3]); !errors.Is(err, stream.ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestParse_MaskExhaustion(t *testing.T) {
	// An inline 5-bit mask cannot cover a material's presence bits; the
	// decoder must fail rather than guess.
	w := stream.NewWriter()
	w.WriteBytes([]byte{0x1f}) // inline form, 5 bits, all absent
	for i := 0; i < 6; i++ {
		alternativa.WriteArrayLength(w, 0)
	}
	alternativa.WriteArrayLength(w, 1) // one material
	w.WriteUint32BE(1)
	alternativa.WriteString(w, "m")
	alternativa.WriteString(w, "StaticShader")
	alternativa.WriteArrayLength(w, 0) // texture parameters

	_, err := Parse(wrapPacket(w.Bytes()))
	if !errors.Is(err, alternativa.ErrMaskExhausted) {
		t.Errorf("err = %v, want ErrMaskExhausted", err)
	}
}

func TestSpawnPointType_String(t *testing.T) {
	tests := []struct {
		t    SpawnPointType
		want string
	}{
		{SpawnDeathmatch, "Deathmatch"},
		{SpawnRugbyTeamB, "RugbyTeamB"},
		{SpawnTeamB, "TeamB"},
		{SpawnPointType(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", uint32(tt.t), got, tt.want)
		}
	}
}
