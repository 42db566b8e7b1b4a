package lightmap

import (
	"errors"
	"testing"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/alternativa"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// makeLightmapData builds a version 2 file with two lightmaps and three map
// objects: one with UVs, one lightmapped without UVs and one unlit.
func makeLightmapData(t *testing.T) []byte {
	t.Helper()
	w := stream.NewWriter()

	w.WriteUint32(2)          // version
	w.WriteUint32(0xffaa8040) // light colour
	w.WriteUint32(0xff102030) // ambient light colour
	w.WriteFloat32(0.5)       // light angle x
	w.WriteFloat32(1.5)       // light angle z

	w.WriteUint32(2)
	alternativa.WriteString(w, "lightmap0.webp")
	alternativa.WriteString(w, "lightmap1.webp")

	w.WriteUint32(3)

	// Object 0: lightmapped with 4 vertices of UVs.
	w.WriteInt32(10)
	w.WriteInt32(1)
	w.WriteFloat32(1)
	w.WriteFloat32(1)
	w.WriteFloat32(0.25)
	w.WriteFloat32(0.75)
	w.WriteInt8(1)
	w.WriteUint32(4)
	for i := 0; i < 2; i++ {
		w.WriteFloat32(float32(i)) // UV1
		w.WriteFloat32(0.1)
		w.WriteFloat32(float32(i)) // UV2
		w.WriteFloat32(0.9)
	}
	w.WriteInt8(1)
	w.WriteInt8(0)

	// Object 1: lightmapped, no UVs.
	w.WriteInt32(11)
	w.WriteInt32(0)
	w.WriteFloat32(2)
	w.WriteFloat32(2)
	w.WriteFloat32(0)
	w.WriteFloat32(0)
	w.WriteInt8(0)
	w.WriteInt8(0)
	w.WriteInt8(1)

	// Object 2: no lightmap, scale offset and UVs absent.
	w.WriteInt32(12)
	w.WriteInt32(-1)
	w.WriteInt8(1)
	w.WriteInt8(1)

	return w.Bytes()
}

func TestParse(t *testing.T) {
	d, err := Parse(makeLightmapData(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if d.Version != 2 {
		t.Errorf("Version = %d, want 2", d.Version)
	}
	if d.LightColor != 0xffaa8040 || d.AmbientLightColor != 0xff102030 {
		t.Errorf("colours = %#x, %#x", uint32(d.LightColor), uint32(d.AmbientLightColor))
	}
	if d.LightAngle != [2]float32{0.5, 1.5} {
		t.Errorf("LightAngle = %v", d.LightAngle)
	}
	if len(d.Lightmaps) != 2 || d.Lightmaps[1] != "lightmap1.webp" {
		t.Errorf("Lightmaps = %v", d.Lightmaps)
	}
	if len(d.MapObjects) != 3 {
		t.Fatalf("MapObjects = %d, want 3", len(d.MapObjects))
	}

	o0 := d.MapObjects[0]
	if o0.Index != 10 || o0.LightmapIndex != 1 {
		t.Errorf("object 0 = %+v", o0)
	}
	if o0.ScaleOffset != [4]float32{1, 1, 0.25, 0.75} {
		t.Errorf("object 0 ScaleOffset = %v", o0.ScaleOffset)
	}
	if len(o0.UV1) != 2 || len(o0.UV2) != 2 {
		t.Fatalf("object 0 UV counts = %d, %d", len(o0.UV1), len(o0.UV2))
	}
	if o0.UV1[1] != [2]float32{1, 0.1} || o0.UV2[0] != [2]float32{0, 0.9} {
		t.Errorf("object 0 UVs = %v, %v", o0.UV1, o0.UV2)
	}
	if !o0.CastShadows || o0.ReceiveShadows {
		t.Errorf("object 0 shadows = %v, %v", o0.CastShadows, o0.ReceiveShadows)
	}

	o1 := d.MapObjects[1]
	if o1.LightmapIndex != 0 || o1.UV1 != nil || o1.UV2 != nil {
		t.Errorf("object 1 = %+v", o1)
	}
	if o1.CastShadows || !o1.ReceiveShadows {
		t.Errorf("object 1 shadows = %v, %v", o1.CastShadows, o1.ReceiveShadows)
	}

	o2 := d.MapObjects[2]
	if o2.LightmapIndex != -1 || o2.ScaleOffset != ([4]float32{}) {
		t.Errorf("object 2 = %+v", o2)
	}
	if !o2.CastShadows || !o2.ReceiveShadows {
		t.Errorf("object 2 shadows = %v, %v", o2.CastShadows, o2.ReceiveShadows)
	}
}

func TestParse_TrailingBytesIgnored(t *testing.T) {
	data := append(makeLightmapData(t), 0xde, 0xad, 0xbe, 0xef)
	if _, err := Parse(data); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
}

func TestParse_UnsupportedVersions(t *testing.T) {
	for _, version := range []uint32{0, 1, 3, 99} {
		w := stream.NewWriter()
		w.WriteUint32(version)
		_, err := Parse(w.Bytes())
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("version %d: err = %v, want ErrUnsupportedVersion", version, err)
		}
	}
}

func TestParse_Truncated(t *testing.T) {
	data := makeLightmapData(t)
	// Cut inside object 0's UV list.
	if _, err := Parse(data[:len(data)-40]); !errors.Is(err, stream.ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestARGB_RGBA(t *testing.T) {
	r, g, b, a := ARGB(0x80ff0033).RGBA()
	if r != 1 || g != 0 || b != float32(0x33)/255 || a != float32(0x80)/255 {
		t.Errorf("RGBA = %v, %v, %v, %v", r, g, b, a)
	}
}
