// Package lightmap decodes LightmapData files: baked lighting metadata for a
// map, pairing lightmap image names with per-object UV sets and shadow flags.
// The file has no signature; all scalars are little-endian and only version 2
// is supported.
package lightmap

import (
	"errors"
	"fmt"
	"os"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/alternativa"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// ErrUnsupportedVersion is returned for version 1 files and anything newer
// than version 2.
var ErrUnsupportedVersion = errors.New("unsupported lightmap data version")

// ARGB is a packed 8-bit-per-channel color, alpha in the top byte.
type ARGB uint32

// RGBA returns the color channels as floats in [0, 1].
func (c ARGB) RGBA() (r, g, b, a float32) {
	r = float32(c>>16&0xff) / 255
	g = float32(c>>8&0xff) / 255
	b = float32(c&0xff) / 255
	a = float32(c>>24&0xff) / 255
	return
}

// LightmapData is a fully decoded lightmap file.
type LightmapData struct {
	Version           uint32
	LightColor        ARGB
	AmbientLightColor ARGB
	// LightAngle is the directional light's (x, z) angle pair.
	LightAngle [2]float32
	// Lightmaps holds image names; MapObject.LightmapIndex indexes this
	// slice.
	Lightmaps  []string
	MapObjects []MapObject
}

// MapObject links one map object to its lightmap. LightmapIndex is -1 when
// the object has no lightmap, in which case ScaleOffset and the UV sets are
// absent from the file.
type MapObject struct {
	Index          int32
	LightmapIndex  int32
	ScaleOffset    [4]float32
	UV1            [][2]float32
	UV2            [][2]float32
	CastShadows    bool
	ReceiveShadows bool
}

// Parse decodes one LightmapData file from a byte slice. Trailing bytes
// after the map object list are ignored.
func Parse(data []byte) (*LightmapData, error) {
	r := stream.NewReader(data)

	version, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	d := &LightmapData{Version: version}

	lightColor, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	ambientColor, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	d.LightColor = ARGB(lightColor)
	d.AmbientLightColor = ARGB(ambientColor)
	for i := range d.LightAngle {
		if d.LightAngle[i], err = r.Float32(); err != nil {
			return nil, err
		}
	}

	lightmapCount, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	d.Lightmaps = make([]string, lightmapCount)
	for i := range d.Lightmaps {
		if d.Lightmaps[i], err = alternativa.ReadString(r); err != nil {
			return nil, fmt.Errorf("lightmap %d: %w", i, err)
		}
	}

	objectCount, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	d.MapObjects = make([]MapObject, objectCount)
	for i := range d.MapObjects {
		if err := d.MapObjects[i].read(r); err != nil {
			return nil, fmt.Errorf("map object %d: %w", i, err)
		}
	}
	return d, nil
}

// ParseFile parses a LightmapData file from disk.
func ParseFile(path string) (*LightmapData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lightmap file: %w", err)
	}
	return Parse(data)
}

func (o *MapObject) read(r *stream.Reader) error {
	var err error
	if o.Index, err = r.Int32(); err != nil {
		return err
	}
	if o.LightmapIndex, err = r.Int32(); err != nil {
		return err
	}

	if o.LightmapIndex >= 0 {
		for i := range o.ScaleOffset {
			if o.ScaleOffset[i], err = r.Float32(); err != nil {
				return err
			}
		}

		hasUVs, err := r.Int8()
		if err != nil {
			return err
		}
		if hasUVs > 0 {
			vertexCount, err := r.Uint32()
			if err != nil {
				return err
			}
			// UV1 and UV2 pairs are interleaved, one of each per
			// two vertices.
			n := int(vertexCount / 2)
			o.UV1 = make([][2]float32, n)
			o.UV2 = make([][2]float32, n)
			for i := 0; i < n; i++ {
				if o.UV1[i], err = readUV(r); err != nil {
					return err
				}
				if o.UV2[i], err = readUV(r); err != nil {
					return err
				}
			}
		}
	}

	castShadows, err := r.Int8()
	if err != nil {
		return err
	}
	receiveShadows, err := r.Int8()
	if err != nil {
		return err
	}
	o.CastShadows = castShadows > 0
	o.ReceiveShadows = receiveShadows > 0
	return nil
}

func readUV(r *stream.Reader) ([2]float32, error) {
	var uv [2]float32
	var err error
	if uv[0], err = r.Float32(); err != nil {
		return uv, err
	}
	uv[1], err = r.Float32()
	return uv, err
}
