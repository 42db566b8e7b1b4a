package battlemap

import (
	"fmt"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/alternativa"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/math"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// ShaderKind classifies a material's shader name. Unknown names are
// tolerated, not an error: the material still decodes, hosts just skip the
// shader-specific decoration.
type ShaderKind int

const (
	ShaderGeneric ShaderKind = iota
	ShaderStatic
	ShaderTerrain
	ShaderBatch
	ShaderSprite
)

// String returns a human-readable shader kind name.
func (k ShaderKind) String() string {
	switch k {
	case ShaderStatic:
		return "Static"
	case ShaderTerrain:
		return "Terrain"
	case ShaderBatch:
		return "Batch"
	case ShaderSprite:
		return "Sprite"
	default:
		return "Generic"
	}
}

var shaderKinds = map[string]ShaderKind{
	"StaticShader":  ShaderStatic,
	"TerrainShader": ShaderTerrain,
	"BatchShader":   ShaderBatch,
	"SpriteShader":  ShaderSprite,
}

// Material is a shader binding with named parameter sets. The scalar and
// vector parameter arrays are optional per the shared mask; the texture
// parameter array is always present.
type Material struct {
	ID                uint32
	Name              string
	Shader            string
	ScalarParameters  []ScalarParameter
	TextureParameters []TextureParameter
	Vector2Parameters []Vector2Parameter
	Vector3Parameters []Vector3Parameter
	Vector4Parameters []Vector4Parameter
}

// ShaderKind classifies the material's shader name.
func (m *Material) ShaderKind() ShaderKind {
	return shaderKinds[m.Shader]
}

// TextureParameterByName returns the texture parameter with the given name.
func (m *Material) TextureParameterByName(name string) (*TextureParameter, error) {
	for i := range m.TextureParameters {
		if m.TextureParameters[i].Name == name {
			return &m.TextureParameters[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrParameterNotFound, name)
}

func readMaterials(r *stream.Reader, mask *alternativa.OptionalMask) ([]Material, error) {
	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]Material, n)
	for i := range out {
		if err := out[i].read(r, mask); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *Material) read(r *stream.Reader, mask *alternativa.OptionalMask) error {
	var err error
	if m.ID, err = r.Uint32BE(); err != nil {
		return err
	}
	if m.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}

	hasScalars, err := mask.Next()
	if err != nil {
		return err
	}
	if hasScalars {
		n, err := alternativa.ReadArrayLength(r)
		if err != nil {
			return err
		}
		m.ScalarParameters = make([]ScalarParameter, n)
		for i := range m.ScalarParameters {
			if err := m.ScalarParameters[i].read(r); err != nil {
				return err
			}
		}
	}

	if m.Shader, err = alternativa.ReadString(r); err != nil {
		return err
	}

	n, err := alternativa.ReadArrayLength(r)
	if err != nil {
		return err
	}
	m.TextureParameters = make([]TextureParameter, n)
	for i := range m.TextureParameters {
		if err := m.TextureParameters[i].read(r, mask); err != nil {
			return err
		}
	}

	hasVec2, err := mask.Next()
	if err != nil {
		return err
	}
	if hasVec2 {
		if n, err = alternativa.ReadArrayLength(r); err != nil {
			return err
		}
		m.Vector2Parameters = make([]Vector2Parameter, n)
		for i := range m.Vector2Parameters {
			if err := m.Vector2Parameters[i].read(r); err != nil {
				return err
			}
		}
	}

	hasVec3, err := mask.Next()
	if err != nil {
		return err
	}
	if hasVec3 {
		if n, err = alternativa.ReadArrayLength(r); err != nil {
			return err
		}
		m.Vector3Parameters = make([]Vector3Parameter, n)
		for i := range m.Vector3Parameters {
			if err := m.Vector3Parameters[i].read(r); err != nil {
				return err
			}
		}
	}

	hasVec4, err := mask.Next()
	if err != nil {
		return err
	}
	if hasVec4 {
		if n, err = alternativa.ReadArrayLength(r); err != nil {
			return err
		}
		m.Vector4Parameters = make([]Vector4Parameter, n)
		for i := range m.Vector4Parameters {
			if err := m.Vector4Parameters[i].read(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScalarParameter is a named float uniform.
type ScalarParameter struct {
	Name  string
	Value float32
}

func (p *ScalarParameter) read(r *stream.Reader) error {
	var err error
	if p.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	p.Value, err = r.Float32BE()
	return err
}

// TextureParameter is a named texture binding; LibraryName is optional per
// the shared mask.
type TextureParameter struct {
	LibraryName string
	HasLibrary  bool
	Name        string
	TextureName string
}

func (p *TextureParameter) read(r *stream.Reader, mask *alternativa.OptionalMask) error {
	hasLibrary, err := mask.Next()
	if err != nil {
		return err
	}
	if hasLibrary {
		p.HasLibrary = true
		if p.LibraryName, err = alternativa.ReadString(r); err != nil {
			return err
		}
	}
	if p.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	p.TextureName, err = alternativa.ReadString(r)
	return err
}

// Vector2Parameter is a named 2-component uniform.
type Vector2Parameter struct {
	Name  string
	Value [2]float32
}

func (p *Vector2Parameter) read(r *stream.Reader) error {
	var err error
	if p.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	for i := range p.Value {
		if p.Value[i], err = r.Float32BE(); err != nil {
			return err
		}
	}
	return nil
}

// Vector3Parameter is a named 3-component uniform.
type Vector3Parameter struct {
	Name  string
	Value math.Vec3
}

func (p *Vector3Parameter) read(r *stream.Reader) error {
	var err error
	if p.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	p.Value, err = readVec3BE(r)
	return err
}

// Vector4Parameter is a named 4-component uniform.
type Vector4Parameter struct {
	Name  string
	Value [4]float32
}

func (p *Vector4Parameter) read(r *stream.Reader) error {
	var err error
	if p.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	for i := range p.Value {
		if p.Value[i], err = r.Float32BE(); err != nil {
			return err
		}
	}
	return nil
}

// SpawnPointType identifies the game mode a spawn point serves.
type SpawnPointType uint32

const (
	SpawnDeathmatch SpawnPointType = iota
	SpawnDominationTeamA
	SpawnDominationTeamB
	SpawnRugbyTeamA
	SpawnRugbyTeamB
	SpawnTeamA
	SpawnTeamB
	SpawnUnknown
)

// String returns a human-readable spawn type name.
func (t SpawnPointType) String() string {
	switch t {
	case SpawnDeathmatch:
		return "Deathmatch"
	case SpawnDominationTeamA:
		return "DominationTeamA"
	case SpawnDominationTeamB:
		return "DominationTeamB"
	case SpawnRugbyTeamA:
		return "RugbyTeamA"
	case SpawnRugbyTeamB:
		return "RugbyTeamB"
	case SpawnTeamA:
		return "TeamA"
	case SpawnTeamB:
		return "TeamB"
	default:
		return "Unknown"
	}
}

// SpawnPoint is a typed spawn location.
type SpawnPoint struct {
	Position math.Vec3
	Rotation math.Vec3
	Type     SpawnPointType
}

func (s *SpawnPoint) read(r *stream.Reader) error {
	var err error
	if s.Position, err = readVec3BE(r); err != nil {
		return err
	}
	if s.Rotation, err = readVec3BE(r); err != nil {
		return err
	}
	t, err := r.Uint32BE()
	s.Type = SpawnPointType(t)
	return err
}

// Prop is one placed instance of a library model. GroupName, Rotation and
// Scale are optional per the shared mask; absent rotation and scale keep
// their defaults.
type Prop struct {
	GroupName   string
	HasGroup    bool
	ID          uint32
	LibraryName string
	MaterialID  uint32
	Name        string
	Position    math.Vec3
	Rotation    math.Vec3
	Scale       math.Vec3
}

func (p *Prop) read(r *stream.Reader, mask *alternativa.OptionalMask) error {
	p.Scale = math.Vec3{X: 1, Y: 1, Z: 1}

	hasGroup, err := mask.Next()
	if err != nil {
		return err
	}
	if hasGroup {
		p.HasGroup = true
		if p.GroupName, err = alternativa.ReadString(r); err != nil {
			return err
		}
	}
	if p.ID, err = r.Uint32BE(); err != nil {
		return err
	}
	if p.LibraryName, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if p.MaterialID, err = r.Uint32BE(); err != nil {
		return err
	}
	if p.Name, err = alternativa.ReadString(r); err != nil {
		return err
	}
	if p.Position, err = readVec3BE(r); err != nil {
		return err
	}

	hasRotation, err := mask.Next()
	if err != nil {
		return err
	}
	if hasRotation {
		if p.Rotation, err = readVec3BE(r); err != nil {
			return err
		}
	}
	hasScale, err := mask.Next()
	if err != nil {
		return err
	}
	if hasScale {
		if p.Scale, err = readVec3BE(r); err != nil {
			return err
		}
	}
	return nil
}
