package directive

// PortType is the semantic type of a port.
type PortType uint8

const (
	_ PortType = iota // zero value is not a valid type.
	Float
	Float2
	Float3
	Float4
	Int
	Color
	Sampler2D
	Sampler3D
	SamplerCube
)

// MapType maps a directive type token to its PortType. Half precision tokens
// map to their float counterparts and bool maps to Int.
func MapType(token string) (PortType, bool) {
	switch token {
	case "float", "half":
		return Float, true
	case "float2", "half2":
		return Float2, true
	case "float3", "half3":
		return Float3, true
	case "float4", "half4":
		return Float4, true
	case "int", "bool":
		return Int, true
	case "sampler2D":
		return Sampler2D, true
	case "sampler3D":
		return Sampler3D, true
	case "samplerCUBE":
		return SamplerCube, true
	case "color":
		return Color, true
	}
	return 0, false
}

// String returns the canonical directive token of the type.
func (t PortType) String() string {
	switch t {
	case Float:
		return "float"
	case Float2:
		return "float2"
	case Float3:
		return "float3"
	case Float4:
		return "float4"
	case Int:
		return "int"
	case Color:
		return "color"
	case Sampler2D:
		return "sampler2D"
	case Sampler3D:
		return "sampler3D"
	case SamplerCube:
		return "samplerCUBE"
	}
	return "invalid"
}

// Valid reports whether t is one of the enumerated port types.
func (t PortType) Valid() bool { return t >= Float && t <= SamplerCube }

// Components returns the number of scalar components of a value of type t.
// Samplers have no components.
func (t PortType) Components() int {
	switch t {
	case Float, Int:
		return 1
	case Float2:
		return 2
	case Float3:
		return 3
	case Float4, Color:
		return 4
	}
	return 0
}

// IsSampler reports whether t is a texture sampler type.
func (t PortType) IsSampler() bool {
	return t == Sampler2D || t == Sampler3D || t == SamplerCube
}

// PropertyKind is the kind of editor property best suited to drive a port of
// a given type.
type PropertyKind uint8

const (
	PropertyNone PropertyKind = iota
	PropertyRangedFloat
	PropertyVector2
	PropertyVector3
	PropertyVector4
	PropertyInt
	PropertyColor
	PropertyTexture
)

// PropertyKindFor returns the property kind suggested for a port type.
func PropertyKindFor(t PortType) PropertyKind {
	switch t {
	case Float:
		return PropertyRangedFloat
	case Float2:
		return PropertyVector2
	case Float3:
		return PropertyVector3
	case Float4:
		return PropertyVector4
	case Int:
		return PropertyInt
	case Color:
		return PropertyColor
	case Sampler2D, Sampler3D, SamplerCube:
		return PropertyTexture
	}
	return PropertyNone
}

func (k PropertyKind) String() string {
	switch k {
	case PropertyRangedFloat:
		return "RangedFloat"
	case PropertyVector2:
		return "Vector2"
	case PropertyVector3:
		return "Vector3"
	case PropertyVector4:
		return "Vector4"
	case PropertyInt:
		return "Int"
	case PropertyColor:
		return "Color"
	case PropertyTexture:
		return "Texture"
	}
	return "None"
}
