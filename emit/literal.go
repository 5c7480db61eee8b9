package emit

import (
	"strconv"

	"github.com/chewxy/math32"
	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/glbuild"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Value is a constant port value. Scalars use V.X, two component vectors V.X
// and V.Y and so on up to four components with W.
type Value struct {
	V ms3.Vec
	W float32
}

// Scalar returns a single component value.
func Scalar(v float32) Value { return Value{V: ms3.Vec{X: v}} }

// Vec2 returns a two component value.
func Vec2(v ms2.Vec) Value { return Value{V: ms3.Vec{X: v.X, Y: v.Y}} }

// Vec3 returns a three component value.
func Vec3(v ms3.Vec) Value { return Value{V: v} }

// Vec4 returns a four component value.
func Vec4(v ms3.Vec, w float32) Value { return Value{V: v, W: w} }

// Array returns the components of v.
func (v Value) Array() [4]float32 {
	return [4]float32{v.V.X, v.V.Y, v.V.Z, v.W}
}

// ZeroLiteral returns the neutral literal of type t. Samplers have no neutral
// value and yield "0" so the generated call stays syntactically complete.
func ZeroLiteral(t directive.PortType) string {
	return string(AppendLiteral(nil, t, Value{}))
}

// DefaultLiteral formats v as a literal of type t.
func DefaultLiteral(t directive.PortType, v Value) string {
	return string(AppendLiteral(nil, t, v))
}

// AppendLiteral appends v formatted as a literal of type t. NaN and infinite
// components are written as zero.
func AppendLiteral(b []byte, t directive.PortType, v Value) []byte {
	arr := v.Array()
	for i := range arr {
		if math32.IsNaN(arr[i]) || math32.IsInf(arr[i], 0) {
			arr[i] = 0
		}
	}
	switch t {
	case directive.Int:
		return strconv.AppendInt(b, int64(math32.Round(arr[0])), 10)
	case directive.Float:
		if arr[0] == 0 {
			return append(b, '0')
		}
		return glbuild.AppendFloat(b, '-', '.', arr[0])
	case directive.Float2, directive.Float3, directive.Float4, directive.Color:
		n := t.Components()
		if t == directive.Color {
			b = append(b, "float4"...)
		} else {
			b = append(b, t.String()...)
		}
		b = append(b, '(')
		for i := 0; i < n; i++ {
			if i > 0 {
				b = append(b, ',')
			}
			if arr[i] == 0 {
				b = append(b, '0')
			} else {
				b = glbuild.AppendFloat(b, '-', '.', arr[i])
			}
		}
		return append(b, ')')
	}
	return append(b, '0')
}
