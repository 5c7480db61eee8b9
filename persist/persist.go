// Package persist encodes the text state of a snippet instance to and from
// the field strings stored by the host's serializer.
package persist

import (
	"encoding/base64"
	"strings"
)

// LegacyPrefix starts the single combined field written by older versions:
//
//	AutoParsedExpressionNode|<code>|<signature>|<obsolete>|<name>|
const LegacyPrefix = "AutoParsedExpressionNode|"

// NumFields is the number of fields written by [Encode].
const NumFields = 3

// State is the persisted text state of an instance.
type State struct {
	Code      string
	Signature string
	Name      string
}

// EncodeField base64 encodes the UTF-8 bytes of s. The empty string encodes
// to the empty string.
func EncodeField(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// DecodeField reverses [EncodeField]. Invalid input decodes to the empty string.
func DecodeField(field string) string {
	if field == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(field)
	if err != nil {
		return ""
	}
	return string(b)
}

// Encode returns the fields of st in storage order: code, signature, name.
func Encode(st State) []string {
	return []string{EncodeField(st.Code), EncodeField(st.Signature), EncodeField(st.Name)}
}

// EncodeLegacy returns st in the combined single-field format.
func EncodeLegacy(st State) string {
	return LegacyPrefix + EncodeField(st.Code) + "|" + EncodeField(st.Signature) + "||" + EncodeField(st.Name) + "|"
}

// Decode reads a State from the head of fields and returns the number of
// fields consumed. A first field starting with [LegacyPrefix] is decoded as
// the combined format. Otherwise up to [NumFields] fields are read; missing
// trailing fields leave their values empty.
func Decode(fields []string) (st State, consumed int) {
	if len(fields) == 0 {
		return State{}, 0
	}
	first := fields[0]
	if strings.HasPrefix(first, LegacyPrefix) {
		parts := strings.Split(first, "|")
		if len(parts) > 1 {
			st.Code = DecodeField(parts[1])
		}
		if len(parts) > 2 {
			st.Signature = DecodeField(parts[2])
		}
		if len(parts) > 4 {
			st.Name = DecodeField(parts[4])
		}
		return st, 1
	}
	st.Code = DecodeField(first)
	consumed = 1
	if len(fields) > 1 {
		st.Signature = DecodeField(fields[1])
		consumed++
	}
	if len(fields) > 2 {
		st.Name = DecodeField(fields[2])
		consumed++
	}
	return st, consumed
}
