// Package rename gives every function defined in a shader snippet a name
// unique to one snippet instance so several instances can be spliced into the
// same generated program.
package rename

import (
	"regexp"
	"strings"
)

// EntryName is the source-level name of a snippet's entry point.
const EntryName = "main"

// funcDef matches function definition headers: optional inline/static
// qualifiers, a return type, the function name and a parameter list that may
// span lines but holds no semicolons, followed by an opening brace.
var funcDef = regexp.MustCompile(`(?m)^[ \t]*(?:inline[ \t]+)?(?:static[ \t]+)?([A-Za-z_][A-Za-z0-9_<>\[\]]*)[ \t]+([A-Za-z_][A-Za-z0-9_]*)[ \t]*\([^;]*?\)[ \t\r\n]*\{`)

// Control flow statements look like headers to funcDef, i.e: "} else if (a) {".
var reserved = map[string]bool{
	"if":     true,
	"for":    true,
	"while":  true,
	"switch": true,
}

// Pair is a single rename of a function identifier.
type Pair struct {
	From, To string
}

// Map holds the renames of a snippet in order of first definition.
type Map []Pair

// Lookup returns the replacement of a function name.
func (m Map) Lookup(name string) (string, bool) {
	for _, p := range m {
		if p.From == name {
			return p.To, true
		}
	}
	return "", false
}

// Result is the rewritten snippet.
type Result struct {
	Code string
	// Entry is the renamed entry point or empty if the snippet defines no main.
	Entry string
	Map   Map
}

// Functions returns the names of the functions defined in code in order of
// first definition. Reserved control flow keywords are never reported.
func Functions(code string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range funcDef.FindAllStringSubmatch(code, -1) {
		name := m[2]
		if name == "" || reserved[name] || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Rewrite renames every function defined in code to prefix+name and rewrites
// every call-shaped use of those names (the name as a whole word followed by
// optional whitespace and an open parenthesis) anywhere in the text. Mentions
// not followed by a parenthesis are left alone.
//
// If no function header is found code is returned unmodified.
func Rewrite(code, prefix string) Result {
	names := Functions(code)
	if len(names) == 0 {
		return Result{Code: code}
	}
	res := Result{Map: make(Map, len(names))}
	for i, name := range names {
		res.Map[i] = Pair{From: name, To: prefix + name}
		if name == EntryName {
			res.Entry = prefix + name
		}
	}
	var sb strings.Builder
	for _, p := range res.Map {
		code = replaceCalls(&sb, code, p.From, p.To)
	}
	res.Code = code
	return res
}

func replaceCalls(sb *strings.Builder, s, old, repl string) string {
	sb.Reset()
	last := 0
	for off := 0; off < len(s); {
		idx := strings.Index(s[off:], old)
		if idx < 0 {
			break
		}
		start := off + idx
		end := start + len(old)
		off = end
		if start > 0 && isWordByte(s[start-1]) {
			continue
		}
		if end < len(s) && isWordByte(s[end]) {
			continue
		}
		if !callFollows(s[end:]) {
			continue
		}
		sb.WriteString(s[last:start])
		sb.WriteString(repl)
		last = end
	}
	if last == 0 {
		return s
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// callFollows reports whether s begins with optional whitespace and '('.
func callFollows(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		case '(':
			return true
		default:
			return false
		}
	}
	return false
}

// Non-ASCII bytes count as word characters so identifiers with unicode
// letters are never split.
func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}
