package frontend

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"hwflat/internal/ir"
)

// ParseType parses a wire type: "clock", "iN", "[N]T" or
// "struct{name:T,...}".
func ParseType(s string) (ir.DataType, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "clock":
		return ir.Clock{}, nil
	case strings.HasPrefix(s, "i"):
		width, err := strconv.Atoi(s[1:])
		if err != nil || width <= 0 {
			return nil, errors.Errorf("bad integer type %q", s)
		}
		return ir.UInt{Width: width}, nil
	case strings.HasPrefix(s, "["):
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, errors.Errorf("unterminated array type %q", s)
		}
		n, err := strconv.Atoi(s[1:end])
		if err != nil || n <= 0 {
			return nil, errors.Errorf("bad array length in %q", s)
		}
		elem, err := ParseType(s[end+1:])
		if err != nil {
			return nil, errors.Wrapf(err, "array element of %q", s)
		}
		return ir.Array{Elem: elem, Len: n}, nil
	case strings.HasPrefix(s, "struct{") && strings.HasSuffix(s, "}"):
		return parseStruct(s[len("struct{") : len(s)-1])
	default:
		return nil, errors.Errorf("unknown type %q", s)
	}
}

func parseStruct(body string) (ir.DataType, error) {
	var fields []ir.Field
	for _, member := range splitTop(body) {
		name, typ, ok := strings.Cut(member, ":")
		if !ok {
			return nil, errors.Errorf("struct member %q has no type", member)
		}
		t, err := ParseType(typ)
		if err != nil {
			return nil, errors.Wrapf(err, "struct member %q", strings.TrimSpace(name))
		}
		fields = append(fields, ir.Field{Name: strings.TrimSpace(name), Type: t})
	}
	if len(fields) == 0 {
		return nil, errors.New("empty struct type")
	}
	return ir.Struct{Fields: fields}, nil
}

// splitTop splits on commas that are not nested inside braces.
func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
