package zoho

import (
	"strings"
)

type formField struct {
	Name  string
	Value string
}

// encodeForm serialises fields in the given order using the
// application/x-www-form-urlencoded byte set browsers use.
func encodeForm(fields []formField) string {
	var builder strings.Builder
	for i, field := range fields {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(formEscape(field.Name))
		builder.WriteByte('=')
		builder.WriteString(formEscape(field.Value))
	}
	return builder.String()
}

const upperHex = "0123456789ABCDEF"

func formEscape(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			builder.WriteByte('+')
		case formSafe(c):
			builder.WriteByte(c)
		default:
			builder.WriteByte('%')
			builder.WriteByte(upperHex[c>>4])
			builder.WriteByte(upperHex[c&0x0F])
		}
	}
	return builder.String()
}

func formSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '*', c == '-', c == '.', c == '_':
		return true
	}
	return false
}
