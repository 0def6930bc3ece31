package export

import (
	"regexp"
	"strconv"
	"strings"
)

// lengthRe matches absolute px and pt lengths.
var lengthRe = regexp.MustCompile(`(\d*\.?\d+)(px|pt)\b`)

// declarationRe matches a CSS property-value pair.
var declarationRe = regexp.MustCompile(`(?is)^\s*([\w-]+)\s*:\s*(.*?)\s*$`)

// negativeLengthRe matches a negative number in a value.
var negativeLengthRe = regexp.MustCompile(`(^|[\s(,])-\d`)

// emDivisors converts absolute units to em at a 16px / 12pt base size.
var emDivisors = map[string]float64{"px": 16, "pt": 12}

// NormalizeStylesheet prepares a stylesheet for reflowable reading
// systems: declarations that pin or animate content are dropped and
// px/pt lengths are converted to em. Comments and string literals are
// copied unchanged.
func NormalizeStylesheet(css string) string {
	var (
		out   strings.Builder
		start int
	)
	for i := 0; i < len(css); {
		switch c := css[i]; {
		case c == '/' && i+1 < len(css) && css[i+1] == '*':
			out.WriteString(css[start:i])
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				out.WriteString(css[i:])
				return out.String()
			}
			end += i + 4
			out.WriteString(css[i:end])
			i, start = end, end
		case c == '"' || c == '\'':
			i = skipString(css, i)
		case c == '{':
			out.WriteString(css[start : i+1])
			i++
			start = i
		case c == ';' || c == '}':
			writeDeclaration(&out, css[start:i], c == ';')
			if c == '}' {
				out.WriteByte('}')
			}
			i++
			start = i
		default:
			i++
		}
	}
	writeDeclaration(&out, css[start:], false)
	return out.String()
}

// skipString returns the index just past the string literal opening at i.
func skipString(css string, i int) int {
	quote := css[i]
	for i++; i < len(css); i++ {
		switch css[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(css)
}

func writeDeclaration(out *strings.Builder, decl string, terminated bool) {
	m := declarationRe.FindStringSubmatch(decl)
	if m == nil {
		out.WriteString(decl)
		if terminated {
			out.WriteByte(';')
		}
		return
	}
	if dropDeclaration(m[1], m[2]) {
		return
	}
	out.WriteString(toEm(decl))
	if terminated {
		out.WriteByte(';')
	}
}

// dropDeclaration reports whether a property-value pair is removed.
func dropDeclaration(property, value string) bool {
	property = strings.ToLower(property)
	value = strings.ToLower(strings.TrimSpace(value))

	switch {
	case property == "position":
		return value == "fixed" || value == "absolute"
	case property == "transform", property == "transition", property == "animation":
		return true
	case strings.HasPrefix(property, "transition-"), strings.HasPrefix(property, "animation-"):
		return true
	case property == "margin", strings.HasPrefix(property, "margin-"):
		return negativeLengthRe.MatchString(value)
	}
	return false
}

// toEm converts lengths outside string literals.
func toEm(s string) string {
	var out strings.Builder
	start := 0
	for i := 0; i < len(s); {
		if s[i] != '"' && s[i] != '\'' {
			i++
			continue
		}
		end := skipString(s, i)
		out.WriteString(convertLengths(s[start:i]))
		out.WriteString(s[i:end])
		i, start = end, end
	}
	out.WriteString(convertLengths(s[start:]))
	return out.String()
}

func convertLengths(s string) string {
	return lengthRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := lengthRe.FindStringSubmatch(match)
		v, err := strconv.ParseFloat(sub[1], 64)
		if err != nil {
			return match
		}
		return strconv.FormatFloat(v/emDivisors[sub[2]], 'f', -1, 64) + "em"
	})
}
