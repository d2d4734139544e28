package ir

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	illegalNameChars = regexp.MustCompile(`[^0-9a-zA-Z_]+`)
	numberedName     = regexp.MustCompile(`^(.*)_(\d+)$`)
)

// reservedNames are never handed out so every node name is a usable Go identifier.
var reservedNames = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// sanitizeName maps an arbitrary candidate onto [0-9A-Za-z_] with a
// non-digit first character.
func sanitizeName(candidate string) string {
	name := illegalNameChars.ReplaceAllString(candidate, "_")
	if name == "" {
		return "_"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// nextName bumps the numeric suffix of name: "x" -> "x_1", "x_1" -> "x_2".
func nextName(name string) string {
	m := numberedName.FindStringSubmatch(name)
	if m == nil {
		return name + "_1"
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return name + "_1"
	}
	return m[1] + "_" + strconv.Itoa(n+1)
}

// renderSymbol turns a symbol into a default node name: surrounding double
// underscores are stripped and camelCase becomes snake_case.
func renderSymbol(sym string) string {
	if len(sym) > 4 && strings.HasPrefix(sym, "__") && strings.HasSuffix(sym, "__") {
		sym = sym[2 : len(sym)-2]
	}
	return snakeCase(sym)
}

func snakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		if prevLower && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
		prevLower = unicode.IsLower(r)
	}
	return b.String()
}
