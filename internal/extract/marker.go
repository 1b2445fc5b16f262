package extract

import (
	"regexp"
	"strings"
)

// Marker finds SQL embedded in report cells as <name>( <sql> ), for example
// 1#sqlValue("SELECT SUM(A.BALANCE) FROM TABLE_GL A").
type Marker struct {
	name  string
	upper string
	open  *regexp.Regexp
}

// NewMarker creates a Marker for the given marker name.
func NewMarker(name string) Marker {
	return Marker{
		name:  name,
		upper: strings.ToUpper(name),
		open:  regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name) + `\s*\(`),
	}
}

// Name returns the marker name.
func (m Marker) Name() string {
	return m.name
}

// Contains reports whether cell mentions the marker, ignoring case.
func (m Marker) Contains(cell string) bool {
	return m.upper != "" && strings.Contains(strings.ToUpper(cell), m.upper)
}

// Unwrap returns the SQL inside the first marker call in cell.
//
// A quoted argument runs to the last matching quote that is followed by the
// closing parenthesis, and doubled quotes inside it are unescaped. An
// unquoted argument runs to the parenthesis balancing the opening one,
// skipping parentheses inside single-quoted SQL literals. A call without a
// closing parenthesis takes the rest of the cell.
func (m Marker) Unwrap(cell string) (string, bool) {
	loc := m.open.FindStringIndex(cell)
	if loc == nil {
		return "", false
	}
	rest := strings.TrimLeft(cell[loc[1]:], " \t\r\n")
	if rest == "" {
		return "", true
	}

	if q := rest[0]; q == '"' || q == '\'' {
		if end := closingQuote(rest, q); end > 0 {
			quote := string(q)
			return strings.TrimSpace(strings.ReplaceAll(rest[1:end], quote+quote, quote)), true
		}
	}

	if end := closingParen(rest); end >= 0 {
		return strings.TrimSpace(rest[:end]), true
	}
	return strings.TrimSpace(rest), true
}

// closingQuote returns the index of the last q in s that is followed only by
// whitespace and a closing parenthesis, or -1.
func closingQuote(s string, q byte) int {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] != ')' {
			continue
		}
		j := i - 1
		for j > 0 && isSpace(s[j]) {
			j--
		}
		if j > 0 && s[j] == q {
			return j
		}
	}
	return -1
}

// closingParen returns the index of the parenthesis closing an already
// opened one, or -1 when s never balances.
func closingParen(s string) int {
	depth := 1
	inLiteral := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inLiteral:
			if c == '\'' {
				inLiteral = false
			}
		case c == '\'':
			inLiteral = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
