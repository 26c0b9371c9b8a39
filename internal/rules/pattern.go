package rules

import (
	"fmt"
	"regexp"
)

// Pattern is a token pattern anchored to the whole token.
//
// The expression is wrapped as ^(?:expr)$ at compile time, so "#all" never
// matches "#allow" and ".*" matches every token in full.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// Compile compiles a token pattern.
func Compile(expr string) (*Pattern, error) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{expr: expr, re: re}, nil
}

// MustCompile is like Compile but panics on an invalid expression.
// Intended for package-level rule tables.
func MustCompile(expr string) *Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the expression as written, without the anchors.
func (p *Pattern) String() string {
	return p.expr
}

// Capture matches token against the pattern.
// The captured value is the first group when the pattern defines one,
// otherwise the whole token.
func (p *Pattern) Capture(token string) (string, bool) {
	m := p.re.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}
