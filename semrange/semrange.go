// Package semrange parses npm style version ranges ("^0.4.4", "~0.5.0",
// ">=0.5.0 <0.7.0", "0.8.x", "0.4.24 || ^0.5.0") into go-version constraints.
package semrange

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	version "github.com/hashicorp/go-version"
)

// Range is a set of alternatives, any of which may match a version.
type Range struct {
	raw  string
	sets []version.Constraints
}

// Parse parses a range expression.
func Parse(s string) (*Range, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, fmt.Errorf("empty version range")
	}

	r := &Range{raw: raw}
	for _, alt := range strings.Split(raw, "||") {
		comparators, err := translate(strings.TrimSpace(alt))
		if err != nil {
			return nil, fmt.Errorf("invalid version range '%s': %v", raw, err)
		}
		c, err := version.NewConstraint(strings.Join(comparators, ", "))
		if err != nil {
			return nil, fmt.Errorf("invalid version range '%s': %v", raw, err)
		}
		r.sets = append(r.sets, c)
	}
	return r, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Range {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Check reports whether v satisfies any of the alternatives.
func (r *Range) Check(v *version.Version) bool {
	for _, c := range r.sets {
		if c.Check(v) {
			return true
		}
	}
	return false
}

// Select returns the highest version in vs that satisfies the range, or nil.
func (r *Range) Select(vs []*version.Version) *version.Version {
	var best *version.Version
	for _, v := range vs {
		if !r.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	return best
}

func (r *Range) String() string {
	return r.raw
}

// Constraints returns the translated go-version constraints, one per alternative.
func (r *Range) Constraints() []version.Constraints {
	return r.sets
}

var partialRegexp = regexp.MustCompile(`^v?(\d+|[xX*])(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?(-[0-9A-Za-z.\-]+)?(\+[0-9A-Za-z.\-]+)?$`)

// partial is a possibly incomplete version. Missing or wildcard components are -1.
type partial struct {
	major, minor, patch int
	pre                 string
}

func parsePartial(s string) (*partial, error) {
	if s == "*" || s == "x" || s == "X" {
		return &partial{major: -1, minor: -1, patch: -1}, nil
	}
	m := partialRegexp.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("malformed version '%s'", s)
	}

	p := &partial{major: -1, minor: -1, patch: -1}
	fields := []*int{&p.major, &p.minor, &p.patch}
	wildcard := false
	for i, field := range m[1:4] {
		if field == "" || field == "x" || field == "X" || field == "*" {
			wildcard = true
			continue
		}
		if wildcard {
			return nil, fmt.Errorf("malformed version '%s'", s)
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		*fields[i] = n
	}
	if m[4] != "" {
		if !p.full() {
			return nil, fmt.Errorf("prerelease on partial version '%s'", s)
		}
		p.pre = m[4]
	}
	return p, nil
}

func (p *partial) full() bool {
	return p.major >= 0 && p.minor >= 0 && p.patch >= 0
}

// floor pads missing components with zero.
func (p *partial) floor() string {
	major, minor, patch := p.major, p.minor, p.patch
	if major < 0 {
		major = 0
	}
	if minor < 0 {
		minor = 0
	}
	if patch < 0 {
		patch = 0
	}
	return fmt.Sprintf("%d.%d.%d%s", major, minor, patch, p.pre)
}

// next returns the smallest version above every version the partial covers.
// It returns "" for a bare wildcard.
func (p *partial) next() string {
	switch {
	case p.major < 0:
		return ""
	case p.minor < 0:
		return fmt.Sprintf("%d.0.0", p.major+1)
	case p.patch < 0:
		return fmt.Sprintf("%d.%d.0", p.major, p.minor+1)
	}
	return ""
}

// caretCeil is the upper bound for ^p: the next version that changes the
// left-most non-zero component.
func (p *partial) caretCeil() string {
	switch {
	case p.major < 0:
		return ""
	case p.major > 0 || p.minor < 0:
		return fmt.Sprintf("%d.0.0", p.major+1)
	case p.minor > 0 || p.patch < 0:
		return fmt.Sprintf("0.%d.0", p.minor+1)
	}
	return fmt.Sprintf("0.0.%d", p.patch+1)
}

func (p *partial) tildeCeil() string {
	switch {
	case p.major < 0:
		return ""
	case p.minor < 0:
		return fmt.Sprintf("%d.0.0", p.major+1)
	}
	return fmt.Sprintf("%d.%d.0", p.major, p.minor+1)
}

var operators = []string{">=", "<=", "~>", ">", "<", "=", "^", "~"}

func splitOperator(tok string) (string, string) {
	for _, op := range operators {
		if strings.HasPrefix(tok, op) {
			return op, strings.TrimSpace(tok[len(op):])
		}
	}
	return "", tok
}

// tokenize splits an alternative into comparator tokens, joining operators
// separated from their version by whitespace (">= 0.5.0").
func tokenize(alt string) []string {
	fields := strings.Fields(strings.ReplaceAll(alt, ",", " "))

	tokens := []string{}
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if op, rest := splitOperator(f); op != "" && rest == "" && i+1 < len(fields) {
			f = op + fields[i+1]
			i++
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func translate(alt string) ([]string, error) {
	if alt == "" {
		return []string{">= 0.0.0"}, nil
	}

	tokens := tokenize(alt)

	// hyphen range: "A - B"
	if len(tokens) == 3 && tokens[1] == "-" {
		lo, err := parsePartial(tokens[0])
		if err != nil {
			return nil, err
		}
		hi, err := parsePartial(tokens[2])
		if err != nil {
			return nil, err
		}
		res := []string{">= " + lo.floor()}
		switch {
		case hi.full():
			res = append(res, "<= "+hi.floor())
		case hi.next() != "":
			res = append(res, "< "+hi.next())
		}
		return res, nil
	}

	res := []string{}
	for _, tok := range tokens {
		c, err := comparator(tok)
		if err != nil {
			return nil, err
		}
		res = append(res, c...)
	}
	return res, nil
}

func comparator(tok string) ([]string, error) {
	op, rest := splitOperator(tok)
	if op == "~>" {
		// pessimistic operator is understood natively
		return []string{"~> " + strings.TrimPrefix(rest, "v")}, nil
	}

	p, err := parsePartial(rest)
	if err != nil {
		return nil, err
	}

	bounded := func(ceil string) []string {
		if ceil == "" {
			return []string{">= " + p.floor()}
		}
		return []string{">= " + p.floor(), "< " + ceil}
	}

	switch op {
	case "", "=":
		if p.full() {
			return []string{"= " + p.floor()}, nil
		}
		return bounded(p.next()), nil
	case "^":
		return bounded(p.caretCeil()), nil
	case "~":
		return bounded(p.tildeCeil()), nil
	case ">=":
		return []string{">= " + p.floor()}, nil
	case "<":
		return []string{"< " + p.floor()}, nil
	case ">":
		if p.full() {
			return []string{"> " + p.floor()}, nil
		}
		if p.major < 0 {
			return nil, fmt.Errorf("nothing is greater than '%s'", rest)
		}
		return []string{">= " + p.next()}, nil
	case "<=":
		if p.full() {
			return []string{"<= " + p.floor()}, nil
		}
		if p.major < 0 {
			return []string{">= 0.0.0"}, nil
		}
		return []string{"< " + p.next()}, nil
	}
	return nil, fmt.Errorf("unknown operator '%s'", op)
}
