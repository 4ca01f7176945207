package psdebug

import (
	"strings"
	"unicode"
)

// Matcher is one compiled namespace pattern. A '*' matches any run of bytes,
// including the empty run and delimiters such as ':'; every other byte
// matches itself. Matching is anchored at both ends of the namespace.
type Matcher struct {
	source string
	parts  []string
}

// CompileMatcher compiles a single pattern. It never fails: text that is not a
// wildcard is matched literally.
func CompileMatcher(pattern string) Matcher {
	m := Matcher{source: pattern}
	if strings.IndexByte(pattern, '*') >= 0 {
		m.parts = strings.Split(pattern, "*")
	}
	return m
}

// String returns the pattern text the matcher was compiled from.
func (m Matcher) String() string {
	return m.source
}

// Match reports whether namespace matches the whole pattern.
func (m Matcher) Match(namespace string) bool {
	if m.parts == nil {
		return namespace == m.source
	}
	head, tail := m.parts[0], m.parts[len(m.parts)-1]
	if len(namespace) < len(head)+len(tail) {
		return false
	}
	if !strings.HasPrefix(namespace, head) || !strings.HasSuffix(namespace, tail) {
		return false
	}
	// Middle parts are placed left-most first; the earliest placement leaves
	// the most room for what follows, so no backtracking is required.
	rest := namespace[len(head) : len(namespace)-len(tail)]
	for _, part := range m.parts[1 : len(m.parts)-1] {
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return true
}

// MatcherSet is the compiled form of a pattern list: the enable matchers and
// the skip matchers, each in the order they appeared. The zero value enables
// nothing.
type MatcherSet struct {
	names []Matcher
	skips []Matcher
}

// Compile parses a comma and/or whitespace separated pattern list. Fields
// prefixed with '-' become skips. Empty fields are dropped, so an empty string
// compiles to an empty set.
func Compile(patterns string) MatcherSet {
	var set MatcherSet
	fields := strings.FieldsFunc(patterns, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for _, field := range fields {
		if skip, ok := strings.CutPrefix(field, "-"); ok {
			set.skips = append(set.skips, CompileMatcher(skip))
			continue
		}
		set.names = append(set.names, CompileMatcher(field))
	}
	return set
}

// Enabled reports whether namespace is enabled by the set. Any matching skip
// disables the namespace regardless of where it appeared relative to the
// enable patterns.
func (s MatcherSet) Enabled(namespace string) bool {
	for _, m := range s.skips {
		if m.Match(namespace) {
			return false
		}
	}
	for _, m := range s.names {
		if m.Match(namespace) {
			return true
		}
	}
	return false
}

// Empty reports whether the set has neither enable nor skip patterns.
func (s MatcherSet) Empty() bool {
	return len(s.names) == 0 && len(s.skips) == 0
}

// Names returns the enable pattern texts in declaration order.
func (s MatcherSet) Names() []string {
	return sources(s.names)
}

// Skips returns the skip pattern texts, without their '-' prefix, in
// declaration order.
func (s MatcherSet) Skips() []string {
	return sources(s.skips)
}

// NameMatchers returns a copy of the compiled enable matchers.
func (s MatcherSet) NameMatchers() []Matcher {
	return append([]Matcher(nil), s.names...)
}

// SkipMatchers returns a copy of the compiled skip matchers.
func (s MatcherSet) SkipMatchers() []Matcher {
	return append([]Matcher(nil), s.skips...)
}

// String serializes the set back to a pattern list: enable patterns first,
// then '-' prefixed skips, comma separated. Compiling the result yields an
// equivalent set.
func (s MatcherSet) String() string {
	if s.Empty() {
		return ""
	}
	var b strings.Builder
	for _, m := range s.names {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(m.source)
	}
	for _, m := range s.skips {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('-')
		b.WriteString(m.source)
	}
	return b.String()
}

func sources(ms []Matcher) []string {
	if len(ms) == 0 {
		return []string{}
	}
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.source
	}
	return out
}
