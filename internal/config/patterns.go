// pattern: Functional Core

package config

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern is wrapped by CompilePatterns for every pattern that
// failed to compile.
var ErrInvalidPattern = errors.New("invalid ignore pattern")

// Matcher holds the compiled ignore patterns in configuration order.
type Matcher struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	source string
	glob   glob.Glob
}

// CompilePatterns compiles the ignore patterns. Invalid patterns are left out
// of the returned matcher and reported together in the error, which is
// non-nil only when at least one pattern failed. '*' matches across '/', so
// "dependabot/*" covers "dependabot/npm_and_yarn/lodash".
func CompilePatterns(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	var errs []error
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err))
			continue
		}
		m.patterns = append(m.patterns, compiledPattern{source: p, glob: g})
	}
	return m, errors.Join(errs...)
}

// Match returns the first pattern matching branch.
func (m *Matcher) Match(branch string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, p := range m.patterns {
		if p.glob.Match(branch) {
			return p.source, true
		}
	}
	return "", false
}

// Len is the number of usable patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}
