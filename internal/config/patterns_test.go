package config

import (
	"errors"
	"testing"
)

func TestCompilePatterns_Match(t *testing.T) {
	m, err := CompilePatterns([]string{"dependabot/*", "renovate/*", "release-?"})
	if err != nil {
		t.Fatalf("CompilePatterns failed: %v", err)
	}

	tests := []struct {
		branch      string
		wantPattern string
		wantMatch   bool
	}{
		{"dependabot/npm_and_yarn/lodash-4.17.21", "dependabot/*", true},
		{"renovate/go", "renovate/*", true},
		{"release-1", "release-?", true},
		{"release-10", "", false},
		{"feature/dependabot", "", false},
		{"main", "", false},
	}
	for _, tt := range tests {
		pattern, ok := m.Match(tt.branch)
		if ok != tt.wantMatch || pattern != tt.wantPattern {
			t.Errorf("Match(%q): got (%q, %v), want (%q, %v)", tt.branch, pattern, ok, tt.wantPattern, tt.wantMatch)
		}
	}
}

func TestCompilePatterns_FirstMatchWins(t *testing.T) {
	m, _ := CompilePatterns([]string{"feature/*", "*"})
	if p, _ := m.Match("feature/x"); p != "feature/*" {
		t.Errorf("got %q, want first pattern", p)
	}
}

func TestCompilePatterns_InvalidPatternSkipped(t *testing.T) {
	m, err := CompilePatterns([]string{"[unclosed", "wip/*"})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 usable pattern, got %d", m.Len())
	}
	if _, ok := m.Match("wip/thing"); !ok {
		t.Error("valid pattern should still match")
	}
}

func TestMatcher_Nil(t *testing.T) {
	var m *Matcher
	if _, ok := m.Match("anything"); ok {
		t.Error("nil matcher should match nothing")
	}
}
