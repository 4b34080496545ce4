// Package namefilter removes releases whose titles do not actually contain
// the target entity's name. Fuzzy matching downstream cannot recover from
// a wrong entity, so this is a hard filter: a release survives only when
// at least one allowed name string is present in proper word order.
package namefilter

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"fetcharr/internal/release"
	"fetcharr/internal/textutil"
)

// maxInterveningWords is how many extra words may appear between two
// consecutive name tokens. "Jane Marie Doe" still matches "Jane Doe", but
// a full unrelated name wedged between the tokens breaks the chain.
const maxInterveningWords = 2

// Filter matches titles against an entity's name and aliases.
type Filter struct {
	names    []string
	patterns []*regexp.Regexp
}

// New builds a filter for the given name strings. Empty and
// whitespace-only names are ignored; New fails when no usable name
// remains.
func New(names ...string) (*Filter, error) {
	f := &Filter{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pattern, err := compileNamePattern(name)
		if err != nil {
			return nil, fmt.Errorf("compile name pattern for %q: %w", name, err)
		}
		f.names = append(f.names, name)
		f.patterns = append(f.patterns, pattern)
	}
	if len(f.patterns) == 0 {
		return nil, fmt.Errorf("name filter requires at least one non-empty name")
	}
	return f, nil
}

// compileNamePattern builds the title-matching regexp for one name.
// Single-word names demand an exact word-boundary token. Multi-word names
// demand every word in order, allowing up to maxInterveningWords words
// between consecutive tokens.
func compileNamePattern(name string) (*regexp.Regexp, error) {
	words := strings.Fields(textutil.FoldDiacritics(name))
	if len(words) == 1 {
		return regexp.Compile(`(?i)\b` + regexp.QuoteMeta(words[0]) + `\b`)
	}
	var b strings.Builder
	b.WriteString(`(?i)\b`)
	for i, word := range words {
		if i > 0 {
			b.WriteString(fmt.Sprintf(`(?:\W+\w+){0,%d}?\W+`, maxInterveningWords))
		}
		b.WriteString(regexp.QuoteMeta(word))
	}
	b.WriteString(`\b`)
	return regexp.Compile(b.String())
}

// Match reports whether any allowed name appears in the title.
func (f *Filter) Match(title string) bool {
	folded := textutil.FoldDiacritics(title)
	for _, pattern := range f.patterns {
		if pattern.MatchString(folded) {
			return true
		}
	}
	return false
}

// Apply drops releases whose titles match no allowed name and logs the
// eliminated count. The input slice is never mutated.
func (f *Filter) Apply(releases []release.RawRelease, logger *slog.Logger) []release.RawRelease {
	kept := make([]release.RawRelease, 0, len(releases))
	for _, r := range releases {
		if f.Match(r.Title) {
			kept = append(kept, r)
		}
	}
	if logger != nil {
		logger.Info("name filter applied",
			"names", f.names,
			"input", len(releases),
			"eliminated", len(releases)-len(kept))
	}
	return kept
}
