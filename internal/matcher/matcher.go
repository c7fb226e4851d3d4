// Package matcher compiles gitignore-style exclusion patterns into a matching
// predicate over root-relative paths.
package matcher

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/swapnikshah/promptgen/internal/utils"
)

const (
	pathSeparator  = "/"
	negationPrefix = "!"
	commentPrefix  = "#"
)

// Pattern is a single compiled exclusion rule. Immutable once compiled.
type Pattern struct {
	// Raw is the pattern text as supplied by its source.
	Raw string
	// DirectoryOnly reports whether the pattern carried a trailing slash and
	// therefore matches directories exclusively.
	DirectoryOnly bool
	// Anchored reports whether the pattern contains a path separator and is
	// matched against the full root-relative path instead of the basename.
	Anchored bool

	expression *regexp.Regexp
}

// PatternMatcher evaluates an ordered set of compiled patterns. A path is
// excluded as soon as any pattern matches it; the pattern set carries no
// negation semantics.
type PatternMatcher struct {
	patterns []Pattern
	skipped  []string
}

// Compile translates every raw pattern into its compiled form exactly once.
// Blank lines, comment lines, and negation lines are skipped; skipped negation
// lines are recorded and available through SkippedNegations so the caller can
// warn about them.
func Compile(rawPatterns []string) (*PatternMatcher, error) {
	patternMatcher := &PatternMatcher{}
	for _, rawPattern := range rawPatterns {
		trimmedPattern := strings.TrimSpace(rawPattern)
		if trimmedPattern == "" || strings.HasPrefix(trimmedPattern, commentPrefix) {
			continue
		}
		if strings.HasPrefix(trimmedPattern, negationPrefix) {
			patternMatcher.skipped = append(patternMatcher.skipped, trimmedPattern)
			continue
		}

		compiledPattern, compileError := compilePattern(trimmedPattern)
		if compileError != nil {
			return nil, compileError
		}
		patternMatcher.patterns = append(patternMatcher.patterns, compiledPattern)
	}
	return patternMatcher, nil
}

// Matches reports whether the root-relative path is excluded by any pattern.
// Directory-only patterns are consulted only when isDirectory is true; the
// walker is expected not to recurse into a matched directory, which is what
// excludes its descendants.
func (patternMatcher *PatternMatcher) Matches(relativePath string, isDirectory bool) bool {
	normalizedPath := filepath.ToSlash(relativePath)
	baseName := utils.LastPathSegment(normalizedPath)

	for _, pattern := range patternMatcher.patterns {
		if pattern.DirectoryOnly && !isDirectory {
			continue
		}
		candidate := normalizedPath
		if !pattern.Anchored {
			candidate = baseName
		}
		if pattern.expression.MatchString(candidate) {
			return true
		}
	}
	return false
}

// Patterns returns the compiled patterns in evaluation order.
func (patternMatcher *PatternMatcher) Patterns() []Pattern {
	return patternMatcher.patterns
}

// SkippedNegations returns negation lines that were dropped during compilation.
func (patternMatcher *PatternMatcher) SkippedNegations() []string {
	return patternMatcher.skipped
}

// compilePattern builds the compiled form of one raw pattern. The glob is
// translated into an anchored regular expression so matching never re-derives
// pattern structure per path.
func compilePattern(trimmedPattern string) (Pattern, error) {
	normalizedPattern := filepath.ToSlash(trimmedPattern)

	directoryOnly := strings.HasSuffix(normalizedPattern, pathSeparator)
	normalizedPattern = strings.TrimSuffix(normalizedPattern, pathSeparator)

	// A leading slash anchors without contributing a path segment.
	anchored := strings.HasPrefix(normalizedPattern, pathSeparator)
	normalizedPattern = strings.TrimPrefix(normalizedPattern, pathSeparator)
	anchored = anchored || strings.Contains(normalizedPattern, pathSeparator)

	expression, translateError := translateGlob(normalizedPattern)
	if translateError != nil {
		return Pattern{}, translateError
	}

	return Pattern{
		Raw:           trimmedPattern,
		DirectoryOnly: directoryOnly,
		Anchored:      anchored,
		expression:    expression,
	}, nil
}

// translateGlob converts a gitignore-style glob into an anchored regular
// expression. "*" and "?" never cross a path separator; "**" does: a leading
// "**/" matches in any directory including the root, a trailing "/**" matches
// everything inside a directory, and "**" elsewhere matches any run of
// characters including separators.
func translateGlob(globPattern string) (*regexp.Regexp, error) {
	var expressionBuilder strings.Builder
	expressionBuilder.WriteString("^")

	runes := []rune(globPattern)
	for runeIndex := 0; runeIndex < len(runes); runeIndex++ {
		currentRune := runes[runeIndex]
		if currentRune != '*' {
			if currentRune == '?' {
				expressionBuilder.WriteString("[^/]")
			} else {
				expressionBuilder.WriteString(regexp.QuoteMeta(string(currentRune)))
			}
			continue
		}

		isDoubleStar := runeIndex+1 < len(runes) && runes[runeIndex+1] == '*'
		if !isDoubleStar {
			expressionBuilder.WriteString("[^/]*")
			continue
		}
		runeIndex++

		atSegmentStart := runeIndex == 1 || (runeIndex >= 2 && runes[runeIndex-2] == '/')
		followedBySeparator := runeIndex+1 < len(runes) && runes[runeIndex+1] == '/'

		switch {
		case atSegmentStart && followedBySeparator:
			// "**/" prefix: any chain of directories, or none at all.
			expressionBuilder.WriteString("(?:[^/]+/)*")
			runeIndex++
		case atSegmentStart && runeIndex+1 == len(runes):
			// "/**" suffix: everything below the directory.
			expressionBuilder.WriteString(".+")
		default:
			expressionBuilder.WriteString(".*")
		}
	}

	expressionBuilder.WriteString("$")
	return regexp.Compile(expressionBuilder.String())
}
