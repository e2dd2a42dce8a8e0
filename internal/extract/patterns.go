package extract

import (
	"fmt"
	"regexp"
)

// Pattern is one compiled extraction pattern. Patterns are tried in priority
// order; each must capture exactly two groups, the file token then the line
// token.
type Pattern struct {
	ID   int
	Expr string
	re   *regexp.Regexp
}

// DefaultPatterns returns the built-in extraction pattern expressions in
// priority order. They cover the comment anchors models commonly emit:
//
//	In src/app.go, line 42: ...
//	src/app.go:42: ...
//	src/app.go line 42: ...
//	In file `src/app.go` at line 42 ...
func DefaultPatterns() []string {
	return []string{
		`In\s+([^,]+),\s+line\s+(\d+):`,
		`([^:\s]+):(\d+):`,
		`([^:\s]+) line (\d+):`,
		"In file `([^`]+)` at line (\\d+)",
	}
}

// CompilePatterns compiles the given expressions in order. An expression that
// does not compile, or that does not declare exactly two capture groups, is a
// configuration error.
func CompilePatterns(exprs []string) ([]Pattern, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("no extraction patterns configured")
	}
	patterns := make([]Pattern, 0, len(exprs))
	for i, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("extraction pattern %d: %w", i, err)
		}
		if re.NumSubexp() != 2 {
			return nil, fmt.Errorf("extraction pattern %d: has %d capture groups, want 2 (file, line)", i, re.NumSubexp())
		}
		patterns = append(patterns, Pattern{ID: i, Expr: expr, re: re})
	}
	return patterns, nil
}

// MustCompilePatterns is CompilePatterns for known-good expressions.
func MustCompilePatterns(exprs []string) []Pattern {
	patterns, err := CompilePatterns(exprs)
	if err != nil {
		panic(err)
	}
	return patterns
}
