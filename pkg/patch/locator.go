package patch

import (
	"fmt"
	"regexp"
	"sync"
)

// Span marks a half-open byte range [Start, End) within source text.
type Span struct {
	Start int
	End   int
}

// DeclarationLocator finds the value literal of a named declaration in
// source text. Implementations encapsulate the matching strategy for one
// target-file dialect; swapping the strategy never touches callers.
type DeclarationLocator interface {
	// Locate returns the spans of the value literals of every declaration
	// named name, in file order. An empty result is not an error; callers
	// decide whether zero or multiple occurrences are acceptable.
	Locate(src []byte, name string) ([]Span, error)
}

// RustConstLocator locates Rust string-constant declarations of the form
//
//	pub const NAME: &'static str = "VALUE";
//
// tolerating leading whitespace, an optional 'static lifetime, and arbitrary
// whitespace around punctuation. The pattern captures prefix, value, and
// suffix separately; only the value span is reported, and a rewrite leaves
// every byte outside the literal untouched.
type RustConstLocator struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewRustConstLocator creates a locator for Rust string constants.
func NewRustConstLocator() *RustConstLocator {
	return &RustConstLocator{patterns: make(map[string]*regexp.Regexp)}
}

// Locate implements DeclarationLocator.
func (l *RustConstLocator) Locate(src []byte, name string) ([]Span, error) {
	re, err := l.pattern(name)
	if err != nil {
		return nil, err
	}

	matches := re.FindAllSubmatchIndex(src, -1)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		// Submatch 2 is the value literal between the quotes.
		spans = append(spans, Span{Start: m[4], End: m[5]})
	}
	return spans, nil
}

// pattern returns the compiled declaration pattern for name, caching it so
// repeated updates of the same constant reuse one regexp.
func (l *RustConstLocator) pattern(name string) (*regexp.Regexp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if re, ok := l.patterns[name]; ok {
		return re, nil
	}

	expr := fmt.Sprintf(
		`(?m)^(\s*pub\s+const\s+%s\s*:\s*&(?:'static\s*)?str\s*=\s*")([^"]*)("\s*;)`,
		regexp.QuoteMeta(name),
	)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile declaration pattern for %s: %w", name, err)
	}

	l.patterns[name] = re
	return re, nil
}

// RustIntConstLocator locates Rust integer-constant declarations of the form
//
//	pub const NAME: u32 = 6;
//
// for any of the fixed-width or size integer types. Only the numeric literal
// span is reported.
type RustIntConstLocator struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewRustIntConstLocator creates a locator for Rust integer constants.
func NewRustIntConstLocator() *RustIntConstLocator {
	return &RustIntConstLocator{patterns: make(map[string]*regexp.Regexp)}
}

// Locate implements DeclarationLocator.
func (l *RustIntConstLocator) Locate(src []byte, name string) ([]Span, error) {
	re, err := l.pattern(name)
	if err != nil {
		return nil, err
	}

	matches := re.FindAllSubmatchIndex(src, -1)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{Start: m[4], End: m[5]})
	}
	return spans, nil
}

func (l *RustIntConstLocator) pattern(name string) (*regexp.Regexp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if re, ok := l.patterns[name]; ok {
		return re, nil
	}

	expr := fmt.Sprintf(
		`(?m)^(\s*pub\s+const\s+%s\s*:\s*[iu](?:8|16|32|64|128|size)\s*=\s*)(\d+)(\s*;)`,
		regexp.QuoteMeta(name),
	)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile declaration pattern for %s: %w", name, err)
	}

	l.patterns[name] = re
	return re, nil
}
