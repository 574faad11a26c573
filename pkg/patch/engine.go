package patch

import (
	"fmt"
	"os"
	"regexp"
)

// hashBlockFamily matches any doc-comment + V<N>_VK_HASH declaration block,
// regardless of index. The last match in file order is the insertion anchor.
var hashBlockFamily = regexp.MustCompile(`[ \t]*///[^\n]*\n[ \t]*const\s+V\d+_VK_HASH:[^;]*;`)

// Engine applies declaration updates to on-disk source files. It operates
// purely on text: files are read whole, rewritten in memory, and written
// back only when the operation succeeded. Sequential updates of several
// declarations are not transactional; earlier writes stay applied when a
// later update fails.
type Engine struct {
	locator DeclarationLocator
}

// NewEngine creates a patch engine using the given locator. A nil locator
// defaults to the Rust string-constant dialect.
func NewEngine(locator DeclarationLocator) *Engine {
	if locator == nil {
		locator = NewRustConstLocator()
	}
	return &Engine{locator: locator}
}

// UpdateDeclaration rewrites the value literal of the declaration named name
// in the file at path. The declaration must match exactly once; zero matches
// fail with ErrorKindPatternNotMatched, never a silent no-op. The file is
// left untouched on any failure.
func (e *Engine) UpdateDeclaration(path, name, value string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return NewFileNotFoundError(path, err)
	}

	spans, err := e.locator.Locate(src, name)
	if err != nil {
		return err
	}

	switch len(spans) {
	case 0:
		return NewPatternNotMatchedError(path, name, "declaration not found")
	case 1:
		// The single expected occurrence.
	default:
		return NewPatternNotMatchedError(path, name,
			fmt.Sprintf("declaration matched %d times, want exactly 1", len(spans)))
	}

	sp := spans[0]
	out := make([]byte, 0, len(src)-(sp.End-sp.Start)+len(value))
	out = append(out, src[:sp.Start]...)
	out = append(out, value...)
	out = append(out, src[sp.End:]...)

	return writeBack(path, out)
}

// UpsertHashBlock replaces the doc-comment + declaration block for
// V<index>_VK_HASH with a freshly formatted block carrying hash and the
// provenance comment. When no block for that index exists, the new block is
// inserted immediately after the last block of the V<N>_VK_HASH family,
// preceded by a newline. A file with no family blocks at all has no
// deterministic anchor and fails with ErrorKindNoAnchorFound.
func (e *Engine) UpsertHashBlock(path string, index int, hash, comment string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return NewFileNotFoundError(path, err)
	}

	block := FormatHashBlock(index, hash, comment)

	existing, err := regexp.Compile(fmt.Sprintf(
		`[ \t]*///[^\n]*\n[ \t]*const\s+V%d_VK_HASH:\s*&'static\s*str\s*=\s*\n[ \t]*"0x[0-9a-fA-F]+"\s*;`,
		index,
	))
	if err != nil {
		return fmt.Errorf("failed to compile hash block pattern for V%d: %w", index, err)
	}

	var out []byte
	if loc := existing.FindIndex(src); loc != nil {
		out = make([]byte, 0, len(src)-(loc[1]-loc[0])+len(block))
		out = append(out, src[:loc[0]]...)
		out = append(out, block...)
		out = append(out, src[loc[1]:]...)
	} else {
		anchors := hashBlockFamily.FindAllIndex(src, -1)
		if len(anchors) == 0 {
			return NewNoAnchorFoundError(path, fmt.Sprintf("V%d_VK_HASH", index))
		}
		at := anchors[len(anchors)-1][1]
		out = make([]byte, 0, len(src)+len(block)+1)
		out = append(out, src[:at]...)
		out = append(out, '\n')
		out = append(out, block...)
		out = append(out, src[at:]...)
	}

	return writeBack(path, out)
}

// FormatHashBlock renders a verification-key hash block for the given family
// index: a doc comment with the provenance line, then the declaration with
// the hash literal on its own continuation line.
func FormatHashBlock(index int, hash, comment string) string {
	return fmt.Sprintf("    /// %s\n    const V%d_VK_HASH: &'static str =\n        %q;", comment, index, hash)
}

// writeBack persists the rewritten file, keeping the existing permission
// bits when the file already exists.
func writeBack(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
