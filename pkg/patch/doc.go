// Package patch implements the declarative source-patch engine used by the
// release flows. It locates typed string-constant declarations in generated
// Rust sources through structural pattern matching (no AST), rewrites only
// the literal value to keep diffs minimal, and knows how to replace or
// insert verification-key hash blocks relative to their declaration family.
package patch
