// Package stores persists run history. Every protoctl invocation writes a
// run row at start and finish plus one row per completed section, all into
// a SQLite database under the workspace. Past releases stay inspectable
// with `protoctl history`.
package stores
