// Package toolchain knows which protocol releases this tool supports and
// what each release pins: source refs, protocol version numbers, and the
// local tool versions the release flows are tested against.
package toolchain
