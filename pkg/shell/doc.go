// Package shell executes external commands for release runs: foreground
// commands with streamed output and failure tails, background daemons with
// graceful shutdown, and tool version probes.
package shell
