// Package fetch retrieves and stages release artifacts: HTTP downloads
// with checksum verification, bounded parallel batches, workspace file
// operations, and waiting for externally produced paths.
package fetch
