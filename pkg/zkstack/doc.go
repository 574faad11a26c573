// Package zkstack reads and edits the YAML configuration documents the
// zkstack CLI writes for a local ecosystem: wallet key files, deployed
// contract registries, and per-chain configs. Edits go through the
// yaml.Node API; untouched lines, comments, and key order survive.
package zkstack
