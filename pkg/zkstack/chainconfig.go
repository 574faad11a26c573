package zkstack

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetPath replaces the scalar at a dotted path inside a parsed document,
// leaving every other node untouched. The full path must already exist;
// this edits configs, it does not grow them.
func SetPath(doc *yaml.Node, path, value string) error {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return fmt.Errorf("empty document")
		}
		node = node.Content[0]
	}

	segments := strings.Split(path, ".")
	for i, segment := range segments {
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", strings.Join(segments[:i], "."))
		}

		var next *yaml.Node
		for j := 0; j+1 < len(node.Content); j += 2 {
			if node.Content[j].Value == segment {
				next = node.Content[j+1]
				break
			}
		}
		if next == nil {
			return fmt.Errorf("path %s not found (missing %q)", path, segment)
		}
		node = next
	}

	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("path %s is not a scalar", path)
	}
	node.SetString(value)
	return nil
}

// EditDocument applies a set of dotted-path edits to a YAML file in place.
// Comments, key order, and untouched values survive the rewrite. Edits are
// applied in path order; the first failure aborts before anything is
// written.
func EditDocument(path string, edits map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	paths := make([]string, 0, len(edits))
	for p := range edits {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if err := SetPath(&doc, p, edits[p]); err != nil {
			return fmt.Errorf("failed to edit %s: %w", path, err)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
