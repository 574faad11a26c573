package toolchain

import (
	"fmt"
	"regexp"
)

// vkHashPattern matches the verification key hash line printed by the
// wrapper tooling.
var vkHashPattern = regexp.MustCompile(`hash of (0x[0-9a-fA-F]{64})`)

// ExtractVKHash pulls the 32-byte verification key hash out of wrapper
// tool output.
func ExtractVKHash(output string) (string, error) {
	m := vkHashPattern.FindStringSubmatch(output)
	if m == nil {
		return "", fmt.Errorf("no verification key hash in output")
	}
	return m[1], nil
}
