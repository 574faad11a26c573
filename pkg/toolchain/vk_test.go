package toolchain

import (
	"strings"
	"testing"
)

func TestExtractVKHash(t *testing.T) {
	hash := "0x" + strings.Repeat("ab12", 16)
	output := strings.Join([]string{
		"Compiling zkos-wrapper v0.6.0",
		"Generating SNARK verification key...",
		"Computed hash of " + hash + " for the final key",
		"Done in 42.0s",
	}, "\n")

	got, err := ExtractVKHash(output)
	if err != nil {
		t.Fatalf("ExtractVKHash failed: %v", err)
	}
	if got != hash {
		t.Errorf("hash = %q, want %q", got, hash)
	}
}

func TestExtractVKHash_NoHash(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"empty", ""},
		{"no marker", "0x" + strings.Repeat("ab", 32)},
		{"hash too short", "hash of 0xab12"},
		{"not hex", "hash of 0x" + strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExtractVKHash(tt.output); err == nil {
				t.Error("ExtractVKHash accepted output without a valid hash")
			}
		})
	}
}
