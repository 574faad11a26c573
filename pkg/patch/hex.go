package patch

import (
	"fmt"
	"strings"
)

// NormalizeHex coerces a configuration value to a 0x-prefixed hexadecimal
// string. String inputs are trimmed of surrounding whitespace and passed
// through with their case preserved; integer inputs are formatted in lower
// case, zero-padded to width hex digits when width is positive (40 for
// 20-byte addresses, 64 for 32-byte keys). Any other type fails with
// ErrorKindInvalidValueType.
//
// YAML readers resolve bare 0x-prefixed scalars to integers; addresses and
// keys arriving in numeric form must be re-padded on the way out.
func NormalizeHex(value interface{}, width int) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case int:
		return formatSignedHex(int64(v), width)
	case int64:
		return formatSignedHex(v, width)
	case uint64:
		return formatHex(v, width), nil
	default:
		return "", NewInvalidValueTypeError(value)
	}
}

func formatSignedHex(v int64, width int) (string, error) {
	if v < 0 {
		return "", &PatchError{
			Kind:    ErrorKindInvalidValueType,
			Message: fmt.Sprintf("negative value %d cannot be hex-normalized", v),
		}
	}
	return formatHex(uint64(v), width), nil
}

func formatHex(v uint64, width int) string {
	if width > 0 {
		return fmt.Sprintf("0x%0*x", width, v)
	}
	return fmt.Sprintf("0x%x", v)
}
