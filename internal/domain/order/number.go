package order

import (
	"fmt"
	"strconv"
)

// FormatNumber renders the human readable order code, e.g. BAR000042.
func FormatNumber(prefix string, seq int64) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty prefix", ErrIdentityGenerationFailed)
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: sequence %d is not positive", ErrIdentityGenerationFailed, seq)
	}
	return fmt.Sprintf("%s%06d", prefix, seq), nil
}

// NumberSequence extracts the trailing sequence of a formatted order number.
// It reports false when number carries no positive trailing digits.
func NumberSequence(number string) (int64, bool) {
	i := len(number)
	for i > 0 && number[i-1] >= '0' && number[i-1] <= '9' {
		i--
	}
	seq, err := strconv.ParseInt(number[i:], 10, 64)
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}
