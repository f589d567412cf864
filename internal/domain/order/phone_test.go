package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	valid := []struct {
		raw  string
		want string
	}{
		{"06 12 34 56 78", "0612345678"},
		{"0612345678", "0612345678"},
		{"06-12-34-56-78", "0612345678"},
		{"06.12.34.56.78", "0612345678"},
		{"01 23 45 67 89", "0123456789"},
		{"+33 6 12 34 56 78", "+33612345678"},
		{"+33612345678", "+33612345678"},
		{"0033612345678", "0033612345678"},
	}
	for _, tt := range valid {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []string{
		"123456",          // too short
		"",                // empty
		"06123456789",     // too long
		"1612345678",      // national number must start with 0
		"+33012345678",    // international first digit cannot be 0
		"0033012345678",   // same via 0033 prefix
		"+3361234567",     // too few digits after prefix
		"06 12 34 56 7a",  // letters
		"06/12/34/56/78",  // unsupported separator
		"(06) 12 34 5678", // parentheses
	}
	for _, raw := range invalid {
		t.Run("invalid "+raw, func(t *testing.T) {
			_, err := NormalizePhone(raw)
			require.ErrorIs(t, err, ErrInvalidPhone)
		})
	}
}
