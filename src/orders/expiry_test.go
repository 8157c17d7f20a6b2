package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		input string
		want  time.Duration
	}{
		{"1m", time.Minute},
		{"60m", 60 * time.Minute},
		{"1h", time.Hour},
		{"24h", 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			got, err := ParseExpiry(c.input)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseExpiryRejectsOutOfBounds(t *testing.T) {
	for _, input := range []string{
		"", "m", "10", "0m", "61m", "0h", "25h", "0d", "31d",
		"-5m", "1.5h", "10w", "10 m", "m10",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseExpiry(input)
			assert.ErrorIs(t, err, ErrInvalidExpiry)
			assert.False(t, IsValidExpiry(input))
		})
	}
}
