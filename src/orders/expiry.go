package orders

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidExpiry is returned when an expiry string falls outside the
// accepted grammar or bounds.
var ErrInvalidExpiry = errors.New("invalid expiry, valid options are m (minutes, up to 60), h (hours, up to 24) and d (days, up to 30)")

var expiryPattern = regexp.MustCompile(`^([0-9]+)([mhd])$`)

// ParseExpiry converts an expiry string such as "60m", "24h" or "30d" into
// a duration. Bounds: 1-60 minutes, 1-24 hours, 1-30 days.
func ParseExpiry(expiry string) (time.Duration, error) {
	m := expiryPattern.FindStringSubmatch(expiry)
	if m == nil {
		return 0, ErrInvalidExpiry
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, ErrInvalidExpiry
	}

	switch m[2] {
	case "m":
		if n < 1 || n > 60 {
			return 0, ErrInvalidExpiry
		}
		return time.Duration(n) * time.Minute, nil
	case "h":
		if n < 1 || n > 24 {
			return 0, ErrInvalidExpiry
		}
		return time.Duration(n) * time.Hour, nil
	default:
		if n < 1 || n > 30 {
			return 0, ErrInvalidExpiry
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
}

// IsValidExpiry reports whether the string would be accepted by ParseExpiry.
func IsValidExpiry(expiry string) bool {
	_, err := ParseExpiry(expiry)
	return err == nil
}
