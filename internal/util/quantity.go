package util

import (
	"fmt"
	"math"
	"strings"
)

// ParseSize converts a size string (e.g., "10M", "512K", "1GiB") to bytes.
// If the string is empty, it returns 0.
func ParseSize(size string) (int64, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, nil
	}

	var value float64
	var unit string

	n, err := fmt.Sscanf(size, "%f%s", &value, &unit)
	if err != nil && n == 0 {
		return 0, fmt.Errorf("invalid size value: %s", size)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid size value: %s", size)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative size value: %s", size)
	}

	multiplier := 1.0
	if n > 1 {
		switch unit = strings.ToUpper(strings.TrimSpace(unit)); unit {
		case "B":
		case "K", "KB", "KI", "KIB":
			multiplier = 1024
		case "M", "MB", "MI", "MIB":
			multiplier = 1024 * 1024
		case "G", "GB", "GI", "GIB":
			multiplier = 1024 * 1024 * 1024
		default:
			return 0, fmt.Errorf("unknown size unit: %s", unit)
		}
	}

	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	bytes := value * multiplier
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size value too large: %s", size)
	}
	return int64(bytes), nil
}
