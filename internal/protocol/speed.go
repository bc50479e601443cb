package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// CleanSpeeds is the vendor suction-power vocabulary, indexed by the
// wire value the device reports.
var CleanSpeeds = []string{"quiet", "standard", "boost", "turbo"}

// defaultCleanSpeed is reported when the raw value cannot be resolved.
const defaultCleanSpeed = "standard"

// ResolveCleanSpeed maps a raw clean-speed data point to its vocabulary
// name. Devices report the value in several shapes depending on firmware:
// a bare index, a single-element list holding the index, a digit string,
// or already the name itself. Unresolvable values fall back to
// "standard".
func ResolveCleanSpeed(raw any) string {
	switch v := raw.(type) {
	case nil:
		return defaultCleanSpeed
	case []any:
		if len(v) == 0 {
			return defaultCleanSpeed
		}
		return ResolveCleanSpeed(v[0])
	case float64:
		return speedByIndex(int(v))
	case int:
		return speedByIndex(v)
	case uint32:
		return speedByIndex(int(v))
	case string:
		if idx, err := strconv.Atoi(v); err == nil {
			return speedByIndex(idx)
		}
		name := strings.ToLower(v)
		for _, s := range CleanSpeeds {
			if s == name {
				return s
			}
		}
		return defaultCleanSpeed
	default:
		return defaultCleanSpeed
	}
}

func speedByIndex(idx int) string {
	if idx < 0 || idx >= len(CleanSpeeds) {
		return defaultCleanSpeed
	}
	return CleanSpeeds[idx]
}

// CleanSpeedIndex resolves a speed name (case-insensitive) to its wire
// value. Unknown names return ErrUnknownCleanSpeed.
func CleanSpeedIndex(name string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, s := range CleanSpeeds {
		if s == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCleanSpeed, name)
}
