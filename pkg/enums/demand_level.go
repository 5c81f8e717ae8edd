package enums

import "fmt"

// DemandLevel grades market interest in a code type.
type DemandLevel string

const (
	DemandLevelHigh   DemandLevel = "high"
	DemandLevelMedium DemandLevel = "medium"
	DemandLevelLow    DemandLevel = "low"
)

var validDemandLevels = []DemandLevel{
	DemandLevelHigh,
	DemandLevelMedium,
	DemandLevelLow,
}

// IsValid reports whether the value matches a known demand level.
func (d DemandLevel) IsValid() bool {
	for _, candidate := range validDemandLevels {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDemandLevel converts raw input into DemandLevel.
func ParseDemandLevel(value string) (DemandLevel, error) {
	for _, candidate := range validDemandLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid demand level %q", value)
}
