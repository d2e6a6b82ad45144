package utils

import (
	"strconv"
	"strings"
)

// CheckboxOn is what browsers submit for a checked checkbox without a value attribute.
const CheckboxOn = "on"

func Checked(raw string) bool {
	return raw == CheckboxOn
}

// ParseOptionalInt parses raw as a base-10 integer. Blank input yields 0.
func ParseOptionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
