package dashboard

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParseBlockoutDates decodes a therapist's stored blockout column into a
// sorted, de-duplicated list of calendar-day strings.
//
// Two encodings exist in the wild: a plain JSON array of date strings, and an
// older double-encoded form where the column holds a JSON string whose content
// is itself the JSON array. Both decode here. A column that matches neither
// yields an empty list plus the parse error so callers can log it; individual
// entries that are not valid dates are dropped.
func ParseBlockoutDates(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}

	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		// Legacy rows hold the array serialized twice.
		var inner string
		if err2 := json.Unmarshal(raw, &inner); err2 != nil {
			return []string{}, fmt.Errorf("blockout dates: %w", err)
		}
		if err2 := json.Unmarshal([]byte(inner), &dates); err2 != nil {
			return []string{}, fmt.Errorf("blockout dates (legacy encoding): %w", err2)
		}
	}

	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		day, ok := parseDay(d)
		if !ok {
			continue
		}
		key := day.Format(DateLayout)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// EncodeBlockoutDates serializes a blockout list as a plain JSON array,
// sorted and de-duplicated. Always writes the modern single-encoded form.
func EncodeBlockoutDates(dates []string) ([]byte, error) {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return json.Marshal(out)
}
