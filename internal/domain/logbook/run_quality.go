package logbook

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultRunQualities is the only member modeled by the reference schema.
// Deployments extend it through configuration.
var DefaultRunQualities = []string{"test"}

// QualitySet holds the accepted run_quality values of detectors_in_run.
type QualitySet struct {
	values map[string]struct{}
}

func NewQualitySet(values []string) QualitySet {
	if len(values) == 0 {
		values = DefaultRunQualities
	}

	set := QualitySet{values: make(map[string]struct{}, len(values))}
	for _, raw := range values {
		value := strings.ToLower(strings.TrimSpace(raw))
		if value == "" {
			continue
		}
		set.values[value] = struct{}{}
	}
	return set
}

// Normalize returns the canonical form of quality or ErrInvalidRunQuality.
func (s QualitySet) Normalize(quality string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(quality))
	if _, ok := s.values[value]; !ok {
		return "", fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidRunQuality, quality, strings.Join(s.Values(), ","))
	}
	return value, nil
}

func (s QualitySet) Values() []string {
	out := make([]string, 0, len(s.values))
	for value := range s.values {
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
