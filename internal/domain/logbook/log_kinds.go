package logbook

import (
	"fmt"
	"strings"
)

const (
	SubtypeRun          = "run"
	SubtypeSubsystem    = "subsystem"
	SubtypeAnnouncement = "announcement"
	SubtypeIntervention = "intervention"
	SubtypeComment      = "comment"

	OriginHuman   = "human"
	OriginProcess = "process"
)

var allowedSubtypes = map[string]struct{}{
	SubtypeRun:          {},
	SubtypeSubsystem:    {},
	SubtypeAnnouncement: {},
	SubtypeIntervention: {},
	SubtypeComment:      {},
}

var allowedOrigins = map[string]struct{}{
	OriginHuman:   {},
	OriginProcess: {},
}

// NormalizeSubtype defaults an empty subtype to "run".
func NormalizeSubtype(subtype string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(subtype))
	if value == "" {
		return SubtypeRun, nil
	}
	if _, ok := allowedSubtypes[value]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidLogSubtype, subtype)
	}
	return value, nil
}

// NormalizeOrigin defaults an empty origin to "human".
func NormalizeOrigin(origin string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(origin))
	if value == "" {
		return OriginHuman, nil
	}
	if _, ok := allowedOrigins[value]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidLogOrigin, origin)
	}
	return value, nil
}
