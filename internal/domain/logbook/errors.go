package logbook

import (
	"fmt"

	"jiskefet/internal/errs"
)

var (
	ErrRunNotFound       = fmt.Errorf("run %w", errs.ErrNotFound)
	ErrFlpRoleNotFound   = fmt.Errorf("flp role %w", errs.ErrNotFound)
	ErrDetectorNotFound  = fmt.Errorf("detector %w", errs.ErrNotFound)
	ErrLogNotFound       = fmt.Errorf("log %w", errs.ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", errs.ErrNotFound)
	ErrSubSystemNotFound = fmt.Errorf("subsystem %w", errs.ErrNotFound)

	ErrRunExists      = fmt.Errorf("run already exists: %w", errs.ErrConflict)
	ErrRunEnded       = fmt.Errorf("run already ended: %w", errs.ErrConflict)
	ErrFlpRoleExists  = fmt.Errorf("flp role already exists: %w", errs.ErrConflict)
	ErrDetectorExists = fmt.Errorf("detector already registered: %w", errs.ErrConflict)

	ErrInvalidRunQuality = fmt.Errorf("invalid run quality: %w", errs.ErrValidation)
	ErrInvalidLogSubtype = fmt.Errorf("invalid log subtype: %w", errs.ErrValidation)
	ErrInvalidLogOrigin  = fmt.Errorf("invalid log origin: %w", errs.ErrValidation)
	ErrEmptyPatch        = fmt.Errorf("patch has no fields: %w", errs.ErrValidation)
	ErrNegativeCounter   = fmt.Errorf("counter must not be negative: %w", errs.ErrValidation)
	ErrEmptyAttachment   = fmt.Errorf("attachment payload is empty: %w", errs.ErrValidation)
	ErrUnknownLog        = fmt.Errorf("attachment log does not resolve: %w", errs.ErrValidation)
)
