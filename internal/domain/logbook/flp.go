package logbook

import "fmt"

// FlpCounters are the cumulative readout values reported by one FLP for one run.
type FlpCounters struct {
	BytesReadOut          int64
	NumberOfSubtimeframes int64
	NumberOfTimeframes    int64
}

// FlpPatch carries the fields of a report. A nil field is left untouched.
type FlpPatch struct {
	BytesReadOut          *int64
	NumberOfSubtimeframes *int64
	NumberOfTimeframes    *int64
}

func (p FlpPatch) IsEmpty() bool {
	return p.BytesReadOut == nil && p.NumberOfSubtimeframes == nil && p.NumberOfTimeframes == nil
}

// Validate reports whether the patch could be applied to any stored counters.
func (p FlpPatch) Validate() error {
	_, err := p.Apply(FlpCounters{})
	return err
}

// Apply replaces the stored counters with the reported cumulative values.
// Reports are absolute, so a retried or reordered report never double counts.
func (p FlpPatch) Apply(current FlpCounters) (FlpCounters, error) {
	if p.IsEmpty() {
		return current, ErrEmptyPatch
	}

	next := current
	if p.BytesReadOut != nil {
		if *p.BytesReadOut < 0 {
			return current, fmt.Errorf("%w: bytesReadOut=%d", ErrNegativeCounter, *p.BytesReadOut)
		}
		next.BytesReadOut = *p.BytesReadOut
	}
	if p.NumberOfSubtimeframes != nil {
		if *p.NumberOfSubtimeframes < 0 {
			return current, fmt.Errorf("%w: numberOfSubtimeframes=%d", ErrNegativeCounter, *p.NumberOfSubtimeframes)
		}
		next.NumberOfSubtimeframes = *p.NumberOfSubtimeframes
	}
	if p.NumberOfTimeframes != nil {
		if *p.NumberOfTimeframes < 0 {
			return current, fmt.Errorf("%w: numberOfTimeframes=%d", ErrNegativeCounter, *p.NumberOfTimeframes)
		}
		next.NumberOfTimeframes = *p.NumberOfTimeframes
	}
	return next, nil
}

// RunTotals is the run-level summary derived from all FlpRoles of a run.
type RunTotals struct {
	NumberOfFlps          int64
	BytesReadOut          int64
	NumberOfSubtimeframes int64
	NumberOfTimeframes    int64
}
