package errs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not found wrapped", err: Wrap(fmt.Errorf("run %w", ErrNotFound), "find run"), want: KindNotFound},
		{name: "conflict", err: fmt.Errorf("flp role %w", ErrConflict), want: KindConflict},
		{name: "validation", err: Validationf("flp name is required"), want: KindValidation},
		{name: "persistence", err: Persistence(errors.New("disk I/O error"), "insert log"), want: KindPersistence},
		{name: "unclassified", err: context.DeadlineExceeded, want: KindPersistence},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := KindOf(testCase.err); got != testCase.want {
				t.Fatalf("KindOf() = %q, want %q", got, testCase.want)
			}
		})
	}
}

func TestPersistenceKeepsExistingKind(t *testing.T) {
	err := Persistence(fmt.Errorf("run %w", ErrNotFound), "lock run")
	if errors.Is(err, ErrPersistence) {
		t.Fatalf("Persistence() reclassified a not-found error: %v", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Persistence() lost not-found kind: %v", err)
	}
	if Persistence(nil, "noop") != nil {
		t.Fatalf("Persistence(nil) != nil")
	}
}

func TestPersistenceUnwrapsCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := Persistence(cause, "update run totals")
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(cause) = false")
	}
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("errors.Is(ErrPersistence) = false")
	}
	if err.Error() != "update run totals: database is locked" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestPersistenceCapturesStackOnce(t *testing.T) {
	err := Persistence(errors.New("disk full"), "insert attachment")
	var stackErr *StackError
	if !errors.As(err, &stackErr) || len(stackErr.Stack()) == 0 {
		t.Fatalf("Persistence() has no stack: %v", err)
	}

	outer := Persistence(Wrap(err, "create attachment"), "commit")
	stacks := 0
	for e := outer; e != nil; e = errors.Unwrap(e) {
		if _, ok := e.(*StackError); ok {
			stacks++
		}
	}
	if stacks != 1 {
		t.Fatalf("stack count = %d, want 1", stacks)
	}

	value := Loggable(err).LogValue()
	found := false
	for _, attr := range value.Group() {
		if attr.Key == "stack" && attr.Value.Kind() == slog.KindString && attr.Value.String() != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Loggable() attrs = %v, want stack", value.Group())
	}
}

func TestErrorChainStrings(t *testing.T) {
	err := Wrap(Wrapf(errors.New("root"), "step %d", 2), "outer")
	chain := ErrorChainStrings(err)
	if len(chain) != 3 {
		t.Fatalf("len(chain) = %d, want 3: %v", len(chain), chain)
	}
	if chain[2] != "root" {
		t.Fatalf("chain[2] = %q, want root", chain[2])
	}
}
