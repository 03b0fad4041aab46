package logbook

import (
	"errors"
	"reflect"
	"testing"
)

func TestQualitySetDefaultsToTest(t *testing.T) {
	set := NewQualitySet(nil)

	got, err := set.Normalize(" TEST ")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != "test" {
		t.Fatalf("Normalize() = %q, want test", got)
	}

	if _, err := set.Normalize("good"); !errors.Is(err, ErrInvalidRunQuality) {
		t.Fatalf("Normalize(good) error = %v, want ErrInvalidRunQuality", err)
	}
}

func TestQualitySetConfigured(t *testing.T) {
	set := NewQualitySet([]string{"good", "bad", " ", "test"})
	if !reflect.DeepEqual(set.Values(), []string{"bad", "good", "test"}) {
		t.Fatalf("Values() = %v", set.Values())
	}
	if _, err := set.Normalize("bad"); err != nil {
		t.Fatalf("Normalize(bad) error = %v", err)
	}
}
