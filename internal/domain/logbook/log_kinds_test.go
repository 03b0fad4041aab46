package logbook

import (
	"errors"
	"testing"
)

func TestNormalizeSubtypeAndOrigin(t *testing.T) {
	if got, err := NormalizeSubtype(""); err != nil || got != SubtypeRun {
		t.Fatalf("NormalizeSubtype(\"\") = %q, %v", got, err)
	}
	if got, err := NormalizeSubtype("Announcement"); err != nil || got != SubtypeAnnouncement {
		t.Fatalf("NormalizeSubtype(Announcement) = %q, %v", got, err)
	}
	if _, err := NormalizeSubtype("rumour"); !errors.Is(err, ErrInvalidLogSubtype) {
		t.Fatalf("NormalizeSubtype(rumour) error = %v", err)
	}

	if got, err := NormalizeOrigin(""); err != nil || got != OriginHuman {
		t.Fatalf("NormalizeOrigin(\"\") = %q, %v", got, err)
	}
	if _, err := NormalizeOrigin("robot"); !errors.Is(err, ErrInvalidLogOrigin) {
		t.Fatalf("NormalizeOrigin(robot) error = %v", err)
	}
}

func TestNormalizePage(t *testing.T) {
	page := NormalizePage(0, 0)
	if page.Size != DefaultPageSize || page.Number != 1 || page.Offset() != 0 {
		t.Fatalf("NormalizePage(0,0) = %+v", page)
	}
	page = NormalizePage(10000, 3)
	if page.Size != MaxPageSize || page.Offset() != 2*MaxPageSize {
		t.Fatalf("NormalizePage(10000,3) = %+v offset=%d", page, page.Offset())
	}
	if NormalizeDirection("desc", "ASC") != "DESC" || NormalizeDirection("sideways", "ASC") != "ASC" {
		t.Fatalf("NormalizeDirection() mismatch")
	}
}
