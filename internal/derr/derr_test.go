package derr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Geometryf("line source has zero length")
	if KindOf(err) != KindGeometry {
		t.Errorf("expected geometry kind, got %q", KindOf(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Errorf("plain errors must be unclassified")
	}
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	inner := Validationf("bad column set")
	outer := fmt.Errorf("resolving sources: %w", inner)
	if !IsKind(outer, KindValidation) {
		t.Errorf("kind must survive fmt.Errorf wrapping")
	}
	if IsKind(outer, KindConfiguration) {
		t.Errorf("unexpected configuration kind")
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(KindValidation, cause, "sources CSV %s is malformed", "s.csv")
	if !errors.Is(err, cause) {
		t.Errorf("wrapped cause must be reachable via errors.Is")
	}
	want := "validation: sources CSV s.csv is malformed: unexpected EOF"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
