package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestFieldError_Unwrap(t *testing.T) {
	err := NewFieldError(ErrInvalidRecommendation, "lat", "must be between -90 and 90")
	if !errors.Is(err, ErrInvalidRecommendation) {
		t.Fatal("expected errors.Is to match sentinel")
	}

	var fe *FieldError
	if !errors.As(fmt.Errorf("create: %w", err), &fe) {
		t.Fatal("expected errors.As to find FieldError through wrapping")
	}
	if fe.Field != "lat" {
		t.Errorf("field = %q, want lat", fe.Field)
	}
	if got, want := err.Error(), "invalid recommendation: lat must be between -90 and 90"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
