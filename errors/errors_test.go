package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestStreamError_Error(t *testing.T) {
	err := BackPressure("buffer full")
	if !strings.Contains(err.Error(), "BACK_PRESSURE") {
		t.Errorf("expected code in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "buffer full") {
		t.Errorf("expected message, got %q", err.Error())
	}
}

func TestStreamError_Unwrap(t *testing.T) {
	cause := stderrors.New("root")
	err := CallbackFailure(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestHasCode(t *testing.T) {
	if !HasCode(InvalidRequest(), CodeInvalidRequest) {
		t.Error("expected CodeInvalidRequest")
	}
	if HasCode(InvalidRequest(), CodeBackPressure) {
		t.Error("unexpected CodeBackPressure")
	}
	if !IsBackPressure(BackPressure("full")) {
		t.Error("expected IsBackPressure")
	}
}

func TestComposite_Flattens(t *testing.T) {
	a := stderrors.New("a")
	b := stderrors.New("b")
	c := stderrors.New("c")

	inner := Composite(a, b)
	outer := Composite(inner, c)

	if len(outer.Causes) != 3 {
		t.Fatalf("expected 3 flattened causes, got %d", len(outer.Causes))
	}
	for _, cause := range []error{a, b, c} {
		if !stderrors.Is(outer, cause) {
			t.Errorf("expected errors.Is to find %v", cause)
		}
	}
}

func TestComposite_SkipsNil(t *testing.T) {
	a := stderrors.New("a")
	ce := Composite(nil, a, nil)
	if len(ce.Causes) != 1 {
		t.Errorf("expected 1 cause, got %d", len(ce.Causes))
	}
}

func TestComposite_Error(t *testing.T) {
	ce := Composite(stderrors.New("x"), stderrors.New("y"))
	msg := ce.Error()
	if !strings.Contains(msg, "2 failures") {
		t.Errorf("expected count in message, got %q", msg)
	}
}
