package mpterr_test

import (
	"errors"
	"testing"

	"github.com/cirdeirf/mpt/mpterr"
)

func TestErrorFormatting(t *testing.T) {
	err := mpterr.Parse(7, mpterr.ReasonBadWeight, "cannot parse weight %q", "abc")
	want := `ParseError: line 7: BadWeight: cannot parse weight "abc"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsMatchesKindAlone(t *testing.T) {
	err := mpterr.Parse(3, mpterr.ReasonMalformedLine, "bad line")
	if !errors.Is(err, &mpterr.Error{Kind: mpterr.ParseErr}) {
		t.Error("expected errors.Is to match on Kind alone")
	}
	if errors.Is(err, mpterr.ErrNoAcceptingTree) {
		t.Error("expected errors.Is to not match a different Kind")
	}
}

func TestIsMatchesReasonWhenSpecified(t *testing.T) {
	err := mpterr.Parse(3, mpterr.ReasonMalformedLine, "bad line")
	if !errors.Is(err, mpterr.Parse(0, mpterr.ReasonMalformedLine, "")) {
		t.Error("expected errors.Is to match on Kind+Reason")
	}
	if errors.Is(err, mpterr.Parse(0, mpterr.ReasonBadWeight, "")) {
		t.Error("expected errors.Is to reject a mismatched Reason")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("underlying")
	err := mpterr.Io(cause, "reading file")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to see through to the wrapped cause")
	}
}

func TestNoAcceptingTreeSentinel(t *testing.T) {
	err := mpterr.ErrNoAcceptingTree
	if !errors.Is(err, mpterr.ErrNoAcceptingTree) {
		t.Error("expected the sentinel to match itself")
	}
}
