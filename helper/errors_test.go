package helper

import (
	"errors"
	"testing"
)

func TestTaggedErrorFormat(t *testing.T) {
	err := badP2P(errors.New("dial refused"))
	if err.Error() != "libp2p error: dial refused" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}

func TestTaggedErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := badRPC(inner)

	var tagged *TaggedError
	if !errors.As(err, &tagged) {
		t.Fatal("expected errors.As to find the TaggedError")
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to unwrap to the original error")
	}
}

func TestTaggedErrorNilDetail(t *testing.T) {
	err := &TaggedError{Tag: tagLibp2p}
	if err.Error() != tagLibp2p {
		t.Fatalf("expected bare tag string, got %q", err.Error())
	}
}
