package errtyp

import (
	"errors"
	"testing"
)

func TestWrapPreservesKind(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(Cache, base, "store failed")
	if !Is(err, Cache) {
		t.Errorf("expected Cache kind, got %v", err)
	}
	if Is(err, Render) {
		t.Errorf("expected not Render kind")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(JpegEncode, "quality %d out of range", 200)
	if err.Error() != "JpegEncode: quality 200 out of range" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
