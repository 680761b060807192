package jbig2

import "testing"

type fakeEncoder struct {
	result []byte
	err    error
}

func (f fakeEncoder) EncodeGenericRegion(bits []byte, width, height int, opts Options) ([]byte, error) {
	return f.result, f.err
}

func TestEncodeValidatesDimensions(t *testing.T) {
	_, err := Encode(fakeEncoder{result: []byte("x")}, []byte{0xFF}, 4, 0)
	if err == nil {
		t.Fatal("expected error for zero height")
	}
}

func TestEncodeValidatesBufferLength(t *testing.T) {
	// 4x4 at 1bpp needs 1 byte per row, 4 bytes total.
	_, err := Encode(fakeEncoder{result: []byte("x")}, []byte{0xFF, 0xFF}, 4, 4)
	if err == nil {
		t.Fatal("expected error for wrong buffer length")
	}
}

func TestEncodeRejectsEmptyResult(t *testing.T) {
	_, err := Encode(fakeEncoder{result: nil}, []byte{0xFF, 0xFF, 0xFF, 0xFF}, 4, 4)
	if err == nil {
		t.Fatal("expected error for empty encoder result")
	}
}

func TestEncodeSucceeds(t *testing.T) {
	out, err := Encode(fakeEncoder{result: []byte{1, 2, 3}}, []byte{0xFF, 0xFF, 0xFF, 0xFF}, 4, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("expected 3-byte result, got %d", len(out))
	}
}
