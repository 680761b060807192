package jpegenc

import "testing"

func TestEncodeRejectsBadQuality(t *testing.T) {
	pix := make([]byte, 4*4*3)
	if _, err := Encode(pix, 4, 4, 3, 0); err == nil {
		t.Fatal("expected error for quality 0")
	}
	if _, err := Encode(pix, 4, 4, 3, 101); err == nil {
		t.Fatal("expected error for quality 101")
	}
}

func TestEncodeRejectsBadChannels(t *testing.T) {
	pix := make([]byte, 4*4*2)
	if _, err := Encode(pix, 4, 4, 2, 80); err == nil {
		t.Fatal("expected error for unsupported channel count")
	}
}

func TestEncodeRejectsLengthMismatch(t *testing.T) {
	pix := make([]byte, 10)
	if _, err := Encode(pix, 4, 4, 3, 80); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestEncodeGrayscaleSucceeds(t *testing.T) {
	pix := make([]byte, 8*8)
	for i := range pix {
		pix[i] = byte(i)
	}
	out, err := Encode(pix, 8, 8, 1, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected non-empty jpeg output")
	}
	if out[0] != 0xFF || out[1] != 0xD8 {
		t.Error("expected output to start with JPEG SOI marker")
	}
}

func TestEncodeRGBSucceeds(t *testing.T) {
	pix := make([]byte, 8*8*3)
	for i := range pix {
		pix[i] = byte(i % 256)
	}
	out, err := Encode(pix, 8, 8, 3, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected non-empty jpeg output")
	}
}
