package segment

import "testing"

func TestDiscardNoise(t *testing.T) {
	boxes := []PixelBBox{
		{Xmin: 0, Ymin: 0, Xmax: 1, Ymax: 10}, // width 2 -> noise
		{Xmin: 0, Ymin: 0, Xmax: 10, Ymax: 2}, // height 3 -> noise
		{Xmin: 0, Ymin: 0, Xmax: 10, Ymax: 10},
	}
	out := discardNoise(boxes)
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving box, got %d", len(out))
	}
}

func TestMergeConvergentZeroDistanceIsNoop(t *testing.T) {
	boxes := []PixelBBox{
		{Xmin: 0, Ymin: 0, Xmax: 5, Ymax: 5},
		{Xmin: 6, Ymin: 0, Xmax: 10, Ymax: 5},
	}
	out := mergeConvergent(boxes, 0)
	if len(out) != 2 {
		t.Fatalf("expected no-op merge at distance 0, got %d boxes", len(out))
	}
}

func TestMergeConvergentMergesCloseBoxes(t *testing.T) {
	boxes := []PixelBBox{
		{Xmin: 0, Ymin: 0, Xmax: 5, Ymax: 5},
		{Xmin: 7, Ymin: 0, Xmax: 12, Ymax: 5},
	}
	out := mergeConvergent(boxes, 5)
	if len(out) != 1 {
		t.Fatalf("expected boxes to merge, got %d", len(out))
	}
	if out[0].Xmin != 0 || out[0].Xmax != 12 {
		t.Errorf("unexpected merged bbox: %+v", out[0])
	}
}

func TestConnectedComponentsSingleBlock(t *testing.T) {
	w, h := 10, 10
	stride := (w + 7) / 8
	bits := make([]byte, stride*h)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			setBit(bits, stride, x, y)
		}
	}
	boxes := ConnectedComponents(bits, w, h, false)
	if len(boxes) != 1 {
		t.Fatalf("expected 1 component, got %d", len(boxes))
	}
	want := PixelBBox{Xmin: 2, Ymin: 2, Xmax: 5, Ymax: 5}
	if boxes[0] != want {
		t.Errorf("got %+v, want %+v", boxes[0], want)
	}
}

func TestBinarizeAdaptiveAllBlackIsAllInk(t *testing.T) {
	w, h := 20, 20
	gray := make([]byte, w*h) // all zero = all black
	bits := BinarizeAdaptive(gray, w, h, 16)
	stride := (w + 7) / 8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// A uniform tile has no variance, so Otsu's threshold stays 0;
			// every pixel at or below the threshold is ink, so an
			// all-black page is all ink.
			if !getBit(bits, stride, x, y) {
				t.Fatalf("pixel (%d,%d) not classified as ink", x, y)
			}
		}
	}
}
