// Package segment binarises a rasterised page and extracts
// connected-component bounding boxes for MRC layout analysis. No
// library in the reference corpus offers adaptive thresholding or
// connected-component extraction for Go; this package implements both
// natively rather than reaching for an unrelated ecosystem dependency
// (see the module's grounding ledger for the stdlib-only rationale).
package segment

import "github.com/mrcpdf/mrcpdf/pkg/errtyp"

// PixelBBox is a connected-component bounding box in pixel space,
// inclusive of both min and max.
type PixelBBox struct {
	Xmin, Ymin, Xmax, Ymax int
}

func (b PixelBBox) width() int  { return b.Xmax - b.Xmin + 1 }
func (b PixelBBox) height() int { return b.Ymax - b.Ymin + 1 }

// RGBAToGray8 converts a 32-bpp RGBA buffer to 8-bpp grayscale using
// ITU-R BT.601 luminance weights.
func RGBAToGray8(rgba []byte, w, h int) []byte {
	gray := make([]byte, w*h)
	for i := 0; i < w*h; i++ {
		r := float64(rgba[i*4+0])
		g := float64(rgba[i*4+1])
		b := float64(rgba[i*4+2])
		gray[i] = byte(0.299*r + 0.587*g + 0.114*b)
	}
	return gray
}

// clampTileSize clamps t to [16, 2000] on each axis.
func clampTileSize(t int) int {
	if t < 16 {
		return 16
	}
	if t > 2000 {
		return 2000
	}
	return t
}

// otsuThresholdOf computes Otsu's optimal threshold for one tile's
// 256-bin histogram.
func otsuThresholdOf(hist [256]int, total int) int {
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVar float64
	threshold := 0

	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = t
		}
	}
	return threshold
}

// BinarizeAdaptive runs adaptive Otsu thresholding over gray (w x h,
// 8bpp) using tiles clamped to [16, 2000] px per axis, returning a
// packed 1-bpp buffer (MSB-first per byte) where 1 = ink (at or below
// the tile's Otsu threshold, the top of its dark class).
func BinarizeAdaptive(gray []byte, w, h, tileSize int) []byte {
	tileSize = clampTileSize(tileSize)
	stride := (w + 7) / 8
	bits := make([]byte, stride*h)

	for ty := 0; ty < h; ty += tileSize {
		tyEnd := ty + tileSize
		if tyEnd > h {
			tyEnd = h
		}
		for tx := 0; tx < w; tx += tileSize {
			txEnd := tx + tileSize
			if txEnd > w {
				txEnd = w
			}

			var hist [256]int
			count := 0
			for y := ty; y < tyEnd; y++ {
				row := y * w
				for x := tx; x < txEnd; x++ {
					hist[gray[row+x]]++
					count++
				}
			}
			if count == 0 {
				continue
			}
			thresh := otsuThresholdOf(hist, count)

			for y := ty; y < tyEnd; y++ {
				row := y * w
				for x := tx; x < txEnd; x++ {
					if int(gray[row+x]) <= thresh {
						setBit(bits, stride, x, y)
					}
				}
			}
		}
	}

	return bits
}

func setBit(bits []byte, stride, x, y int) {
	byteIdx := y*stride + x/8
	bitIdx := 7 - uint(x%8)
	bits[byteIdx] |= 1 << bitIdx
}

func getBit(bits []byte, stride, x, y int) bool {
	byteIdx := y*stride + x/8
	bitIdx := 7 - uint(x%8)
	return bits[byteIdx]&(1<<bitIdx) != 0
}

// ConnectedComponents extracts the bounding boxes of ink (1) regions
// in a packed 1-bpp buffer using 4- or 8-connectivity, via iterative
// flood fill.
func ConnectedComponents(bits []byte, w, h int, eightConnected bool) []PixelBBox {
	stride := (w + 7) / 8
	visited := make([]bool, w*h)
	var boxes []PixelBBox

	var neighbours [][2]int
	if eightConnected {
		neighbours = [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	} else {
		neighbours = [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	}

	var stack [][2]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || !getBit(bits, stride, x, y) {
				continue
			}

			bbox := PixelBBox{Xmin: x, Ymin: y, Xmax: x, Ymax: y}
			stack = stack[:0]
			stack = append(stack, [2]int{x, y})
			visited[idx] = true

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p[0] < bbox.Xmin {
					bbox.Xmin = p[0]
				}
				if p[0] > bbox.Xmax {
					bbox.Xmax = p[0]
				}
				if p[1] < bbox.Ymin {
					bbox.Ymin = p[1]
				}
				if p[1] > bbox.Ymax {
					bbox.Ymax = p[1]
				}
				for _, d := range neighbours {
					nx, ny := p[0]+d[0], p[1]+d[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if visited[nidx] || !getBit(bits, stride, nx, ny) {
						continue
					}
					visited[nidx] = true
					stack = append(stack, [2]int{nx, ny})
				}
			}

			boxes = append(boxes, bbox)
		}
	}

	return boxes
}

// discardNoise removes components with width or height below 4 px.
func discardNoise(boxes []PixelBBox) []PixelBBox {
	out := boxes[:0]
	for _, b := range boxes {
		if b.width() < 4 || b.height() < 4 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// separation returns the gap between two boxes along both axes (0 if
// overlapping/touching on that axis).
func separation(a, b PixelBBox) (dx, dy int) {
	dx = gapOnAxis(a.Xmin, a.Xmax, b.Xmin, b.Xmax)
	dy = gapOnAxis(a.Ymin, a.Ymax, b.Ymin, b.Ymax)
	return
}

func gapOnAxis(aMin, aMax, bMin, bMax int) int {
	if aMax < bMin {
		return bMin - aMax - 1
	}
	if bMax < aMin {
		return aMin - bMax - 1
	}
	return 0
}

func union(a, b PixelBBox) PixelBBox {
	u := a
	if b.Xmin < u.Xmin {
		u.Xmin = b.Xmin
	}
	if b.Ymin < u.Ymin {
		u.Ymin = b.Ymin
	}
	if b.Xmax > u.Xmax {
		u.Xmax = b.Xmax
	}
	if b.Ymax > u.Ymax {
		u.Ymax = b.Ymax
	}
	return u
}

// mergeConvergent merges bounding boxes whose separation along both
// axes is <= distance, looping until a full pass merges nothing.
// distance == 0 (the default) is a no-op.
func mergeConvergent(boxes []PixelBBox, distance int) []PixelBBox {
	if distance <= 0 {
		return boxes
	}

	for {
		merged := false
		out := make([]PixelBBox, 0, len(boxes))
		used := make([]bool, len(boxes))

		for i := range boxes {
			if used[i] {
				continue
			}
			cur := boxes[i]
			for j := i + 1; j < len(boxes); j++ {
				if used[j] {
					continue
				}
				dx, dy := separation(cur, boxes[j])
				if dx <= distance && dy <= distance {
					cur = union(cur, boxes[j])
					used[j] = true
					merged = true
				}
			}
			used[i] = true
			out = append(out, cur)
		}

		boxes = out
		if !merged {
			return boxes
		}
	}
}

// Segment binarises gray (via BinarizeAdaptive with tileSize, clamped
// to [16,2000]) and returns the noise-filtered, convergently merged
// connected-component boxes.
func Segment(gray []byte, w, h, tileSize, mergeDistance int, eightConnected bool) ([]PixelBBox, []byte, error) {
	if w <= 0 || h <= 0 {
		return nil, nil, errtyp.New(errtyp.Segmentation, "segment: zero-size bitmap")
	}
	bits := BinarizeAdaptive(gray, w, h, tileSize)
	boxes := ConnectedComponents(bits, w, h, eightConnected)
	boxes = discardNoise(boxes)
	boxes = mergeConvergent(boxes, mergeDistance)
	return boxes, bits, nil
}
