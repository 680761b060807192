package contentstream

import "strconv"

// formatNumber renders a content-stream numeric operand, trimming a
// trailing ".00" the way PDF writers conventionally do for integral
// values while still emitting full precision otherwise.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
