// Package surrogate maps opaque product identifiers onto the small integer
// keys accepted by the prediction service.
package surrogate

import "unicode/utf16"

// Bound is the exclusive upper limit of every surrogate id.
const Bound = 10000

// ID folds the UTF-16 code units of s into a wrapping 32-bit rolling hash
// (h = h*31 + c) and reduces it into [0, Bound). Distinct ids may collide.
func ID(s string) int {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	r := int(h % Bound)
	if r < 0 {
		r = -r
	}
	return r
}
