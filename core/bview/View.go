// Package bview provides a non-owning view into a caller-owned byte buffer.
//
// A View shares storage with the buffer it was taken from. It stays valid
// only while that buffer is not reallocated or shifted; callers must not
// hold a View across any call that may mutate the owning buffer.
package bview

// View is a window into someone else's bytes. The zero value is an
// empty view.
type View struct {
	b []byte
}

// Of returns a view over buf[lo:hi].
func Of(buf []byte, lo, hi int) View {
	return View{b: buf[lo:hi]}
}

// Wrap returns a view over the whole of b.
func Wrap(b []byte) View {
	return View{b: b}
}

// Len returns the number of bytes in the view.
func (v View) Len() int {
	return len(v.b)
}

// IsEmpty reports whether the view has zero length.
func (v View) IsEmpty() bool {
	return len(v.b) == 0
}

// Bytes returns the viewed window itself, not a copy.
func (v View) Bytes() []byte {
	return v.b
}

// String returns an owned copy of the viewed bytes.
func (v View) String() string {
	return string(v.b)
}

// Byte returns the byte at position i.
func (v View) Byte(i int) byte {
	return v.b[i]
}

// Slice narrows the view to [lo:hi].
func (v View) Slice(lo, hi int) View {
	return View{b: v.b[lo:hi]}
}

// Equal reports whether the view's bytes equal s exactly.
func (v View) Equal(s string) bool {
	return string(v.b) == s
}

// EqualFold reports whether the view's bytes equal s under ASCII
// case folding.
func (v View) EqualFold(s string) bool {
	if len(v.b) != len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if lower(v.b[i]) != lower(s[i]) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether the view begins with s.
func (v View) HasPrefix(s string) bool {
	return len(v.b) >= len(s) && string(v.b[:len(s)]) == s
}

// Index returns the position of the first occurrence of needle, or -1.
// The search never reads past the view's length.
func (v View) Index(needle string) int {
	n := len(needle)
	if n == 0 {
		return 0
	}
	if n > len(v.b) {
		return -1
	}
	for i := 0; i <= len(v.b)-n; i++ {
		if string(v.b[i:i+n]) == needle {
			return i
		}
	}
	return -1
}

// IndexFold is Index under ASCII case folding.
func (v View) IndexFold(needle string) int {
	n := len(needle)
	if n == 0 {
		return 0
	}
	if n > len(v.b) {
		return -1
	}
scan:
	for i := 0; i <= len(v.b)-n; i++ {
		for j := 0; j < n; j++ {
			if lower(v.b[i+j]) != lower(needle[j]) {
				continue scan
			}
		}
		return i
	}
	return -1
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
