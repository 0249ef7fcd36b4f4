//go:build (darwin || linux) && !(cgo && avcodec_cgo)

// Shared helpers for the purego bindings.

package avcodec

import "unsafe"

// maxCString caps goStringFromPtr reads on unterminated input.
const maxCString = 4096

// goStringFromPtr converts a C string pointer to a Go string. Strings longer
// than maxCString bytes are truncated.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var length int
	for length < maxCString && *(*byte)(ptrAt(ptr, uintptr(length))) != 0 {
		length++
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(ptrAt(ptr, 0)), length))
}
