//go:build !darwin && !linux

package avcodec

import "fmt"

func loadNative() (Native, error) {
	return nil, fmt.Errorf("%w: unsupported platform", ErrNotLoaded)
}
