//go:build (darwin || linux) && !(cgo && avcodec_cgo)

package avcodec

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"unsafe"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibPaths_NewestMajorFirst(t *testing.T) {
	t.Setenv("AVCODEC_LIB_PATH", "")
	t.Setenv("FFMPEG_LIB_DIR", "")

	tests := []struct {
		name   string
		majors []int
		newest string
		next   string
	}{
		{"avcodec", avcodecMajors, libFile("avcodec", 62), libFile("avcodec", 61)},
		{"avutil", avutilMajors, libFile("avutil", 60), libFile("avutil", 59)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := libPaths(tt.name, "AVCODEC_LIB_PATH", tt.majors)
			newest := lo.IndexOf(paths, tt.newest)
			next := lo.IndexOf(paths, tt.next)
			require.NotEqual(t, -1, newest, "bare %s missing", tt.newest)
			require.NotEqual(t, -1, next)
			assert.Less(t, newest, next)
		})
	}
}

func TestLibPaths_EnvOverridesFirst(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AVCODEC_LIB_PATH", "/opt/ffmpeg/libavcodec.so.62")
	t.Setenv("FFMPEG_LIB_DIR", dir)

	paths := libPaths("avcodec", "AVCODEC_LIB_PATH", avcodecMajors)
	require.NotEmpty(t, paths)
	assert.Equal(t, "/opt/ffmpeg/libavcodec.so.62", paths[0])
	assert.Equal(t, filepath.Join(dir, libFile("avcodec", 62)), paths[1])
}

func TestGoStringFromPtr(t *testing.T) {
	assert.Empty(t, goStringFromPtr(0))

	short := []byte("libx264\x00")
	assert.Equal(t, "libx264", goStringFromPtr(uintptr(unsafe.Pointer(&short[0]))))
	runtime.KeepAlive(short)

	long := []byte(strings.Repeat("a", maxCString+100) + "\x00")
	got := goStringFromPtr(uintptr(unsafe.Pointer(&long[0])))
	runtime.KeepAlive(long)
	assert.Len(t, got, maxCString)
}
