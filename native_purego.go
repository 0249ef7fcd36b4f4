//go:build (darwin || linux) && !(cgo && avcodec_cgo)

// libavcodec/libavutil bindings loaded at runtime with purego.
//
// Library locations checked (in order):
//   - AVCODEC_LIB_PATH / AVUTIL_LIB_PATH environment variables (exact files)
//   - FFMPEG_LIB_DIR environment variable (directory)
//   - next to the executable and under build/ of the working directory
//   - System library paths, newest major first

package avcodec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Supported majors, newest first: FFmpeg 8.x .. 4.x.
var (
	avcodecMajors = []int{62, 61, 60, 59, 58}
	avutilMajors  = []int{60, 59, 58, 57, 56}
)

// Leading AVCodecContext and AVCodec fields, stable across the supported
// majors on 64-bit targets.
const (
	offCtxCodecType = 12
	offCtxCodec     = 16
	offCtxCodecID   = 24

	offCodecName     = 0
	offCodecLongName = 8
	offCodecType     = 16
	offCodecID       = 20

	offParamsCodecType = 0
	offParamsCodecID   = 4
)

const avDictIgnoreSuffix = 2

// libavcodec function pointers
var (
	avcodecAllocContext3   func(codec uintptr) uintptr
	avcodecFreeContext     func(ctx *uintptr)
	avcodecCopyContext     func(dst, src uintptr) int32
	avcodecOpen2           func(ctx, codec uintptr, options *uintptr) int32
	avcodecClose           func(ctx uintptr) int32
	avcodecFlushBuffers    func(ctx uintptr)
	avcodecFindDecoder     func(id int32) uintptr
	avcodecFindEncoder     func(id int32) uintptr
	avcodecFindDecoderName func(name string) uintptr
	avcodecFindEncoderName func(name string) uintptr
	avCodecIsDecoder       func(codec uintptr) int32
	avCodecIsEncoder       func(codec uintptr) int32

	avcodecParametersAlloc       func() uintptr
	avcodecParametersFree        func(par *uintptr)
	avcodecParametersFromContext func(par, ctx uintptr) int32
	avcodecParametersToContext   func(ctx, par uintptr) int32
)

// libavutil function pointers
var (
	avDictSet   func(pm *uintptr, key, value string, flags int32) int32
	avDictGet   func(m uintptr, key string, prev uintptr, flags int32) uintptr
	avDictCount func(m uintptr) int32
	avDictFree  func(pm *uintptr)
	avStrerror  func(errnum int32, buf *byte, size uintptr) int32
)

func loadNative() (Native, error) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		return nil, fmt.Errorf("%w: 64-bit target required", ErrNotLoaded)
	}
	util, err := dlopenFirst(libPaths("avutil", "AVUTIL_LIB_PATH", avutilMajors))
	if err != nil {
		return nil, fmt.Errorf("%w: libavutil: %v", ErrNotLoaded, err)
	}
	codec, err := dlopenFirst(libPaths("avcodec", "AVCODEC_LIB_PATH", avcodecMajors))
	if err != nil {
		purego.Dlclose(util)
		return nil, fmt.Errorf("%w: libavcodec: %v", ErrNotLoaded, err)
	}
	if err := registerSymbols(codec, util); err != nil {
		purego.Dlclose(codec)
		purego.Dlclose(util)
		return nil, fmt.Errorf("%w: %v", ErrNotLoaded, err)
	}
	return puregoNative{}, nil
}

func dlopenFirst(paths []string) (uintptr, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("not found in any standard location")
	}
	return 0, lastErr
}

func libFile(name string, major int) string {
	if runtime.GOOS == "darwin" {
		if major < 0 {
			return fmt.Sprintf("lib%s.dylib", name)
		}
		return fmt.Sprintf("lib%s.%d.dylib", name, major)
	}
	if major < 0 {
		return fmt.Sprintf("lib%s.so", name)
	}
	return fmt.Sprintf("lib%s.so.%d", name, major)
}

func libPaths(name, envVar string, majors []int) []string {
	var paths []string

	if envPath := os.Getenv(envVar); envPath != "" {
		paths = append(paths, envPath)
	}

	var dirs []string
	if dir := os.Getenv("FFMPEG_LIB_DIR"); dir != "" {
		dirs = append(dirs, dir)
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs, exeDir, filepath.Join(exeDir, "..", "lib"))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(wd, "build"), filepath.Join(wd, "..", "build"))
	}
	switch runtime.GOOS {
	case "darwin":
		dirs = append(dirs, "/opt/homebrew/lib", "/usr/local/lib")
	case "linux":
		dirs = append(dirs, "/usr/local/lib", "/usr/lib/x86_64-linux-gnu", "/usr/lib/aarch64-linux-gnu", "/usr/lib")
	}

	candidates := make([]string, 0, len(majors)+1)
	for _, major := range majors {
		candidates = append(candidates, libFile(name, major))
	}
	candidates = append(candidates, libFile(name, -1))

	for _, dir := range dirs {
		for _, file := range candidates {
			paths = append(paths, filepath.Join(dir, file))
		}
	}
	// Bare names last so the dynamic loader's own search path is used.
	return append(paths, candidates...)
}

func registerSymbols(codec, util uintptr) (err error) {
	// RegisterLibFunc panics on a missing symbol.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register symbols: %v", r)
		}
	}()

	purego.RegisterLibFunc(&avcodecAllocContext3, codec, "avcodec_alloc_context3")
	purego.RegisterLibFunc(&avcodecFreeContext, codec, "avcodec_free_context")
	purego.RegisterLibFunc(&avcodecOpen2, codec, "avcodec_open2")
	purego.RegisterLibFunc(&avcodecFlushBuffers, codec, "avcodec_flush_buffers")
	purego.RegisterLibFunc(&avcodecFindDecoder, codec, "avcodec_find_decoder")
	purego.RegisterLibFunc(&avcodecFindEncoder, codec, "avcodec_find_encoder")
	purego.RegisterLibFunc(&avcodecFindDecoderName, codec, "avcodec_find_decoder_by_name")
	purego.RegisterLibFunc(&avcodecFindEncoderName, codec, "avcodec_find_encoder_by_name")
	purego.RegisterLibFunc(&avCodecIsDecoder, codec, "av_codec_is_decoder")
	purego.RegisterLibFunc(&avCodecIsEncoder, codec, "av_codec_is_encoder")
	purego.RegisterLibFunc(&avcodecParametersAlloc, codec, "avcodec_parameters_alloc")
	purego.RegisterLibFunc(&avcodecParametersFree, codec, "avcodec_parameters_free")
	purego.RegisterLibFunc(&avcodecParametersFromContext, codec, "avcodec_parameters_from_context")
	purego.RegisterLibFunc(&avcodecParametersToContext, codec, "avcodec_parameters_to_context")

	// Removed in newer majors; free also closes there.
	registerOptionalLibFunc(&avcodecClose, codec, "avcodec_close")
	registerOptionalLibFunc(&avcodecCopyContext, codec, "avcodec_copy_context")

	purego.RegisterLibFunc(&avDictSet, util, "av_dict_set")
	purego.RegisterLibFunc(&avDictGet, util, "av_dict_get")
	purego.RegisterLibFunc(&avDictCount, util, "av_dict_count")
	purego.RegisterLibFunc(&avDictFree, util, "av_dict_free")
	purego.RegisterLibFunc(&avStrerror, util, "av_strerror")

	if avcodecAllocContext3 == nil || avcodecOpen2 == nil {
		return errors.New("required libavcodec symbols missing")
	}
	return nil
}

func registerOptionalLibFunc(fptr any, handle uintptr, name string) {
	if _, err := purego.Dlsym(handle, name); err != nil {
		return
	}
	purego.RegisterLibFunc(fptr, handle, name)
}

// ptrAt returns base+off as a pointer into native memory.
func ptrAt(base uintptr, off uintptr) unsafe.Pointer {
	addr := base + off
	return *(*unsafe.Pointer)(unsafe.Pointer(&addr))
}

func readInt32(base, off uintptr) int32 { return *(*int32)(ptrAt(base, off)) }

func readPtr(base, off uintptr) uintptr { return *(*uintptr)(ptrAt(base, off)) }

func writeInt32(base, off uintptr, v int32) { *(*int32)(ptrAt(base, off)) = v }

// puregoNative implements Native over the registered function pointers.
type puregoNative struct{}

func (puregoNative) AllocContext() ContextHandle {
	return ContextHandle(avcodecAllocContext3(0))
}

func (puregoNative) FreeContext(ctx *ContextHandle) {
	p := uintptr(*ctx)
	avcodecFreeContext(&p)
	*ctx = 0
}

func (n puregoNative) CopyContext(dst, src ContextHandle) int32 {
	if avcodecCopyContext != nil {
		return avcodecCopyContext(uintptr(dst), uintptr(src))
	}
	par := avcodecParametersAlloc()
	if par == 0 {
		return ErrCodeNoMem
	}
	defer avcodecParametersFree(&par)
	if ret := avcodecParametersFromContext(par, uintptr(src)); ret < 0 {
		return ret
	}
	return avcodecParametersToContext(uintptr(dst), par)
}

func (puregoNative) OpenContext(ctx ContextHandle, codec CodecHandle, options *DictionaryHandle) int32 {
	if options == nil {
		return avcodecOpen2(uintptr(ctx), uintptr(codec), nil)
	}
	p := uintptr(*options)
	ret := avcodecOpen2(uintptr(ctx), uintptr(codec), &p)
	*options = DictionaryHandle(p)
	return ret
}

func (puregoNative) CloseContext(ctx ContextHandle) {
	if avcodecClose != nil {
		avcodecClose(uintptr(ctx))
	}
}

func (puregoNative) FlushContext(ctx ContextHandle) {
	avcodecFlushBuffers(uintptr(ctx))
}

func (puregoNative) ContextCodec(ctx ContextHandle) CodecHandle {
	return CodecHandle(readPtr(uintptr(ctx), offCtxCodec))
}

func (puregoNative) ContextMediaType(ctx ContextHandle) MediaType {
	return MediaType(readInt32(uintptr(ctx), offCtxCodecType))
}

func (puregoNative) ContextCodecID(ctx ContextHandle) ID {
	return ID(readInt32(uintptr(ctx), offCtxCodecID))
}

func (puregoNative) SetContextCodecID(ctx ContextHandle, medium MediaType, id ID) int32 {
	par := avcodecParametersAlloc()
	if par == 0 {
		return ErrCodeNoMem
	}
	defer avcodecParametersFree(&par)
	if ret := avcodecParametersFromContext(par, uintptr(ctx)); ret < 0 {
		return ret
	}
	writeInt32(par, offParamsCodecType, int32(medium))
	writeInt32(par, offParamsCodecID, int32(id))
	return avcodecParametersToContext(uintptr(ctx), par)
}

func (puregoNative) FindDecoder(id ID) CodecHandle {
	return CodecHandle(avcodecFindDecoder(int32(id)))
}

func (puregoNative) FindEncoder(id ID) CodecHandle {
	return CodecHandle(avcodecFindEncoder(int32(id)))
}

func (puregoNative) FindDecoderByName(name string) CodecHandle {
	h := avcodecFindDecoderName(name)
	runtime.KeepAlive(name)
	return CodecHandle(h)
}

func (puregoNative) FindEncoderByName(name string) CodecHandle {
	h := avcodecFindEncoderName(name)
	runtime.KeepAlive(name)
	return CodecHandle(h)
}

func (puregoNative) CodecInfo(codec CodecHandle) CodecInfo {
	base := uintptr(codec)
	return CodecInfo{
		Name:     goStringFromPtr(readPtr(base, offCodecName)),
		LongName: goStringFromPtr(readPtr(base, offCodecLongName)),
		Medium:   MediaType(readInt32(base, offCodecType)),
		ID:       ID(readInt32(base, offCodecID)),
	}
}

func (puregoNative) IsDecoder(codec CodecHandle) bool {
	return avCodecIsDecoder(uintptr(codec)) != 0
}

func (puregoNative) IsEncoder(codec CodecHandle) bool {
	return avCodecIsEncoder(uintptr(codec)) != 0
}

func (puregoNative) DictSet(dict *DictionaryHandle, key, value string) int32 {
	p := uintptr(*dict)
	ret := avDictSet(&p, key, value, 0)
	runtime.KeepAlive(key)
	runtime.KeepAlive(value)
	*dict = DictionaryHandle(p)
	return ret
}

func (puregoNative) DictGet(dict DictionaryHandle, key string) (string, bool) {
	if dict == 0 {
		return "", false
	}
	entry := avDictGet(uintptr(dict), key, 0, 0)
	runtime.KeepAlive(key)
	if entry == 0 {
		return "", false
	}
	return goStringFromPtr(readPtr(entry, 8)), true
}

func (puregoNative) DictCount(dict DictionaryHandle) int {
	if dict == 0 {
		return 0
	}
	return int(avDictCount(uintptr(dict)))
}

func (puregoNative) DictEach(dict DictionaryHandle, fn func(key, value string)) {
	if dict == 0 {
		return
	}
	var entry uintptr
	for {
		entry = avDictGet(uintptr(dict), "", entry, avDictIgnoreSuffix)
		if entry == 0 {
			return
		}
		fn(goStringFromPtr(readPtr(entry, 0)), goStringFromPtr(readPtr(entry, 8)))
	}
}

func (puregoNative) DictFree(dict *DictionaryHandle) {
	p := uintptr(*dict)
	avDictFree(&p)
	*dict = 0
}

func (puregoNative) Strerror(code int32) string {
	buf := make([]byte, 256)
	if avStrerror(code, &buf[0], uintptr(len(buf))) < 0 {
		return ""
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}
