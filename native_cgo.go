//go:build (darwin || linux) && cgo && avcodec_cgo

// libavcodec/libavutil bindings linked at build time with CGO.
//
// Links through pkg-config, avoiding purego's function pointer indirection
// and struct offset reads. Select with -tags avcodec_cgo.

package avcodec

/*
#cgo pkg-config: libavcodec libavutil

#include <errno.h>
#include <stdlib.h>
#include <libavcodec/avcodec.h>
#include <libavutil/dict.h>
#include <libavutil/error.h>

static int avcodec_shim_copy_context(AVCodecContext *dst, const AVCodecContext *src) {
	AVCodecParameters *par = avcodec_parameters_alloc();
	int ret;
	if (!par)
		return AVERROR(ENOMEM);
	ret = avcodec_parameters_from_context(par, src);
	if (ret >= 0)
		ret = avcodec_parameters_to_context(dst, par);
	avcodec_parameters_free(&par);
	return ret;
}

static void avcodec_shim_close(AVCodecContext *ctx) {
#if LIBAVCODEC_VERSION_MAJOR < 62
	avcodec_close(ctx);
#else
	(void)ctx;
#endif
}

static int avcodec_shim_set_id(AVCodecContext *ctx, int type, int id) {
	ctx->codec_type = (enum AVMediaType)type;
	ctx->codec_id = (enum AVCodecID)id;
	return 0;
}
*/
import "C"

import "unsafe"

func loadNative() (Native, error) {
	return cgoNative{}, nil
}

func cctx(h ContextHandle) *C.AVCodecContext {
	return (*C.AVCodecContext)(*(*unsafe.Pointer)(unsafe.Pointer(&h)))
}

func ccodec(h CodecHandle) *C.AVCodec {
	return (*C.AVCodec)(*(*unsafe.Pointer)(unsafe.Pointer(&h)))
}

func cdict(h DictionaryHandle) *C.AVDictionary {
	return (*C.AVDictionary)(*(*unsafe.Pointer)(unsafe.Pointer(&h)))
}

// cgoNative implements Native with direct calls.
type cgoNative struct{}

func (cgoNative) AllocContext() ContextHandle {
	return ContextHandle(uintptr(unsafe.Pointer(C.avcodec_alloc_context3(nil))))
}

func (cgoNative) FreeContext(ctx *ContextHandle) {
	p := cctx(*ctx)
	C.avcodec_free_context(&p)
	*ctx = 0
}

func (cgoNative) CopyContext(dst, src ContextHandle) int32 {
	return int32(C.avcodec_shim_copy_context(cctx(dst), cctx(src)))
}

func (cgoNative) OpenContext(ctx ContextHandle, codec CodecHandle, options *DictionaryHandle) int32 {
	if options == nil {
		return int32(C.avcodec_open2(cctx(ctx), ccodec(codec), nil))
	}
	d := cdict(*options)
	ret := C.avcodec_open2(cctx(ctx), ccodec(codec), &d)
	*options = DictionaryHandle(uintptr(unsafe.Pointer(d)))
	return int32(ret)
}

func (cgoNative) CloseContext(ctx ContextHandle) {
	C.avcodec_shim_close(cctx(ctx))
}

func (cgoNative) FlushContext(ctx ContextHandle) {
	C.avcodec_flush_buffers(cctx(ctx))
}

func (cgoNative) ContextCodec(ctx ContextHandle) CodecHandle {
	return CodecHandle(uintptr(unsafe.Pointer(cctx(ctx).codec)))
}

func (cgoNative) ContextMediaType(ctx ContextHandle) MediaType {
	return MediaType(cctx(ctx).codec_type)
}

func (cgoNative) ContextCodecID(ctx ContextHandle) ID {
	return ID(cctx(ctx).codec_id)
}

func (cgoNative) SetContextCodecID(ctx ContextHandle, medium MediaType, id ID) int32 {
	return int32(C.avcodec_shim_set_id(cctx(ctx), C.int(medium), C.int(id)))
}

func (cgoNative) FindDecoder(id ID) CodecHandle {
	return CodecHandle(uintptr(unsafe.Pointer(C.avcodec_find_decoder(C.enum_AVCodecID(id)))))
}

func (cgoNative) FindEncoder(id ID) CodecHandle {
	return CodecHandle(uintptr(unsafe.Pointer(C.avcodec_find_encoder(C.enum_AVCodecID(id)))))
}

func (cgoNative) FindDecoderByName(name string) CodecHandle {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return CodecHandle(uintptr(unsafe.Pointer(C.avcodec_find_decoder_by_name(cname))))
}

func (cgoNative) FindEncoderByName(name string) CodecHandle {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return CodecHandle(uintptr(unsafe.Pointer(C.avcodec_find_encoder_by_name(cname))))
}

func (cgoNative) CodecInfo(codec CodecHandle) CodecInfo {
	c := ccodec(codec)
	return CodecInfo{
		Name:     C.GoString(c.name),
		LongName: C.GoString(c.long_name),
		Medium:   MediaType(c._type),
		ID:       ID(c.id),
	}
}

func (cgoNative) IsDecoder(codec CodecHandle) bool {
	return C.av_codec_is_decoder(ccodec(codec)) != 0
}

func (cgoNative) IsEncoder(codec CodecHandle) bool {
	return C.av_codec_is_encoder(ccodec(codec)) != 0
}

func (cgoNative) DictSet(dict *DictionaryHandle, key, value string) int32 {
	ckey := C.CString(key)
	defer C.free(unsafe.Pointer(ckey))
	cvalue := C.CString(value)
	defer C.free(unsafe.Pointer(cvalue))

	d := cdict(*dict)
	ret := C.av_dict_set(&d, ckey, cvalue, 0)
	*dict = DictionaryHandle(uintptr(unsafe.Pointer(d)))
	return int32(ret)
}

func (cgoNative) DictGet(dict DictionaryHandle, key string) (string, bool) {
	if dict == 0 {
		return "", false
	}
	ckey := C.CString(key)
	defer C.free(unsafe.Pointer(ckey))
	entry := C.av_dict_get(cdict(dict), ckey, nil, 0)
	if entry == nil {
		return "", false
	}
	return C.GoString(entry.value), true
}

func (cgoNative) DictCount(dict DictionaryHandle) int {
	return int(C.av_dict_count(cdict(dict)))
}

func (cgoNative) DictEach(dict DictionaryHandle, fn func(key, value string)) {
	if dict == 0 {
		return
	}
	empty := C.CString("")
	defer C.free(unsafe.Pointer(empty))
	var entry *C.AVDictionaryEntry
	for {
		entry = C.av_dict_get(cdict(dict), empty, entry, C.AV_DICT_IGNORE_SUFFIX)
		if entry == nil {
			return
		}
		fn(C.GoString(entry.key), C.GoString(entry.value))
	}
}

func (cgoNative) DictFree(dict *DictionaryHandle) {
	d := cdict(*dict)
	C.av_dict_free(&d)
	*dict = 0
}

func (cgoNative) Strerror(code int32) string {
	buf := (*C.char)(C.malloc(C.AV_ERROR_MAX_STRING_SIZE))
	defer C.free(unsafe.Pointer(buf))
	if C.av_strerror(C.int(code), buf, C.AV_ERROR_MAX_STRING_SIZE) < 0 {
		return ""
	}
	return C.GoString(buf)
}
