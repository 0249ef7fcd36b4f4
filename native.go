package avcodec

import (
	"errors"
	"sync"

	"github.com/pion/logging"
)

// ContextHandle is an opaque AVCodecContext pointer.
type ContextHandle uintptr

// CodecHandle is an opaque AVCodec pointer.
type CodecHandle uintptr

// DictionaryHandle is an opaque AVDictionary pointer. Zero is a valid, empty
// dictionary.
type DictionaryHandle uintptr

// CodecInfo holds the static descriptor fields of a native codec.
type CodecInfo struct {
	Name     string
	LongName string
	Medium   MediaType
	ID       ID
}

// ContextABI mirrors the native codec-context entry points.
type ContextABI interface {
	// AllocContext returns a fresh context or zero on allocation failure.
	AllocContext() ContextHandle
	// FreeContext frees the context and zeroes *ctx.
	FreeContext(ctx *ContextHandle)
	CopyContext(dst, src ContextHandle) int32
	// OpenContext binds ctx to codec. options may be nil; when it is not the
	// native call may replace *options with the unconsumed entries.
	OpenContext(ctx ContextHandle, codec CodecHandle, options *DictionaryHandle) int32
	CloseContext(ctx ContextHandle)
	FlushContext(ctx ContextHandle)

	ContextCodec(ctx ContextHandle) CodecHandle
	ContextMediaType(ctx ContextHandle) MediaType
	ContextCodecID(ctx ContextHandle) ID
	SetContextCodecID(ctx ContextHandle, medium MediaType, id ID) int32
}

// CodecRegistry mirrors the native codec lookup tables.
type CodecRegistry interface {
	FindDecoder(id ID) CodecHandle
	FindEncoder(id ID) CodecHandle
	FindDecoderByName(name string) CodecHandle
	FindEncoderByName(name string) CodecHandle
	CodecInfo(codec CodecHandle) CodecInfo
	IsDecoder(codec CodecHandle) bool
	IsEncoder(codec CodecHandle) bool
}

// DictionaryABI mirrors the native option map.
type DictionaryABI interface {
	DictSet(dict *DictionaryHandle, key, value string) int32
	DictGet(dict DictionaryHandle, key string) (string, bool)
	DictCount(dict DictionaryHandle) int
	// DictEach calls fn for every entry in insertion order.
	DictEach(dict DictionaryHandle, fn func(key, value string))
	DictFree(dict *DictionaryHandle)
}

// Native is the full native surface a Library needs.
type Native interface {
	ContextABI
	CodecRegistry
	DictionaryABI

	Strerror(code int32) string
}

// ErrNotLoaded is returned when the native libraries could not be loaded.
var ErrNotLoaded = errors.New("libavcodec not loaded")

// Library routes every native call of the values it creates.
type Library struct {
	native Native
	log    logging.LeveledLogger
}

// Option configures a Library.
type Option func(*libraryOptions)

type libraryOptions struct {
	loggerFactory logging.LoggerFactory
}

// WithLoggerFactory sets the factory used for the library's "avcodec" logger.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(o *libraryOptions) {
		o.loggerFactory = f
	}
}

// NewLibrary binds a Library to native.
func NewLibrary(native Native, opts ...Option) *Library {
	o := libraryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loggerFactory == nil {
		o.loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Library{
		native: native,
		log:    o.loggerFactory.NewLogger("avcodec"),
	}
}

// Native returns the bound native surface.
func (l *Library) Native() Native {
	return l.native
}

var (
	defaultOnce    sync.Once
	defaultLib     *Library
	defaultLoadErr error
)

// Default returns the process-wide Library, loading libavcodec on first use.
func Default() (*Library, error) {
	defaultOnce.Do(func() {
		native, err := loadNative()
		if err != nil {
			defaultLoadErr = err
			return
		}
		defaultLib = NewLibrary(native)
	})
	return defaultLib, defaultLoadErr
}

// IsAvailable reports whether libavcodec could be loaded.
func IsAvailable() bool {
	_, err := Default()
	return err == nil
}
