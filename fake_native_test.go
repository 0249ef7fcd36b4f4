package avcodec

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pion/logging"
)

// fakeNative is a counting stand-in for libavcodec. It records every free and
// close per handle and flags ordering hazards instead of crashing on them.
type fakeNative struct {
	// mu guards the lifecycle entry points, which finalizers reach from
	// their own goroutine.
	mu   sync.Mutex
	next uintptr

	contexts map[ContextHandle]*fakeContext
	external map[ContextHandle]bool
	codecs   map[CodecHandle]*fakeCodec
	dicts    map[DictionaryHandle][]fakeEntry

	decoders map[ID]CodecHandle
	encoders map[ID]CodecHandle

	failAlloc bool
	failCopy  int32

	// onRead runs at the start of ContextCodecID, before mu is taken.
	onRead func(ContextHandle)

	allocs    int
	opens     int
	copies    int
	dictFrees int
	frees     map[ContextHandle]int
	closes    map[ContextHandle]int
	events    []string
	hazards   []string
}

type fakeContext struct {
	medium MediaType
	id     ID
	codec  CodecHandle
	opened bool
	extra  map[string]string
}

type fakeCodec struct {
	info       CodecInfo
	decoder    bool
	encoder    bool
	openErr    int32
	recognized map[string]bool
}

type fakeEntry struct {
	key, value string
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		next:     0x1000,
		contexts: make(map[ContextHandle]*fakeContext),
		external: make(map[ContextHandle]bool),
		codecs:   make(map[CodecHandle]*fakeCodec),
		dicts:    make(map[DictionaryHandle][]fakeEntry),
		decoders: make(map[ID]CodecHandle),
		encoders: make(map[ID]CodecHandle),
		frees:    make(map[ContextHandle]int),
		closes:   make(map[ContextHandle]int),
	}
}

func (f *fakeNative) handle() uintptr {
	f.next += 0x10
	return f.next
}

// addCodec registers a codec implementation. A codec may be listed under a
// registry it does not belong to, which lets tests provoke kind mismatches.
func (f *fakeNative) addCodec(name string, id ID, decoder, encoder bool, options ...string) CodecHandle {
	h := CodecHandle(f.handle())
	c := &fakeCodec{
		info:       CodecInfo{Name: name, LongName: name + " (fake)", Medium: id.Medium(), ID: id},
		decoder:    decoder,
		encoder:    encoder,
		recognized: make(map[string]bool),
	}
	for _, o := range options {
		c.recognized[o] = true
	}
	f.codecs[h] = c
	return h
}

// newExternal creates a handle owned outside any Library, as if embedded in a
// demuxed stream.
func (f *fakeNative) newExternal(medium MediaType, id ID) ContextHandle {
	h := ContextHandle(f.handle())
	f.contexts[h] = &fakeContext{medium: medium, id: id, extra: map[string]string{}}
	f.external[h] = true
	return h
}

func (f *fakeNative) live() int {
	n := 0
	for h := range f.contexts {
		if !f.external[h] {
			n++
		}
	}
	return n
}

func (f *fakeNative) setExtra(h ContextHandle, key, value string) {
	f.contexts[h].extra[key] = value
}

func (f *fakeNative) hazard(format string, args ...any) {
	f.hazards = append(f.hazards, fmt.Sprintf(format, args...))
}

// alive reports whether h is still allocated.
func (f *fakeNative) alive(h ContextHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.contexts[h]
	return ok
}

func (f *fakeNative) freeCount(h ContextHandle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frees[h]
}

func (f *fakeNative) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeNative) hazardLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hazards...)
}

func (f *fakeNative) AllocContext() ContextHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAlloc {
		return 0
	}
	f.allocs++
	h := ContextHandle(f.handle())
	f.contexts[h] = &fakeContext{medium: MediaTypeUnknown, extra: map[string]string{}}
	return h
}

func (f *fakeNative) FreeContext(ctx *ContextHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := *ctx
	f.frees[h]++
	f.events = append(f.events, fmt.Sprintf("free %#x", uintptr(h)))
	c, ok := f.contexts[h]
	switch {
	case !ok:
		f.hazard("free of unknown or freed handle %#x", uintptr(h))
	case f.external[h]:
		f.hazard("free of external handle %#x", uintptr(h))
	case c.opened:
		f.hazard("free before close on %#x", uintptr(h))
	}
	delete(f.contexts, h)
	*ctx = 0
}

func (f *fakeNative) CopyContext(dst, src ContextHandle) int32 {
	f.copies++
	if f.failCopy != 0 {
		return f.failCopy
	}
	d, s := f.contexts[dst], f.contexts[src]
	if d == nil || s == nil {
		f.hazard("copy with dead handle")
		return ErrCodeInvalidArgument
	}
	if d.opened {
		f.hazard("copy into opened handle %#x", uintptr(dst))
		return ErrCodeInvalidArgument
	}
	d.medium, d.id = s.medium, s.id
	d.extra = make(map[string]string, len(s.extra))
	for k, v := range s.extra {
		d.extra[k] = v
	}
	return 0
}

func (f *fakeNative) OpenContext(ctx ContextHandle, codec CodecHandle, options *DictionaryHandle) int32 {
	f.opens++
	c, ok := f.contexts[ctx]
	if !ok {
		f.hazard("open of dead handle %#x", uintptr(ctx))
		return ErrCodeInvalidArgument
	}
	if c.opened {
		return ErrCodeInvalidArgument
	}
	cd := f.codecs[codec]
	if cd.openErr != 0 {
		return cd.openErr
	}

	if options != nil && *options != 0 {
		var rest []fakeEntry
		for _, e := range f.dicts[*options] {
			if cd.recognized[e.key] {
				c.extra[e.key] = e.value
				continue
			}
			rest = append(rest, e)
		}
		f.DictFree(options)
		for _, e := range rest {
			f.DictSet(options, e.key, e.value)
		}
	}

	c.codec, c.opened = codec, true
	if c.id == IDNone {
		c.id = cd.info.ID
	}
	if c.medium == MediaTypeUnknown {
		c.medium = cd.info.Medium
	}
	return 0
}

func (f *fakeNative) CloseContext(ctx ContextHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes[ctx]++
	f.events = append(f.events, fmt.Sprintf("close %#x", uintptr(ctx)))
	c, ok := f.contexts[ctx]
	switch {
	case !ok:
		f.hazard("close of freed handle %#x", uintptr(ctx))
		return
	case !c.opened:
		f.hazard("close of unopened handle %#x", uintptr(ctx))
	}
	c.opened = false
}

func (f *fakeNative) FlushContext(ctx ContextHandle) {
	f.events = append(f.events, fmt.Sprintf("flush %#x", uintptr(ctx)))
}

func (f *fakeNative) ContextCodec(ctx ContextHandle) CodecHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contexts[ctx].codec
}

func (f *fakeNative) ContextMediaType(ctx ContextHandle) MediaType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contexts[ctx].medium
}

func (f *fakeNative) ContextCodecID(ctx ContextHandle) ID {
	if f.onRead != nil {
		f.onRead(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contexts[ctx]
	if !ok {
		f.hazard("read of freed handle %#x", uintptr(ctx))
		return IDNone
	}
	return c.id
}

func (f *fakeNative) SetContextCodecID(ctx ContextHandle, medium MediaType, id ID) int32 {
	c := f.contexts[ctx]
	c.medium, c.id = medium, id
	return 0
}

func (f *fakeNative) FindDecoder(id ID) CodecHandle { return f.decoders[id] }

func (f *fakeNative) FindEncoder(id ID) CodecHandle { return f.encoders[id] }

func (f *fakeNative) FindDecoderByName(name string) CodecHandle {
	for h, c := range f.codecs {
		if c.decoder && c.info.Name == name {
			return h
		}
	}
	return 0
}

func (f *fakeNative) FindEncoderByName(name string) CodecHandle {
	for h, c := range f.codecs {
		if c.encoder && c.info.Name == name {
			return h
		}
	}
	return 0
}

func (f *fakeNative) CodecInfo(codec CodecHandle) CodecInfo { return f.codecs[codec].info }

func (f *fakeNative) IsDecoder(codec CodecHandle) bool { return f.codecs[codec].decoder }

func (f *fakeNative) IsEncoder(codec CodecHandle) bool { return f.codecs[codec].encoder }

func (f *fakeNative) DictSet(dict *DictionaryHandle, key, value string) int32 {
	if key == "" {
		return ErrCodeInvalidArgument
	}
	if *dict == 0 {
		*dict = DictionaryHandle(f.handle())
	}
	entries := f.dicts[*dict]
	for i := range entries {
		if entries[i].key == key {
			entries[i].value = value
			return 0
		}
	}
	f.dicts[*dict] = append(entries, fakeEntry{key, value})
	return 0
}

func (f *fakeNative) DictGet(dict DictionaryHandle, key string) (string, bool) {
	for _, e := range f.dicts[dict] {
		if e.key == key {
			return e.value, true
		}
	}
	return "", false
}

func (f *fakeNative) DictCount(dict DictionaryHandle) int { return len(f.dicts[dict]) }

func (f *fakeNative) DictEach(dict DictionaryHandle, fn func(key, value string)) {
	for _, e := range f.dicts[dict] {
		fn(e.key, e.value)
	}
}

func (f *fakeNative) DictFree(dict *DictionaryHandle) {
	if *dict != 0 {
		f.dictFrees++
		delete(f.dicts, *dict)
	}
	*dict = 0
}

func (f *fakeNative) Strerror(int32) string { return "" }

// Registered codec handles used across tests.
type fakeCodecs struct {
	h264Dec, h264Enc   CodecHandle
	vp8Dec, vp8Enc     CodecHandle
	opusDec, opusEnc   CodecHandle
	mulawDec           CodecHandle
	mjpegMisregistered CodecHandle
}

// newTestLibrary returns a Library over a populated fakeNative:
//   - h264, vp8: decoder and encoder
//   - opus: decoder; encoder fails to open with EINVAL
//   - pcm_mulaw: decoder only
//   - mjpeg: the decoder registry returns an encoder-only implementation
func newTestLibrary(tb testing.TB) (*Library, *fakeNative, fakeCodecs) {
	tb.Helper()
	f := newFakeNative()
	var c fakeCodecs

	c.h264Dec = f.addCodec("h264", IDH264, true, false, "threads")
	c.h264Enc = f.addCodec("libx264", IDH264, false, true, "threads", "preset", "crf")
	c.vp8Dec = f.addCodec("vp8", IDVP8, true, false)
	c.vp8Enc = f.addCodec("libvpx", IDVP8, false, true, "deadline")
	c.opusDec = f.addCodec("opus", IDOpus, true, false)
	c.opusEnc = f.addCodec("libopus", IDOpus, false, true)
	f.codecs[c.opusEnc].openErr = ErrCodeInvalidArgument
	c.mulawDec = f.addCodec("pcm_mulaw", IDPCMMulaw, true, false)
	c.mjpegMisregistered = f.addCodec("mjpeg_enc", IDMJPEG, false, true)

	f.decoders[IDH264] = c.h264Dec
	f.encoders[IDH264] = c.h264Enc
	f.decoders[IDVP8] = c.vp8Dec
	f.encoders[IDVP8] = c.vp8Enc
	f.decoders[IDOpus] = c.opusDec
	f.encoders[IDOpus] = c.opusEnc
	f.decoders[IDPCMMulaw] = c.mulawDec
	f.decoders[IDMJPEG] = c.mjpegMisregistered

	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = logging.LogLevelDisabled
	lib := NewLibrary(f, WithLoggerFactory(factory))
	return lib, f, c
}
