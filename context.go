package avcodec

import (
	"fmt"
	"runtime"

	"github.com/pion/webrtc/v4"
)

type state uint8

const (
	stateLive state = iota
	stateMoved
	stateClosed
)

func (s state) err() error {
	switch s {
	case stateMoved:
		return ErrMoved
	case stateClosed:
		return ErrClosed
	default:
		return nil
	}
}

// Context is an unopened codec context. An owning Context (NewContext, Clone)
// frees its handle on Close; a borrowed one (WrapContext) never does.
//
// Open and OpenWith consume the Context: afterwards every call on it returns
// ErrMoved and Close is a no-op.
//
// Memory Management:
// Owning contexts must be released with Close. A finalizer is set as a
// safety net.
type Context struct {
	lib   *Library
	ptr   ContextHandle
	owned bool
	state state
}

// NewContext allocates an owning context.
func (l *Library) NewContext() (*Context, error) {
	ptr := l.native.AllocContext()
	if ptr == 0 {
		return nil, ErrAllocFailed
	}
	c := &Context{lib: l, ptr: ptr, owned: true}
	runtime.SetFinalizer(c, (*Context).finalize)
	l.log.Tracef("alloc context %#x", uintptr(ptr))
	return c, nil
}

// WrapContext borrows an externally owned handle, e.g. one embedded in a
// stream. The caller keeps responsibility for its lifetime; a zero handle is
// accepted for introspection.
func (l *Library) WrapContext(ptr ContextHandle) *Context {
	return &Context{lib: l, ptr: ptr}
}

// NewContext allocates an owning context from the default library.
func NewContext() (*Context, error) {
	lib, err := Default()
	if err != nil {
		return nil, err
	}
	return lib.NewContext()
}

// WrapContext borrows ptr through the default library.
func WrapContext(ptr ContextHandle) (*Context, error) {
	lib, err := Default()
	if err != nil {
		return nil, err
	}
	return lib.WrapContext(ptr), nil
}

func (c *Context) finalize() {
	if c.state == stateLive && c.owned && c.ptr != 0 {
		c.lib.log.Warnf("context %#x reclaimed by finalizer, missing Close", uintptr(c.ptr))
	}
	_ = c.release()
}

// usable reports whether c may be passed to a native call.
func (c *Context) usable() error {
	if err := c.state.err(); err != nil {
		return err
	}
	if c.ptr == 0 {
		return ErrNullHandle
	}
	return nil
}

// take moves c's handle and ownership into a new value without a finalizer,
// leaving c moved.
func (c *Context) take() *Context {
	inner := &Context{lib: c.lib, ptr: c.ptr, owned: c.owned}
	c.ptr, c.owned, c.state = 0, false, stateMoved
	runtime.SetFinalizer(c, nil)
	return inner
}

func (c *Context) release() error {
	if c.state != stateLive {
		return nil
	}
	c.state = stateClosed
	runtime.SetFinalizer(c, nil)
	if c.owned && c.ptr != 0 {
		c.lib.log.Tracef("free context %#x", uintptr(c.ptr))
		c.lib.native.FreeContext(&c.ptr)
	}
	c.ptr = 0
	return nil
}

// Close frees an owning context and forgets a borrowed one. Safe to call
// multiple times.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}
	return c.release()
}

// Handle returns the native pointer, or zero once moved or closed.
func (c *Context) Handle() ContextHandle { return c.ptr }

// Owned reports whether Close frees the handle.
func (c *Context) Owned() bool { return c.owned }

// Open binds the context to codec and consumes it. On failure the consumed
// context is released and the native code is returned as *Error.
func (c *Context) Open(codec *Codec) (*Opened, error) {
	return c.open(codec, nil)
}

// OpenWith is Open with codec options. On return options holds only the
// entries the codec did not consume.
func (c *Context) OpenWith(codec *Codec, options *Dictionary) (*Opened, error) {
	return c.open(codec, options)
}

func (c *Context) open(codec *Codec, options *Dictionary) (*Opened, error) {
	if err := c.state.err(); err != nil {
		return nil, err
	}
	inner := c.take()
	if inner.ptr == 0 {
		_ = inner.release()
		return nil, ErrNullHandle
	}
	if codec == nil {
		_ = inner.release()
		return nil, ErrNilCodec
	}

	var opts *DictionaryHandle
	if options != nil {
		opts = &options.ptr
	}
	if ret := c.lib.native.OpenContext(inner.ptr, codec.ptr, opts); ret != 0 {
		err := c.lib.newError(ret, "avcodec_open2")
		c.lib.log.Warnf("open %s on context %#x: %v", codec.Name(), uintptr(inner.ptr), err)
		_ = inner.release()
		return nil, err
	}
	c.lib.log.Tracef("open context %#x with %s", uintptr(inner.ptr), codec.Name())
	return newOpened(inner), nil
}

// Decoder opens a copy of the context with the decoder registered for ID.
// The receiver stays usable.
func (c *Context) Decoder() (*Decoder, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	codec := c.lib.FindDecoder(c.ID())
	if codec == nil {
		return nil, ErrDecoderNotFound
	}
	opened, err := c.openClone(codec)
	if err != nil {
		return nil, err
	}
	return opened.Decoder()
}

// Encoder opens a copy of the context with the encoder registered for ID.
// The receiver stays usable.
func (c *Context) Encoder() (*Encoder, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	codec := c.lib.FindEncoder(c.ID())
	if codec == nil {
		return nil, ErrEncoderNotFound
	}
	opened, err := c.openClone(codec)
	if err != nil {
		return nil, err
	}
	return opened.Encoder()
}

func (c *Context) openClone(codec *Codec) (*Opened, error) {
	dup, err := c.Clone()
	if err != nil {
		return nil, err
	}
	return dup.Open(codec)
}

// Clone allocates a new owning context and deep-copies c into it, whether c
// owns its handle or not.
func (c *Context) Clone() (*Context, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	dup, err := c.lib.NewContext()
	if err != nil {
		return nil, err
	}
	ret := c.lib.native.CopyContext(dup.ptr, c.ptr)
	runtime.KeepAlive(c)
	if ret < 0 {
		_ = dup.Close()
		return nil, fmt.Errorf("clone context: %w", c.lib.newError(ret, "avcodec_copy_context"))
	}
	return dup, nil
}

// SetID records the media type and codec id on an unopened context.
func (c *Context) SetID(medium MediaType, id ID) error {
	if err := c.usable(); err != nil {
		return err
	}
	ret := c.lib.native.SetContextCodecID(c.ptr, medium, id)
	runtime.KeepAlive(c)
	if ret < 0 {
		return c.lib.newError(ret, "avcodec_parameters_to_context")
	}
	return nil
}

// Codec returns the codec bound to the handle, or nil if unset.
func (c *Context) Codec() *Codec {
	if c.usable() != nil {
		return nil
	}
	codec := c.lib.native.ContextCodec(c.ptr)
	runtime.KeepAlive(c)
	return c.lib.wrapCodec(codec)
}

// Medium returns the media type recorded in the handle.
func (c *Context) Medium() MediaType {
	if c.usable() != nil {
		return MediaTypeUnknown
	}
	m := c.lib.native.ContextMediaType(c.ptr)
	runtime.KeepAlive(c)
	return m
}

// ID returns the codec id recorded in the handle.
func (c *Context) ID() ID {
	if c.usable() != nil {
		return IDNone
	}
	id := c.lib.native.ContextCodecID(c.ptr)
	runtime.KeepAlive(c)
	return id
}

// Capability returns the WebRTC capability for the context's codec id.
func (c *Context) Capability() (webrtc.RTPCodecCapability, bool) {
	return c.ID().Capability()
}

// Opened is a context that was opened successfully. Close runs the native
// close routine exactly once and then releases the inner context.
type Opened struct {
	ctx   *Context
	state state
}

func newOpened(ctx *Context) *Opened {
	o := &Opened{ctx: ctx}
	runtime.SetFinalizer(o, (*Opened).finalize)
	return o
}

func (o *Opened) finalize() {
	if o.state == stateLive {
		o.ctx.lib.log.Warnf("opened context %#x reclaimed by finalizer, missing Close", uintptr(o.ctx.ptr))
	}
	_ = o.Close()
}

func (o *Opened) take() *Opened {
	next := newOpened(o.ctx)
	o.ctx, o.state = nil, stateMoved
	runtime.SetFinalizer(o, nil)
	return next
}

// Close closes the codec and then frees the handle if owned. Safe to call
// multiple times.
func (o *Opened) Close() error {
	if o == nil || o.state != stateLive {
		return nil
	}
	ctx := o.ctx
	o.ctx, o.state = nil, stateClosed
	runtime.SetFinalizer(o, nil)

	ctx.lib.log.Tracef("close context %#x", uintptr(ctx.ptr))
	ctx.lib.native.CloseContext(ctx.ptr)
	return ctx.release()
}

// Decoder consumes o and narrows it to a Decoder. If the opened codec does
// not decode, o is closed and ErrInvalidData is returned.
func (o *Opened) Decoder() (*Decoder, error) {
	if err := o.state.err(); err != nil {
		return nil, err
	}
	if codec := o.Codec(); codec == nil || !codec.IsDecoder() {
		_ = o.Close()
		return nil, ErrInvalidData
	}
	return &Decoder{opened: o.take()}, nil
}

// Encoder consumes o and narrows it to an Encoder. If the opened codec does
// not encode, o is closed and ErrInvalidData is returned.
func (o *Opened) Encoder() (*Encoder, error) {
	if err := o.state.err(); err != nil {
		return nil, err
	}
	if codec := o.Codec(); codec == nil || !codec.IsEncoder() {
		_ = o.Close()
		return nil, ErrInvalidData
	}
	return &Encoder{opened: o.take()}, nil
}

// Handle returns the native pointer, or zero once moved or closed.
func (o *Opened) Handle() ContextHandle {
	if o.state != stateLive {
		return 0
	}
	return o.ctx.ptr
}

// Owned reports whether the handle is freed after close.
func (o *Opened) Owned() bool {
	return o.state == stateLive && o.ctx.owned
}

// Codec returns the opened codec.
func (o *Opened) Codec() *Codec {
	if o.state != stateLive {
		return nil
	}
	codec := o.ctx.Codec()
	runtime.KeepAlive(o)
	return codec
}

// Medium returns the media type recorded in the handle.
func (o *Opened) Medium() MediaType {
	if o.state != stateLive {
		return MediaTypeUnknown
	}
	m := o.ctx.Medium()
	runtime.KeepAlive(o)
	return m
}

// ID returns the codec id recorded in the handle.
func (o *Opened) ID() ID {
	if o.state != stateLive {
		return IDNone
	}
	id := o.ctx.ID()
	runtime.KeepAlive(o)
	return id
}

// Capability returns the WebRTC capability for the opened codec id.
func (o *Opened) Capability() (webrtc.RTPCodecCapability, bool) {
	return o.ID().Capability()
}
