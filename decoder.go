package avcodec

import (
	"runtime"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// Decoder is an opened context whose codec decodes. It owns the Opened it
// was narrowed from.
type Decoder struct {
	opened *Opened
}

// Close closes and releases the underlying context.
func (d *Decoder) Close() error {
	if d == nil {
		return nil
	}
	return d.opened.Close()
}

// Flush drops buffered frames, e.g. after a seek.
func (d *Decoder) Flush() error {
	if err := d.opened.state.err(); err != nil {
		return err
	}
	ctx := d.opened.ctx
	ctx.lib.native.FlushContext(ctx.ptr)
	runtime.KeepAlive(d.opened)
	return nil
}

// Handle returns the native pointer, or zero once closed.
func (d *Decoder) Handle() ContextHandle { return d.opened.Handle() }

// Codec returns the decoder implementation.
func (d *Decoder) Codec() *Codec { return d.opened.Codec() }

// Medium returns the media type recorded in the handle.
func (d *Decoder) Medium() MediaType { return d.opened.Medium() }

// ID returns the codec id recorded in the handle.
func (d *Decoder) ID() ID { return d.opened.ID() }

// Capability returns the WebRTC capability the decoder can receive.
func (d *Decoder) Capability() (webrtc.RTPCodecCapability, bool) {
	return d.opened.Capability()
}

// Depacketizer returns a fresh RTP depacketizer producing this decoder's
// bitstream, or nil when the codec has no RTP mapping.
func (d *Decoder) Depacketizer() rtp.Depacketizer {
	return d.ID().Depacketizer()
}

// Encoder is an opened context whose codec encodes. It owns the Opened it
// was narrowed from.
type Encoder struct {
	opened *Opened
}

// Close closes and releases the underlying context.
func (e *Encoder) Close() error {
	if e == nil {
		return nil
	}
	return e.opened.Close()
}

// Flush resets the encoder's internal buffers.
func (e *Encoder) Flush() error {
	if err := e.opened.state.err(); err != nil {
		return err
	}
	ctx := e.opened.ctx
	ctx.lib.native.FlushContext(ctx.ptr)
	runtime.KeepAlive(e.opened)
	return nil
}

// Handle returns the native pointer, or zero once closed.
func (e *Encoder) Handle() ContextHandle { return e.opened.Handle() }

// Codec returns the encoder implementation.
func (e *Encoder) Codec() *Codec { return e.opened.Codec() }

// Medium returns the media type recorded in the handle.
func (e *Encoder) Medium() MediaType { return e.opened.Medium() }

// ID returns the codec id recorded in the handle.
func (e *Encoder) ID() ID { return e.opened.ID() }

// Capability returns the WebRTC capability the encoder produces.
func (e *Encoder) Capability() (webrtc.RTPCodecCapability, bool) {
	return e.opened.Capability()
}

// Payloader returns an RTP payloader for this encoder's bitstream, or nil
// when the codec has no RTP mapping.
func (e *Encoder) Payloader() rtp.Payloader {
	return e.ID().Payloader()
}
