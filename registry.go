package avcodec

// Codec identifies a native codec implementation. Codecs live in static
// native tables and are never freed.
type Codec struct {
	lib *Library
	ptr CodecHandle
}

func (l *Library) wrapCodec(ptr CodecHandle) *Codec {
	if ptr == 0 {
		return nil
	}
	return &Codec{lib: l, ptr: ptr}
}

// FindDecoder returns the registered decoder for id, or nil.
func (l *Library) FindDecoder(id ID) *Codec {
	c := l.wrapCodec(l.native.FindDecoder(id))
	l.log.Debugf("find decoder %s: found=%t", id, c != nil)
	return c
}

// FindEncoder returns the registered encoder for id, or nil.
func (l *Library) FindEncoder(id ID) *Codec {
	c := l.wrapCodec(l.native.FindEncoder(id))
	l.log.Debugf("find encoder %s: found=%t", id, c != nil)
	return c
}

// FindDecoderByName returns the decoder registered under name, or nil.
func (l *Library) FindDecoderByName(name string) *Codec {
	return l.wrapCodec(l.native.FindDecoderByName(name))
}

// FindEncoderByName returns the encoder registered under name, or nil.
func (l *Library) FindEncoderByName(name string) *Codec {
	return l.wrapCodec(l.native.FindEncoderByName(name))
}

// FindDecoder looks up a decoder in the default library.
func FindDecoder(id ID) *Codec {
	lib, err := Default()
	if err != nil {
		return nil
	}
	return lib.FindDecoder(id)
}

// FindEncoder looks up an encoder in the default library.
func FindEncoder(id ID) *Codec {
	lib, err := Default()
	if err != nil {
		return nil
	}
	return lib.FindEncoder(id)
}

// FindDecoderByName looks up a decoder by name in the default library.
func FindDecoderByName(name string) *Codec {
	lib, err := Default()
	if err != nil {
		return nil
	}
	return lib.FindDecoderByName(name)
}

// FindEncoderByName looks up an encoder by name in the default library.
func FindEncoderByName(name string) *Codec {
	lib, err := Default()
	if err != nil {
		return nil
	}
	return lib.FindEncoderByName(name)
}

// Handle returns the native pointer.
func (c *Codec) Handle() CodecHandle { return c.ptr }

// Info returns the codec's descriptor fields.
func (c *Codec) Info() CodecInfo { return c.lib.native.CodecInfo(c.ptr) }

// Name returns the short implementation name, e.g. "libvpx" or "h264".
func (c *Codec) Name() string { return c.Info().Name }

// LongName returns the descriptive name.
func (c *Codec) LongName() string { return c.Info().LongName }

// ID returns the codec id implemented.
func (c *Codec) ID() ID { return c.Info().ID }

// Medium returns the codec's media type.
func (c *Codec) Medium() MediaType { return c.Info().Medium }

// IsDecoder reports whether the implementation decodes.
func (c *Codec) IsDecoder() bool { return c.lib.native.IsDecoder(c.ptr) }

// IsEncoder reports whether the implementation encodes.
func (c *Codec) IsEncoder() bool { return c.lib.native.IsEncoder(c.ptr) }

func (c *Codec) String() string {
	kind := "codec"
	switch dec, enc := c.IsDecoder(), c.IsEncoder(); {
	case dec && !enc:
		kind = "decoder"
	case enc && !dec:
		kind = "encoder"
	}
	return c.Name() + " (" + c.ID().String() + " " + kind + ")"
}
