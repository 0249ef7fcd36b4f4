package avcodec

import (
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// Depacketizer returns a new pion depacketizer for id, or nil when pion has
// none for it.
func (id ID) Depacketizer() rtp.Depacketizer {
	switch id {
	case IDH264:
		return &codecs.H264Packet{}
	case IDVP8:
		return &codecs.VP8Packet{}
	case IDVP9:
		return &codecs.VP9Packet{}
	case IDOpus:
		return &codecs.OpusPacket{}
	default:
		return nil
	}
}

// Payloader returns a new pion payloader for id, or nil when pion has none
// for it.
func (id ID) Payloader() rtp.Payloader {
	switch id {
	case IDH264:
		return &codecs.H264Payloader{}
	case IDVP8:
		return &codecs.VP8Payloader{}
	case IDVP9:
		return &codecs.VP9Payloader{}
	case IDAV1:
		return &codecs.AV1Payloader{}
	case IDOpus:
		return &codecs.OpusPayloader{}
	case IDPCMMulaw, IDPCMAlaw:
		return &codecs.G711Payloader{}
	default:
		return nil
	}
}
