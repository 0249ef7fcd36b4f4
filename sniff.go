package avcodec

import (
	"bytes"
	"encoding/binary"
)

// Sniff guesses the codec id of an elementary stream or a raw container
// prefix from its first bytes. It returns IDNone when nothing matches.
// Audio signatures are tried first since their magic numbers are stricter
// than the video frame markers.
//
// Recognized:
//   - Ogg pages carrying Opus or Vorbis, FLAC stream markers
//   - AAC ADTS and MPEG audio layer II and III frame headers
//   - IVF files (VP8, VP9, AV1)
//   - Annex-B H.264 and HEVC, length-prefixed (AVCC) H.264
//   - VP8 keyframes, VP9 frames, AV1 OBU streams
func Sniff(data []byte) ID {
	if id := SniffAudio(data); id != IDNone {
		return id
	}
	return SniffVideo(data)
}

// SniffAudio is Sniff restricted to audio signatures.
func SniffAudio(data []byte) ID {
	if len(data) < 4 {
		return IDNone
	}
	switch {
	case bytes.HasPrefix(data, []byte("OggS")):
		return sniffOgg(data)
	case bytes.HasPrefix(data, []byte("fLaC")):
		return IDFLAC
	case bytes.HasPrefix(data, []byte("ID3")):
		return IDMP3
	}

	// 12-bit ADTS syncword with layer 0, or the 11-bit MPEG audio sync.
	if data[0] != 0xFF {
		return IDNone
	}
	layer := (data[1] >> 1) & 0x03
	switch {
	case data[1]&0xF0 == 0xF0 && layer == 0 && len(data) >= 7:
		return IDAAC
	case data[1]&0xE0 == 0xE0 && layer == 1:
		return IDMP3
	case data[1]&0xE0 == 0xE0 && layer == 2:
		return IDMP2
	}
	return IDNone
}

// sniffOgg inspects the identification header in the first page payload.
func sniffOgg(data []byte) ID {
	if len(data) < 27 {
		return IDNone
	}
	// Payload follows the 27-byte page header and its segment table.
	off := 27 + int(data[26])
	if off >= len(data) {
		return IDNone
	}
	payload := data[off:]
	switch {
	case bytes.HasPrefix(payload, []byte("OpusHead")):
		return IDOpus
	case bytes.HasPrefix(payload, []byte("\x01vorbis")):
		return IDVorbis
	case bytes.HasPrefix(payload, []byte("\x7fFLAC")):
		return IDFLAC
	}
	return IDNone
}

// SniffVideo is Sniff restricted to video signatures.
func SniffVideo(data []byte) ID {
	if len(data) < 4 {
		return IDNone
	}

	if len(data) >= 32 && bytes.HasPrefix(data, []byte("DKIF")) {
		switch string(data[8:12]) {
		case "VP80":
			return IDVP8
		case "VP90":
			return IDVP9
		case "AV01":
			return IDAV1
		}
		return IDNone
	}

	if n := startCodeLen(data); n > 0 && len(data) > n+1 {
		return sniffNAL(data[n], data[n+1])
	}

	switch {
	case isVP8Keyframe(data):
		return IDVP8
	case isAV1TemporalUnit(data):
		return IDAV1
	case isAVCC(data):
		return IDH264
	case (data[0]>>6)&0x03 == 0x02:
		return IDVP9
	}
	return IDNone
}

// startCodeLen returns the length of a leading Annex-B start code, or 0.
func startCodeLen(data []byte) int {
	switch {
	case len(data) >= 4 && data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 1:
		return 4
	case len(data) >= 3 && data[0] == 0 && data[1] == 0 && data[2] == 1:
		return 3
	}
	return 0
}

// sniffNAL classifies the first NAL header after a start code. Streams open
// with parameter sets or an access unit delimiter, whose type values differ
// between H.264 (one-byte header) and HEVC (two-byte header).
func sniffNAL(b0, b1 byte) ID {
	if b0&0x80 != 0 {
		return IDNone
	}
	// HEVC: type in bits 1-6, layer id high bit must be 0 and tid non-zero.
	hevcType := (b0 >> 1) & 0x3F
	if b1&0x07 != 0 && b0&0x01 == 0 {
		switch hevcType {
		case 32, 33, 34, 35, 39:
			return IDHEVC
		}
	}
	t := b0 & 0x1F
	if (t >= 1 && t <= 12) || (t >= 19 && t <= 21) {
		return IDH264
	}
	return IDNone
}

// isVP8Keyframe matches the frame tag's key bit and the 0x9d012a start code.
func isVP8Keyframe(data []byte) bool {
	return len(data) >= 10 && data[0]&0x01 == 0 &&
		data[3] == 0x9D && data[4] == 0x01 && data[5] == 0x2A
}

// isAV1TemporalUnit matches a sized temporal delimiter or sequence header OBU,
// which is how low-overhead AV1 streams begin.
func isAV1TemporalUnit(data []byte) bool {
	h := data[0]
	if h&0x80 != 0 || h&0x02 == 0 || h&0x01 != 0 {
		return false
	}
	switch (h >> 3) & 0x0F {
	case 1, 2:
		return true
	}
	return false
}

// isAVCC matches a plausible 4-byte big-endian NAL length prefix followed by
// an H.264 NAL header.
func isAVCC(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	n := binary.BigEndian.Uint32(data)
	if n == 0 || int(n) > len(data)-4 || n >= 10<<20 {
		return false
	}
	return sniffNAL(data[4], data[5]) == IDH264
}

// SetIDFromBitstream sniffs data and records the result on c.
func (c *Context) SetIDFromBitstream(data []byte) (ID, error) {
	id := Sniff(data)
	if id == IDNone {
		return IDNone, ErrInvalidData
	}
	if err := c.SetID(id.Medium(), id); err != nil {
		return IDNone, err
	}
	return id, nil
}
