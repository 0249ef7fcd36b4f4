package avcodec

import (
	"strconv"
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

// MediaType mirrors AVMediaType.
type MediaType int32

const (
	MediaTypeUnknown    MediaType = -1
	MediaTypeVideo      MediaType = 0
	MediaTypeAudio      MediaType = 1
	MediaTypeData       MediaType = 2
	MediaTypeSubtitle   MediaType = 3
	MediaTypeAttachment MediaType = 4
)

func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// ID mirrors AVCodecID. Values are the libavcodec enum constants.
type ID int32

const (
	IDNone       ID = 0
	IDMPEG1Video ID = 1
	IDMPEG2Video ID = 2
	IDH263       ID = 4
	IDMJPEG      ID = 7
	IDMPEG4      ID = 12
	IDH264       ID = 27
	IDPNG        ID = 61
	IDBMP        ID = 78
	IDGIF        ID = 97
	IDVP8        ID = 139
	IDVP9        ID = 167
	IDHEVC       ID = 173
	IDAV1        ID = 226

	IDPCMS16LE ID = 0x10000
	IDPCMMulaw ID = 0x10006
	IDPCMAlaw  ID = 0x10007
	IDMP2      ID = 0x15000
	IDMP3      ID = 0x15001
	IDAAC      ID = 0x15002
	IDAC3      ID = 0x15003
	IDVorbis   ID = 0x15005
	IDFLAC     ID = 0x1500c
	IDOpus     ID = 0x1503c

	IDDVDSubtitle ID = 0x17000
	IDDVBSubtitle ID = 0x17001
	IDText        ID = 0x17002
	IDMovText     ID = 0x17005
)

// descriptor is static metadata for a well-known codec id.
type descriptor struct {
	Name      string
	Medium    MediaType
	MimeType  string
	ClockRate uint32
	Channels  uint16
}

// Built once at init and only read afterwards.
var descriptors = map[ID]descriptor{
	IDMPEG1Video: {"mpeg1video", MediaTypeVideo, "", 90000, 0},
	IDMPEG2Video: {"mpeg2video", MediaTypeVideo, "", 90000, 0},
	IDH263:       {"h263", MediaTypeVideo, "video/H263", 90000, 0},
	IDMJPEG:      {"mjpeg", MediaTypeVideo, "video/JPEG", 90000, 0},
	IDMPEG4:      {"mpeg4", MediaTypeVideo, "video/MP4V-ES", 90000, 0},
	IDH264:       {"h264", MediaTypeVideo, webrtc.MimeTypeH264, 90000, 0},
	IDPNG:        {"png", MediaTypeVideo, "", 0, 0},
	IDBMP:        {"bmp", MediaTypeVideo, "", 0, 0},
	IDGIF:        {"gif", MediaTypeVideo, "", 0, 0},
	IDVP8:        {"vp8", MediaTypeVideo, webrtc.MimeTypeVP8, 90000, 0},
	IDVP9:        {"vp9", MediaTypeVideo, webrtc.MimeTypeVP9, 90000, 0},
	IDHEVC:       {"hevc", MediaTypeVideo, webrtc.MimeTypeH265, 90000, 0},
	IDAV1:        {"av1", MediaTypeVideo, webrtc.MimeTypeAV1, 90000, 0},

	IDPCMS16LE: {"pcm_s16le", MediaTypeAudio, "audio/L16", 48000, 2},
	IDPCMMulaw: {"pcm_mulaw", MediaTypeAudio, webrtc.MimeTypePCMU, 8000, 1},
	IDPCMAlaw:  {"pcm_alaw", MediaTypeAudio, webrtc.MimeTypePCMA, 8000, 1},
	IDMP2:      {"mp2", MediaTypeAudio, "audio/MPA", 90000, 0},
	IDMP3:      {"mp3", MediaTypeAudio, "audio/MPA", 90000, 0},
	IDAAC:      {"aac", MediaTypeAudio, "audio/AAC", 48000, 2},
	IDAC3:      {"ac3", MediaTypeAudio, "audio/ac3", 48000, 0},
	IDVorbis:   {"vorbis", MediaTypeAudio, "audio/vorbis", 48000, 2},
	IDFLAC:     {"flac", MediaTypeAudio, "", 0, 0},
	IDOpus:     {"opus", MediaTypeAudio, webrtc.MimeTypeOpus, 48000, 2},

	IDDVDSubtitle: {"dvd_subtitle", MediaTypeSubtitle, "", 0, 0},
	IDDVBSubtitle: {"dvb_subtitle", MediaTypeSubtitle, "", 0, 0},
	IDText:        {"text", MediaTypeSubtitle, "", 0, 0},
	IDMovText:     {"mov_text", MediaTypeSubtitle, "", 0, 0},
}

// String returns the libavcodec short name, or the numeric value for ids
// without a descriptor.
func (id ID) String() string {
	if id == IDNone {
		return "none"
	}
	if d, ok := descriptors[id]; ok {
		return d.Name
	}
	return "codec(" + strconv.Itoa(int(id)) + ")"
}

// Medium returns the media type implied by the id range.
func (id ID) Medium() MediaType {
	if d, ok := descriptors[id]; ok {
		return d.Medium
	}
	switch {
	case id == IDNone:
		return MediaTypeUnknown
	case id < 0x10000:
		return MediaTypeVideo
	case id < 0x17000:
		return MediaTypeAudio
	case id < 0x18000:
		return MediaTypeSubtitle
	default:
		return MediaTypeData
	}
}

// MimeType returns the RTP MIME type, or "" when the codec has no RTP mapping.
func (id ID) MimeType() string {
	return descriptors[id].MimeType
}

// ClockRate returns the RTP clock rate, or 0 when unknown.
func (id ID) ClockRate() uint32 {
	return descriptors[id].ClockRate
}

// Capability returns the WebRTC codec capability for id. ok is false when
// the codec has no RTP mapping.
func (id ID) Capability() (webrtc.RTPCodecCapability, bool) {
	d, found := descriptors[id]
	if !found || d.MimeType == "" {
		return webrtc.RTPCodecCapability{}, false
	}
	c := webrtc.RTPCodecCapability{
		MimeType:  d.MimeType,
		ClockRate: d.ClockRate,
		Channels:  d.Channels,
	}
	switch id {
	case IDH264:
		c.SDPFmtpLine = "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f"
	case IDOpus:
		c.SDPFmtpLine = "minptime=10;useinbandfec=1"
	}
	return c, true
}

// IDFromMimeType maps an RTP MIME type back to a codec id. Matching is
// case-insensitive, as in SDP. MPEG audio resolves to mp3.
func IDFromMimeType(mime string) ID {
	id, ok := lo.FindKeyBy(descriptors, func(id ID, d descriptor) bool {
		return id != IDMP2 && d.MimeType != "" && strings.EqualFold(d.MimeType, mime)
	})
	if !ok {
		return IDNone
	}
	return id
}
