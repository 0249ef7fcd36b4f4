// Package avcodec exposes libavcodec codec contexts through ownership-checked
// handles.
//
// The wrapper never decodes or encodes anything itself: it only manages the
// lifetime of native AVCodecContext handles and the order of the native calls
// made on them.
//
// # Lifecycle
//
//	Context --Open/OpenWith--> Opened --Decoder/Encoder--> Decoder/Encoder
//
// Each arrow consumes its source: the value it was called on is left moved
// and every later call on it returns ErrMoved. A failed Open releases the
// consumed Context; a failed Decoder/Encoder narrowing closes the Opened.
//
//   - NewContext allocates an owning context; Close frees it exactly once.
//   - WrapContext borrows a handle owned elsewhere; Close never frees it.
//   - Clone always returns a new owning context holding a native deep copy.
//   - Opened.Close runs the native close before the handle is freed.
//
// # Native Libraries
//
// By default the package loads libavcodec and libavutil with purego
// (no CGO needed). Set AVCODEC_LIB_PATH / AVUTIL_LIB_PATH to exact files or
// FFMPEG_LIB_DIR to their directory. Build with -tags avcodec_cgo to link
// through pkg-config instead.
//
// A Library can also be bound to any Native implementation, which is how the
// tests drive the lifecycle without FFmpeg installed.
//
// # RTP and WebRTC
//
// Codec ids map to pion/webrtc capabilities and pion/rtp payloaders and
// depacketizers, so opened decoders and encoders can be wired straight into
// a pion pipeline. Sniff guesses an ID from the first bytes of a stream when
// no container metadata is available.
package avcodec
