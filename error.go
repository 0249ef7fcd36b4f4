package avcodec

import (
	"errors"
	"fmt"
)

// Native error codes (negative AVERROR values).
const (
	ErrCodeAgain           int32 = -11
	ErrCodeNoMem           int32 = -12
	ErrCodeInvalidArgument int32 = -22
	ErrCodeEOF             int32 = -('E' | 'O'<<8 | 'F'<<16 | ' '<<24)
	ErrCodeInvalidData     int32 = -('I' | 'N'<<8 | 'D'<<16 | 'A'<<24)
	ErrCodeDecoderNotFound int32 = -(0xF8 | 'D'<<8 | 'E'<<16 | 'C'<<24)
	ErrCodeEncoderNotFound int32 = -(0xF8 | 'E'<<8 | 'N'<<16 | 'C'<<24)
	ErrCodeOptionNotFound  int32 = -(0xF8 | 'O'<<8 | 'P'<<16 | 'T'<<24)
	ErrCodeBug             int32 = -('B' | 'U'<<8 | 'G'<<16 | '!'<<24)
	ErrCodePatchWelcome    int32 = -('P' | 'A'<<8 | 'W'<<16 | 'E'<<24)
)

var errorText = map[int32]string{
	ErrCodeAgain:           "Resource temporarily unavailable",
	ErrCodeNoMem:           "Cannot allocate memory",
	ErrCodeInvalidArgument: "Invalid argument",
	ErrCodeEOF:             "End of file",
	ErrCodeInvalidData:     "Invalid data found when processing input",
	ErrCodeDecoderNotFound: "Decoder not found",
	ErrCodeEncoderNotFound: "Encoder not found",
	ErrCodeOptionNotFound:  "Option not found",
	ErrCodeBug:             "Internal bug, should not have happened",
	ErrCodePatchWelcome:    "Not yet implemented in FFmpeg, patches welcome",
}

// Error wraps a native error code. Two Errors match under errors.Is when
// their codes are equal, whatever the operation.
type Error struct {
	Code int32
	Op   string
	msg  string
}

// Sentinels synthesized without a native call.
var (
	ErrDecoderNotFound = &Error{Code: ErrCodeDecoderNotFound}
	ErrEncoderNotFound = &Error{Code: ErrCodeEncoderNotFound}
	ErrInvalidData     = &Error{Code: ErrCodeInvalidData}
)

// Wrapper state errors.
var (
	ErrMoved       = errors.New("avcodec: value was moved by a consuming call")
	ErrClosed      = errors.New("avcodec: value is closed")
	ErrAllocFailed = errors.New("avcodec: context allocation failed")
	ErrNullHandle  = errors.New("avcodec: null context handle")
	ErrNilCodec    = errors.New("avcodec: nil codec")
)

func (l *Library) newError(code int32, op string) *Error {
	return &Error{Code: code, Op: op, msg: l.native.Strerror(code)}
}

func (e *Error) Error() string {
	msg := e.msg
	if msg == "" {
		msg = errorText[e.Code]
	}
	if msg == "" {
		msg = fmt.Sprintf("error code %d", e.Code)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// ErrorCode extracts the native code from err, or 0 if err carries none.
func ErrorCode(err error) int32 {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
