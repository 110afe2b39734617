package realtime

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
)

// ErrorCode is the type for realtime-go error codes.
type ErrorCode int

func (c ErrorCode) String() string {
	return errCodeText[c]
}

func (c ErrorCode) toStatusCode() int {
	switch status := int(c) / 100; status {
	case
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusInternalServerError:
		return status
	default:
		return 0
	}
}

// ErrorInfo describes an error raised by the client or returned by the
// server. It always has a non-zero Code and may wrap the underlying error.
type ErrorInfo struct {
	Code       ErrorCode
	StatusCode int

	err error
}

// Error implements the builtin error interface.
func (e ErrorInfo) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = e.Code.String()
	}
	return fmt.Sprintf("[ErrorInfo :%s code=%d statusCode=%d]", msg, e.Code, e.StatusCode)
}

// Unwrap implements the implicit interface that errors.Unwrap understands.
func (e ErrorInfo) Unwrap() error {
	return e.err
}

// Message returns the undecorated error message.
func (e ErrorInfo) Message() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func newError(code ErrorCode, err error) *ErrorInfo {
	var info *ErrorInfo
	if errors.As(err, &info) {
		return info
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ErrorInfo{Code: ErrTimeoutError, StatusCode: http.StatusInternalServerError, err: err}
	}
	return &ErrorInfo{
		Code:       code,
		StatusCode: code.toStatusCode(),
		err:        err,
	}
}

func newErrorf(code ErrorCode, format string, v ...interface{}) *ErrorInfo {
	return &ErrorInfo{
		Code:       code,
		StatusCode: code.toStatusCode(),
		err:        fmt.Errorf(format, v...),
	}
}

// errorBody is the shape of the server's failure responses.
type errorBody struct {
	Success bool   `codec:"success"`
	Error   string `codec:"error"`
	Message string `codec:"message"`
}

// checkValidHTTPResponse maps a non-2xx response to an *ErrorInfo, reading
// the server's {"success": false, "error": "..."} body when there is one.
func checkValidHTTPResponse(statusCode int, contentType string, body []byte) error {
	if statusCode < 300 {
		return nil
	}
	info := &ErrorInfo{
		Code:       ErrorCode(statusCode * 100),
		StatusCode: statusCode,
	}
	var e errorBody
	if len(body) > 0 && rtutil.Unmarshal(contentType, body, &e) == nil {
		msg := strings.TrimSpace(e.Error)
		if msg == "" {
			msg = strings.TrimSpace(e.Message)
		}
		if msg != "" {
			info.err = errors.New(msg)
		}
	}
	if info.err == nil {
		info.err = errors.New(http.StatusText(statusCode))
	}
	return info
}
