package realtime

// Error constants used in realtime-go.

const (
	ErrNotSet                     ErrorCode = 0
	ErrBadRequest                 ErrorCode = 40000
	ErrInvalidResource            ErrorCode = 40001
	ErrInvalidEndpoint            ErrorCode = 40002
	ErrUnauthorized               ErrorCode = 40100
	ErrForbidden                  ErrorCode = 40300
	ErrNotFound                   ErrorCode = 40400
	ErrMethodNotAllowed           ErrorCode = 40500
	ErrInternalError              ErrorCode = 50000
	ErrTimeoutError               ErrorCode = 50003
	ErrConnectionFailed           ErrorCode = 80000
	ErrNoCompatibleTransport      ErrorCode = 80001
	ErrDisconnected               ErrorCode = 80003
	ErrProtocolError              ErrorCode = 80013
	ErrConnectionTimedOut         ErrorCode = 80014
	ErrConnectionClosed           ErrorCode = 80017
	ErrReconnectAttemptsExhausted ErrorCode = 80020
	ErrPollFailed                 ErrorCode = 80021
	ErrPresenceFailed             ErrorCode = 91000
)

var errCodeText = map[ErrorCode]string{
	ErrBadRequest:                 "bad request",
	ErrInvalidResource:            "invalid resource configuration",
	ErrInvalidEndpoint:            "invalid endpoint",
	ErrUnauthorized:               "unauthorized",
	ErrForbidden:                  "forbidden",
	ErrNotFound:                   "not found",
	ErrMethodNotAllowed:           "method not allowed",
	ErrInternalError:              "internal error",
	ErrTimeoutError:               "timeout error",
	ErrConnectionFailed:           "connection failed",
	ErrNoCompatibleTransport:      "connection failed (no compatible transport)",
	ErrDisconnected:               "disconnected",
	ErrProtocolError:              "protocol error",
	ErrConnectionTimedOut:         "connection timed out",
	ErrConnectionClosed:           "connection closed",
	ErrReconnectAttemptsExhausted: "reconnect attempts exhausted, polling for updates",
	ErrPollFailed:                 "unable to check for updates",
	ErrPresenceFailed:             "presence request failed",
}
