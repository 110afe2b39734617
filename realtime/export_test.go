package realtime

import (
	"context"
	"io"
	"net/http"
	"time"
)

func WithAfter(after func(context.Context, time.Duration) <-chan time.Time) ClientOption {
	return func(os *clientOptions) {
		os.After = after
	}
}

func WithNow(now func() time.Time) ClientOption {
	return func(os *clientOptions) {
		os.Now = now
	}
}

// PollActive reports whether a poll timer is running.
func (c *Client) PollActive() bool {
	c.lock()
	defer c.unlock()
	return c.pollCancel != nil
}

// Polling reports whether the client is in polling mode, running or paused.
func (c *Client) Polling() bool {
	c.lock()
	defer c.unlock()
	return c.polling
}

func (c *Client) PresenceTimerActive() bool {
	c.lock()
	defer c.unlock()
	return c.presenceCancel != nil
}

func (c *Client) RetryPending() bool {
	c.lock()
	defer c.unlock()
	return c.retryCancel != nil
}

func (c *Client) StreamOpen() bool {
	c.lock()
	defer c.unlock()
	return c.conn != nil
}

func (c *Client) EnvironmentListening() bool {
	c.lock()
	defer c.unlock()
	return c.envOff != nil
}

func DecodeUpdate(contentType string, p []byte, eventName string) (*UpdateEvent, error) {
	return decodeUpdate(contentType, p, eventName)
}

func NewSSEConn(r io.ReadCloser) StreamConn {
	return newSSEConn(r, func() {})
}

func CheckValidHTTPResponse(statusCode int, contentType string, body []byte) error {
	return checkValidHTTPResponse(statusCode, contentType, body)
}

func AgentIdentifier() string {
	return agentIdentifier()
}

func DialSSE(hc *http.Client) DialFunc {
	return dialSSE(hc)
}

func DialWebSocket(hc *http.Client) DialFunc {
	return dialWebSocket(hc)
}

type EventEmitter = eventEmitter

type EmitterData = emitterData

type EmitterString string

func (EmitterString) isEmitterEvent() {}
func (EmitterString) isEmitterData()  {}

func NewEventEmitter(l Logger) *EventEmitter {
	return newEventEmitter(logger{l: LoggerOptions{Logger: l, Level: LogDebug}})
}

func (em *EventEmitter) Close() {
	em.close()
}
