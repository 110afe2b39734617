package realtime

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const contentTypeEventStream = "text/event-stream"

// dialSSE returns a DialFunc that opens a text/event-stream over hc.
func dialSSE(hc *http.Client) DialFunc {
	return func(ctx context.Context, url string, header http.Header) (StreamConn, error) {
		ctx, cancel := context.WithCancel(ctx)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			cancel()
			return nil, newError(ErrInvalidEndpoint, err)
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("Accept", contentTypeEventStream)
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := hc.Do(req)
		if err != nil {
			cancel()
			return nil, newError(ErrConnectionFailed, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			resp.Body.Close()
			cancel()
			return nil, checkValidHTTPResponse(resp.StatusCode, resp.Header.Get("Content-Type"), body)
		}
		if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType != contentTypeEventStream {
			resp.Body.Close()
			cancel()
			return nil, newErrorf(ErrNoCompatibleTransport, "stream responded with content type %q", resp.Header.Get("Content-Type"))
		}
		return newSSEConn(resp.Body, cancel), nil
	}
}

// sseConn parses the event stream format: "field: value" lines, frames
// separated by a blank line, lines starting with ':' are comments.
type sseConn struct {
	body   io.ReadCloser
	r      *bufio.Reader
	cancel context.CancelFunc

	closeOnce sync.Once
}

func newSSEConn(body io.ReadCloser, cancel context.CancelFunc) *sseConn {
	return &sseConn{
		body:   body,
		r:      bufio.NewReader(body),
		cancel: cancel,
	}
}

func (c *sseConn) Receive(ctx context.Context) (*StreamFrame, error) {
	var (
		f       StreamFrame
		data    bytes.Buffer
		hasData bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := c.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, newErrorf(ErrDisconnected, "stream closed by server")
			}
			return nil, newError(ErrDisconnected, err)
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if !hasData {
				// A frame without data is dropped; only the id and retry
				// fields survive it.
				if f.ID != "" || f.Retry > 0 {
					return &StreamFrame{ID: f.ID, Retry: f.Retry, Comment: true}, nil
				}
				f.Event = ""
				continue
			}
			f.Data = bytes.TrimSuffix(data.Bytes(), []byte("\n"))
			return &f, nil
		}
		if strings.HasPrefix(line, ":") {
			// Comments inside a frame are skipped; on their own they only
			// prove the stream is alive.
			if f.Event == "" && f.ID == "" && f.Retry == 0 && !hasData {
				return &StreamFrame{Comment: true}, nil
			}
			continue
		}

		field, value := line, ""
		if i := strings.IndexByte(line, ':'); i >= 0 {
			field, value = line[:i], strings.TrimPrefix(line[i+1:], " ")
		}
		switch field {
		case "event":
			f.Event = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				f.ID = value
			}
		case "retry":
			if ms, err := strconv.ParseUint(value, 10, 31); err == nil {
				f.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
}

func (c *sseConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.body.Close()
	})
	return err
}
