package realtime

import (
	"context"
	"net/http"
	"net/url"

	"nhooyr.io/websocket"
)

const maxWebsocketFrame = 1 << 20

type websocketConn struct {
	conn *websocket.Conn
}

// dialWebSocket returns a DialFunc that opens a WebSocket over hc. http and
// https URLs are dialed as ws and wss.
func dialWebSocket(hc *http.Client) DialFunc {
	return func(ctx context.Context, rawURL string, header http.Header) (StreamConn, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, newError(ErrInvalidEndpoint, err)
		}
		switch u.Scheme {
		case "http":
			u.Scheme = "ws"
		case "https":
			u.Scheme = "wss"
		}
		conn, resp, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
			HTTPClient: hc,
			HTTPHeader: header,
		})
		if err != nil {
			if resp != nil && resp.StatusCode >= 300 {
				return nil, checkValidHTTPResponse(resp.StatusCode, resp.Header.Get("Content-Type"), nil)
			}
			return nil, newError(ErrConnectionFailed, err)
		}
		conn.SetReadLimit(maxWebsocketFrame)
		return &websocketConn{conn: conn}, nil
	}
}

func (ws *websocketConn) Receive(ctx context.Context) (*StreamFrame, error) {
	typ, p, err := ws.conn.Read(ctx)
	if err != nil {
		return nil, newError(ErrDisconnected, err)
	}
	return &StreamFrame{
		Data:   p,
		Binary: typ == websocket.MessageBinary,
	}, nil
}

func (ws *websocketConn) Close() error {
	return ws.conn.Close(websocket.StatusNormalClosure, "")
}
