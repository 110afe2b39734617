package rtutil

import (
	"bytes"
	"mime"
	"reflect"

	"github.com/ugorji/go/codec"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/x-msgpack"
)

var (
	jsonHandle    codec.JsonHandle
	msgpackHandle codec.MsgpackHandle
)

func init() {
	// Schema-less maps decode as map[string]interface{} in both formats so
	// update payloads look the same no matter which wire format carried them.
	mapType := reflect.TypeOf(map[string]interface{}(nil))

	jsonHandle.MapType = mapType
	jsonHandle.SignedInteger = true

	msgpackHandle.MapType = mapType
	msgpackHandle.SignedInteger = true
	msgpackHandle.RawToString = true
	msgpackHandle.WriteExt = true
}

// UnmarshalJSON decodes the JSON-encoded data and stores the result in the
// value pointed to by v.
func UnmarshalJSON(data []byte, v interface{}) error {
	return codec.NewDecoderBytes(data, &jsonHandle).Decode(v)
}

// MarshalJSON returns the JSON encoding of v.
func MarshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, &jsonHandle).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalMsgpack decodes the MessagePack-encoded data and stores the result
// in the value pointed to by v.
func UnmarshalMsgpack(data []byte, v interface{}) error {
	return codec.NewDecoderBytes(data, &msgpackHandle).Decode(v)
}

// MarshalMsgpack returns the msgpack encoding of v.
func MarshalMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, &msgpackHandle).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal picks the codec from a Content-Type header value. Anything that
// is not msgpack is treated as JSON, which is what the server sends by
// default.
func Unmarshal(contentType string, data []byte, v interface{}) error {
	if IsMsgpack(contentType) {
		return UnmarshalMsgpack(data, v)
	}
	return UnmarshalJSON(data, v)
}

// IsMsgpack reports whether a Content-Type header value names msgpack.
func IsMsgpack(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeMsgpack
}
