package realtime

import (
	"runtime"
	"strings"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
)

const (
	agentHeader         = "X-Realtime-Agent"
	instanceHeader      = "X-Client-Instance"
	requestedWithHeader = "X-Requested-With"
	csrfHeader          = "X-CSRFToken"
	lastEventIDHeader   = "Last-Event-ID"
	libraryVersion      = "0.3.0"
	libraryName         = "realtime-go"
	protocolJSON        = rtutil.ContentTypeJSON
	protocolMsgpack     = rtutil.ContentTypeMsgpack
	requestedWithXHR    = "XMLHttpRequest"
)

// agentIdentifier is sent with every request, e.g.
// "realtime-go/0.3.0 go/1.24.1 linux/6.1.0".
func agentIdentifier() string {
	parts := []string{
		libraryName + "/" + libraryVersion,
		"go/" + strings.TrimPrefix(runtime.Version(), "go"),
	}
	if os := goOSIdentifier(); os != "" {
		parts = append(parts, os)
	}
	return strings.Join(parts, " ")
}
