//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package realtime

import "runtime"

func goOSIdentifier() string {
	return runtime.GOOS
}
