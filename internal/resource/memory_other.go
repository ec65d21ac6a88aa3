//go:build !linux

package resource

import (
	"runtime"
	"runtime/debug"
)

// usedMemoryPct has no portable system-wide source off Linux; admission
// control falls back to the concurrency ceiling alone.
func usedMemoryPct() (float64, bool) {
	return 0, false
}

func freeMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}
