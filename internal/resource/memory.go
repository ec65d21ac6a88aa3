//go:build linux

package resource

import (
	"runtime"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// usedMemoryPct reports system memory utilization as a percentage. The
// second return is false when the kernel query fails.
func usedMemoryPct() (float64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	total := uint64(info.Totalram) * unit
	if total == 0 {
		return 0, false
	}
	available := (uint64(info.Freeram) + uint64(info.Bufferram)) * unit
	used := total - available
	return float64(used) / float64(total) * 100, true
}

// freeMemory returns heap pages to the OS after a cleanup pass.
func freeMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}
