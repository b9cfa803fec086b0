// file: internal/sysinfo/memory_darwin.go
// version: 2.0.0
// guid: 8b9c0d1e-2f3a-4b5c-6d7e-8f9a0b1c2d3e

//go:build darwin

package sysinfo

import (
	"syscall"
	"unsafe"
)

// readPlatformMemory returns total physical memory via sysctl hw.memsize.
// macOS has no cheap MemAvailable equivalent without mach host_statistics,
// so available is approximated as 80% of total.
func readPlatformMemory() (total, available uint64) {
	mib := []int32{6 /* CTL_HW */, 24 /* HW_MEMSIZE */}
	var memsize uint64
	length := unsafe.Sizeof(memsize)

	_, _, errno := syscall.Syscall6(
		syscall.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(len(mib)),
		uintptr(unsafe.Pointer(&memsize)),
		uintptr(unsafe.Pointer(&length)),
		0, 0,
	)
	if errno != 0 {
		return 0, 0
	}
	return memsize, memsize * 80 / 100
}
