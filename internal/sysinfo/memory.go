// file: internal/sysinfo/memory.go
// version: 2.0.0
// guid: 7a8b9c0d-1e2f-3a4b-5c6d-7e8f9a0b1c2d

// Package sysinfo reports system memory usage for the health endpoint.
package sysinfo

import (
	"runtime"
)

// MemoryStats is the memory block of the /health response.
type MemoryStats struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	UsedPercent    float64 `json:"used_percent"`
}

// memoryReader is swapped out in tests.
var memoryReader = readPlatformMemory

// GetMemoryStats returns current system memory usage. When the platform
// reader cannot determine system totals it falls back to the Go runtime's
// own allocation figures, with totals reported as zero.
func GetMemoryStats() (*MemoryStats, error) {
	total, available := memoryReader()
	if total == 0 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return &MemoryStats{UsedBytes: m.Sys}, nil
	}

	used := total - available
	return &MemoryStats{
		TotalBytes:     total,
		AvailableBytes: available,
		UsedBytes:      used,
		UsedPercent:    float64(used) / float64(total) * 100.0,
	}, nil
}
