// file: internal/sysinfo/memory_test.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package sysinfo

import (
	"testing"
)

func TestGetMemoryStats(t *testing.T) {
	original := memoryReader
	t.Cleanup(func() { memoryReader = original })

	memoryReader = func() (uint64, uint64) {
		return 8 << 30, 2 << 30
	}

	stats, err := GetMemoryStats()
	if err != nil {
		t.Fatalf("GetMemoryStats failed: %v", err)
	}
	if stats.TotalBytes != 8<<30 {
		t.Errorf("TotalBytes = %d, want %d", stats.TotalBytes, uint64(8<<30))
	}
	if stats.AvailableBytes != 2<<30 {
		t.Errorf("AvailableBytes = %d, want %d", stats.AvailableBytes, uint64(2<<30))
	}
	if stats.UsedBytes != 6<<30 {
		t.Errorf("UsedBytes = %d, want %d", stats.UsedBytes, uint64(6<<30))
	}
	if stats.UsedPercent != 75.0 {
		t.Errorf("UsedPercent = %.2f, want 75.00", stats.UsedPercent)
	}
}

func TestGetMemoryStatsRuntimeFallback(t *testing.T) {
	original := memoryReader
	t.Cleanup(func() { memoryReader = original })

	memoryReader = func() (uint64, uint64) { return 0, 0 }

	stats, err := GetMemoryStats()
	if err != nil {
		t.Fatalf("GetMemoryStats failed: %v", err)
	}
	if stats.TotalBytes != 0 || stats.AvailableBytes != 0 {
		t.Error("fallback should report zero system totals")
	}
	if stats.UsedBytes == 0 {
		t.Error("fallback should report the runtime's own usage")
	}
	if stats.UsedPercent != 0 {
		t.Errorf("UsedPercent = %.2f in fallback, want 0", stats.UsedPercent)
	}
}

func TestReadPlatformMemory(t *testing.T) {
	total, available := readPlatformMemory()
	if total == 0 {
		t.Skip("platform memory not readable here")
	}
	if available > total {
		t.Errorf("available %d exceeds total %d", available, total)
	}
}
