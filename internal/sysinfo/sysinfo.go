// Package sysinfo reports the sentinel host's own health for the status API.
// It uses gopsutil for cross-platform system telemetry.
package sysinfo

import (
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot holds a point-in-time view of the sentinel process host.
type Snapshot struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	CPUUsage      float64 `json:"cpu_usage"` // percent 0-100
	MemUsage      float64 `json:"mem_usage"` // percent 0-100
}

// Collect gathers the current host snapshot. Individual probe failures
// leave the corresponding field at its zero value.
func Collect() Snapshot {
	snap := Snapshot{OS: detailedOS()}

	if info, err := host.Info(); err == nil {
		snap.Hostname = info.Hostname
		snap.UptimeSeconds = info.Uptime
	}
	if pcts, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(pcts) > 0 {
		snap.CPUUsage = pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemUsage = vm.UsedPercent
	}
	return snap
}

// detailedOS returns a descriptive OS version string, or runtime.GOOS as fallback.
func detailedOS() string {
	info, err := host.Info()
	if err == nil && info.Platform != "" {
		if info.PlatformVersion != "" {
			return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
		return info.Platform
	}
	return runtime.GOOS
}
