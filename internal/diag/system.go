package diag

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemInfo is the host snapshot reported by the status endpoint
type SystemInfo struct {
	OS            string    `json:"os"`
	Architecture  string    `json:"architecture"`
	Hostname      string    `json:"hostname"`
	Platform      string    `json:"platform"`
	PlatformVer   string    `json:"platform_version"`
	KernelVersion string    `json:"kernel_version"`
	UpTime        uint64    `json:"uptime_seconds"`
	BootTime      time.Time `json:"boot_time"`
	AppStart      time.Time `json:"app_start_time"`
	NumCPU        int       `json:"num_cpu"`
	GoVersion     string    `json:"go_version"`
}

// ResourceInfo is the memory usage snapshot reported by the status endpoint
type ResourceInfo struct {
	MemoryTotal uint64  `json:"memory_total"`
	MemoryUsed  uint64  `json:"memory_used"`
	MemoryFree  uint64  `json:"memory_free"`
	MemoryUsage float64 `json:"memory_usage_percent"`
	ProcessMem  float64 `json:"process_memory_mb"`
}

func collectSystemInfo(appStart time.Time) (*SystemInfo, error) {
	info := &SystemInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		AppStart:     appStart,
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}

	hostInfo, err := host.Info()
	if err != nil {
		return info, err
	}
	info.Hostname = hostInfo.Hostname
	info.Platform = hostInfo.Platform
	info.PlatformVer = hostInfo.PlatformVersion
	info.KernelVersion = hostInfo.KernelVersion
	info.UpTime = hostInfo.Uptime
	info.BootTime = time.Unix(int64(hostInfo.BootTime), 0)
	return info, nil
}

func collectResourceInfo() (*ResourceInfo, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	info := &ResourceInfo{
		ProcessMem: float64(memStats.Alloc) / 1024 / 1024,
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return info, err
	}
	info.MemoryTotal = memInfo.Total
	info.MemoryUsed = memInfo.Used
	info.MemoryFree = memInfo.Free
	info.MemoryUsage = memInfo.UsedPercent
	return info, nil
}
