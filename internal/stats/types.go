package stats

import (
	"time"
)

type SystemInfo struct {
	OS           string        `json:"os"`
	Hostname     string        `json:"hostname"`
	SystemUptime time.Duration `json:"system_uptime"`

	CPUCores int     `json:"cpu_cores"`
	CPUUsage float64 `json:"cpu_usage"`

	MemUsed    uint64  `json:"mem_used"`
	MemTotal   uint64  `json:"mem_total"`
	MemPercent float64 `json:"mem_percent"`

	DiskUsed    uint64  `json:"disk_used"`
	DiskTotal   uint64  `json:"disk_total"`
	DiskPercent float64 `json:"disk_percent"`
	DiskFree    uint64  `json:"disk_free"`

	ProcessPID    int           `json:"process_pid"`
	ProcessUptime time.Duration `json:"process_uptime"`
	ProcessCPU    float64       `json:"process_cpu"`
	ProcessMem    uint64        `json:"process_mem"`

	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	GCRuns     uint32 `json:"gc_runs"`
}

// Snapshot is a point-in-time copy of the request counters.
type Snapshot struct {
	Analyses         int64     `json:"analyses"`
	AnalyzeFailures  int64     `json:"analyze_failures"`
	Prepared         int64     `json:"prepared"`
	Downloads        int64     `json:"downloads"`
	DownloadFailures int64     `json:"download_failures"`
	BytesServed      int64     `json:"bytes_served"`
	LastDownloadTime time.Time `json:"last_download_time"`
	Uptime           string    `json:"uptime"`
}
