package stats

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

const cpuSampleWindow = 200 * time.Millisecond

type Stats struct {
	mu        sync.RWMutex
	StartTime time.Time

	Analyses         int64
	AnalyzeFailures  int64
	Prepared         int64
	Downloads        int64
	DownloadFailures int64
	BytesServed      int64
	LastDownloadTime time.Time

	metrics *Metrics
}

func New() *Stats {
	return &Stats{
		StartTime: time.Now(),
		metrics:   NewMetrics(),
	}
}

func (s *Stats) Metrics() *Metrics {
	return s.metrics
}

func (s *Stats) RecordAnalyze(success bool, took time.Duration) {
	s.mu.Lock()
	s.Analyses++
	if !success {
		s.AnalyzeFailures++
	}
	s.mu.Unlock()

	s.metrics.observe("analyze", success, took)
}

func (s *Stats) RecordPrepare() {
	s.mu.Lock()
	s.Prepared++
	s.mu.Unlock()

	s.metrics.observe("prepare", true, 0)
}

func (s *Stats) RecordDownload(bytes int64, success bool, took time.Duration) {
	s.mu.Lock()
	s.Downloads++
	if success {
		s.BytesServed += bytes
		s.LastDownloadTime = time.Now()
	} else {
		s.DownloadFailures++
	}
	s.mu.Unlock()

	s.metrics.observe("download", success, took)
	if success {
		s.metrics.bytesServed.Add(float64(bytes))
	}
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Analyses:         s.Analyses,
		AnalyzeFailures:  s.AnalyzeFailures,
		Prepared:         s.Prepared,
		Downloads:        s.Downloads,
		DownloadFailures: s.DownloadFailures,
		BytesServed:      s.BytesServed,
		LastDownloadTime: s.LastDownloadTime,
		Uptime:           time.Since(s.StartTime).Round(time.Second).String(),
	}
}

// GetSystemInfo collects host and process figures. diskPath is usually the work dir.
func (s *Stats) GetSystemInfo(diskPath string) (*SystemInfo, error) {
	info := &SystemInfo{}

	if hostInfo, err := host.Info(); err == nil {
		info.OS = hostInfo.OS
		info.Hostname = hostInfo.Hostname
		info.SystemUptime = time.Duration(hostInfo.Uptime) * time.Second
	}

	if cpuPercent, err := cpu.Percent(cpuSampleWindow, false); err == nil && len(cpuPercent) > 0 {
		info.CPUUsage = cpuPercent[0]
	}
	info.CPUCores = runtime.NumCPU()

	if memInfo, err := mem.VirtualMemory(); err == nil {
		info.MemUsed = memInfo.Used
		info.MemTotal = memInfo.Total
		info.MemPercent = memInfo.UsedPercent
	}

	if diskPath == "" {
		diskPath = os.TempDir()
	}
	if diskInfo, err := disk.Usage(diskPath); err == nil {
		info.DiskUsed = diskInfo.Used
		info.DiskTotal = diskInfo.Total
		info.DiskPercent = diskInfo.UsedPercent
		info.DiskFree = diskInfo.Free
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpuPercent, err := proc.CPUPercent(); err == nil {
			info.ProcessCPU = cpuPercent
		}
		if memInfo, err := proc.MemoryInfo(); err == nil {
			info.ProcessMem = memInfo.RSS
		}
	}

	info.ProcessPID = os.Getpid()
	info.ProcessUptime = time.Since(s.StartTime)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	info.GoVersion = runtime.Version()
	info.Goroutines = runtime.NumGoroutine()
	info.HeapAlloc = m.Alloc
	info.GCRuns = m.NumGC

	return info, nil
}
