package handler

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// HandleStats reports counters, live tokens, extractor slots and a host snapshot.
func (h *Handler) HandleStats(c *gin.Context) {
	body := gin.H{
		"requests": h.stats.Snapshot(),
		"tokens": gin.H{
			"live":       h.tokens.Len(),
			"ttl":        h.tokens.TTL().String(),
			"single_use": h.tokens.SingleUse(),
		},
	}

	if h.jobs != nil {
		body["jobs"] = gin.H{
			"active":   h.jobs.Active(),
			"capacity": h.jobs.Capacity(),
		}
	}

	sysInfo, err := h.stats.GetSystemInfo(h.workDir)
	if err != nil {
		logger.Warn("Failed to collect system info", "error", err)
	} else {
		body["system"] = gin.H{
			"os":             sysInfo.OS,
			"hostname":       sysInfo.Hostname,
			"cpu_cores":      sysInfo.CPUCores,
			"cpu_usage":      humanize.FtoaWithDigits(sysInfo.CPUUsage, 1) + "%",
			"memory":         humanize.Bytes(sysInfo.MemUsed) + " / " + humanize.Bytes(sysInfo.MemTotal),
			"disk_free":      humanize.Bytes(sysInfo.DiskFree),
			"process_memory": humanize.Bytes(sysInfo.ProcessMem),
			"goroutines":     sysInfo.Goroutines,
			"go_version":     sysInfo.GoVersion,
			"uptime":         sysInfo.ProcessUptime.Round(time.Second).String(),
		}
	}

	c.JSON(http.StatusOK, body)
}
