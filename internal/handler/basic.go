package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHome is the liveness probe. It always answers 200; a broken extractor
// shows up in yt_dlp_version.
func (h *Handler) HandleHome(c *gin.Context) {
	path := ""
	version := "Unknown"
	if h.prober != nil {
		path = h.prober.Path()
		v, err := h.prober.Version(c.Request.Context())
		if err != nil {
			version = "Error: " + err.Error()
		} else {
			version = v
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "running",
		"yt_dlp_path":    path,
		"yt_dlp_version": version,
	})
}
