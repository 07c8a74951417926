package download

import (
	"slices"
	"strconv"
	"strings"
)

const (
	FormatAudio = "audio"

	audioSelector   = "bestaudio/best"
	defaultSelector = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
)

// QualityLadder lists the heights that get an exact-height selector.
var QualityLadder = []int{144, 240, 360, 480, 720, 1080, 1440, 2160}

// BuildSelector turns a request into a yt-dlp --format expression.
func BuildSelector(req Request) string {
	if req.IsAudio() {
		return audioSelector
	}
	if req.FormatID != "" {
		return req.FormatID + "+bestaudio/best"
	}
	if req.Quality != "" {
		q := strings.TrimSuffix(strings.TrimSpace(req.Quality), "p")
		if h, err := strconv.Atoi(q); err == nil && slices.Contains(QualityLadder, h) {
			return "bestvideo[height=" + q + "]+bestaudio/bestvideo[height<=" + q + "]+bestaudio/best"
		}
		return req.Quality + "+bestaudio/best"
	}
	return defaultSelector
}
