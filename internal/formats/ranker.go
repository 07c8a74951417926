package formats

import (
	"fmt"

	"github.com/pavelc4/aether-fetch/internal/extractor"
)

const (
	preferredExt = "mp4"
	noCodec      = "none"
	megabyte     = 1024 * 1024

	AudioID      = "bestaudio"
	AudioQuality = "128kbps"
	TypeVideo    = "video"
	TypeAudio    = "audio"
)

// Tier is a coarse resolution bucket. Tiers is ordered from highest to lowest.
type Tier struct {
	Name string
	Min  int
}

var Tiers = []Tier{
	{"2160p", 2160},
	{"1440p", 1440},
	{"1080p", 1080},
	{"720p", 720},
	{"480p", 480},
	{"360p", 360},
}

// Option is one entry offered to the client.
type Option struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Quality   string `json:"quality"`
	Height    int    `json:"height,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	SizeText  string `json:"size_text"`
}

type winner struct {
	formatID string
	ext      string
	height   int
	size     int64
	vertical bool
}

// Rank picks one video format per tier plus a trailing audio-only option.
// It is a pure function of its input.
func Rank(candidates []extractor.Format) []Option {
	winners := make(map[string]winner, len(Tiers))

	for _, f := range candidates {
		if isAudioOnly(f) || f.Height <= 0 {
			continue
		}

		dim, vertical := compareDimension(f)
		tier, ok := tierFor(dim)
		if !ok {
			continue
		}

		next := winner{
			formatID: f.FormatID,
			ext:      f.Ext,
			height:   f.Height,
			size:     sizeOf(f),
			vertical: vertical,
		}

		cur, seen := winners[tier]
		switch {
		case !seen:
			winners[tier] = next
		case cur.ext != preferredExt && next.ext == preferredExt:
			winners[tier] = next
		case cur.ext == next.ext && next.size > cur.size:
			winners[tier] = next
		}
	}

	audioSize := bestAudioSize(candidates)

	out := make([]Option, 0, len(winners)+1)
	for _, t := range Tiers {
		w, ok := winners[t.Name]
		if !ok {
			continue
		}
		quality := t.Name
		if w.vertical {
			quality += " (Vertical)"
		}
		total := w.size + audioSize
		out = append(out, Option{
			ID:        w.formatID,
			Type:      TypeVideo,
			Quality:   quality,
			Height:    w.height,
			SizeBytes: total,
			SizeText:  SizeText(total),
		})
	}

	return append(out, Option{
		ID:        AudioID,
		Type:      TypeAudio,
		Quality:   AudioQuality,
		SizeBytes: audioSize,
		SizeText:  SizeText(audioSize),
	})
}

// SizeText renders bytes as "12.3 MB", or "Estimate" when unknown.
func SizeText(size int64) string {
	if size <= 0 {
		return "Estimate"
	}
	return fmt.Sprintf("%.1f MB", float64(size)/megabyte)
}

// compareDimension uses width for portrait video so 1080x1920 lands in 1080p.
func compareDimension(f extractor.Format) (int, bool) {
	if f.Width > 0 && f.Height > f.Width {
		return f.Width, true
	}
	return f.Height, false
}

func tierFor(dim int) (string, bool) {
	for _, t := range Tiers {
		if dim >= t.Min {
			return t.Name, true
		}
	}
	return "", false
}

func bestAudioSize(candidates []extractor.Format) int64 {
	var best int64
	for _, f := range candidates {
		if !isAudioOnly(f) || codec(f.ACodec) == noCodec {
			continue
		}
		if s := sizeOf(f); s > best {
			best = s
		}
	}
	return best
}

func isAudioOnly(f extractor.Format) bool {
	return codec(f.VCodec) == noCodec
}

func codec(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}

func sizeOf(f extractor.Format) int64 {
	if f.FileSize > 0 {
		return int64(f.FileSize)
	}
	if f.FileSizeApprox > 0 {
		return int64(f.FileSizeApprox)
	}
	return 0
}
