package download

import (
	"encoding/json"
	"strconv"
)

const (
	MimeVideo = "video/mp4"
	MimeAudio = "audio/mpeg"

	extVideo = "mp4"
	extAudio = "mp3"
)

// Request is a resolved download job as captured by prepare.
type Request struct {
	URL      string
	Format   string
	Quality  string
	FormatID string
	Cookies  []json.RawMessage
}

func (r Request) IsAudio() bool {
	return r.Format == FormatAudio
}

// Result is the finished media held in memory; the on-disk copy is already gone.
type Result struct {
	Data        []byte
	FileName    string
	ContentType string
}

// FileName is the attachment name offered to the browser.
func FileName(ts int64, audio bool) string {
	ext := extVideo
	if audio {
		ext = extAudio
	}
	return "video_" + strconv.FormatInt(ts, 10) + "." + ext
}

func ContentType(audio bool) string {
	if audio {
		return MimeAudio
	}
	return MimeVideo
}
