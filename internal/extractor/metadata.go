package extractor

// Metadata is the subset of the extractor's --dump-json document this service reads.
// Optional fields stay nil when the extractor omits them.
type Metadata struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Thumbnail  *string  `json:"thumbnail"`
	Duration   *float64 `json:"duration"`
	WebpageURL *string  `json:"webpage_url"`
	Uploader   *string  `json:"uploader"`
	Ext        string   `json:"ext"`
	Formats    []Format `json:"formats"`
}

// Format is one entry of the "formats" array. Zero values stand for unknown.
type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	VCodec         *string `json:"vcodec"`
	ACodec         *string `json:"acodec"`
	FileSize       float64 `json:"filesize"`
	FileSizeApprox float64 `json:"filesize_approx"`
	FormatNote     string  `json:"format_note"`
}
