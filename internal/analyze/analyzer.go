package analyze

import (
	"context"
	"encoding/json"

	"github.com/pavelc4/aether-fetch/internal/cookies"
	"github.com/pavelc4/aether-fetch/internal/extractor"
	"github.com/pavelc4/aether-fetch/internal/formats"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

type Request struct {
	URL       string
	Cookies   []json.RawMessage
	UserAgent string
}

// Result mirrors the /analyze response body; absent metadata encodes as null.
type Result struct {
	Title      string           `json:"title"`
	Thumbnail  *string          `json:"thumbnail"`
	Duration   *float64         `json:"duration"`
	WebpageURL *string          `json:"webpage_url"`
	Uploader   *string          `json:"uploader"`
	Formats    []formats.Option `json:"formats"`
}

type Analyzer struct {
	client  *extractor.Client
	workDir string
}

func NewAnalyzer(client *extractor.Client, workDir string) *Analyzer {
	return &Analyzer{client: client, workDir: workDir}
}

// Analyze fetches metadata and ranks the formats. The cookie file only lives for the call.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	var cookieFile string
	if len(req.Cookies) > 0 {
		dir, err := utils.NewWorkDir(a.workDir)
		if err != nil {
			return nil, &extractor.Error{Kind: extractor.KindSystem, Op: "analyze", Err: err}
		}
		defer utils.RemoveWorkDir(dir)

		cookieFile, err = cookies.Prepare(dir, req.Cookies)
		if err != nil {
			return nil, &extractor.Error{Kind: extractor.KindSystem, Op: "analyze", Err: err}
		}
	}

	meta, err := a.client.Metadata(ctx, extractor.MetadataRequest{
		URL:        req.URL,
		CookieFile: cookieFile,
		UserAgent:  req.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:      meta.Title,
		Thumbnail:  meta.Thumbnail,
		Duration:   meta.Duration,
		WebpageURL: meta.WebpageURL,
		Uploader:   meta.Uploader,
		Formats:    formats.Rank(meta.Formats),
	}, nil
}
