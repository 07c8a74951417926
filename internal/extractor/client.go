package extractor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/singleflight"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	defaultReferer = "https://www.tiktok.com/"
	defaultOrigin  = "https://www.tiktok.com/"

	versionTimeout = 10 * time.Second
)

type Client struct {
	runner         *Runner
	analyzeTimeout time.Duration
	versions       singleflight.Group
}

func NewClient(runner *Runner, analyzeTimeout time.Duration) *Client {
	return &Client{
		runner:         runner,
		analyzeTimeout: analyzeTimeout,
	}
}

func (c *Client) Path() string {
	return c.runner.Path()
}

func (c *Client) Runner() *Runner {
	return c.runner
}

// Version runs --version outside the limiter. Concurrent probes share one process.
func (c *Client) Version(ctx context.Context) (string, error) {
	v, err, _ := c.versions.Do("version", func() (any, error) {
		out, err := c.runner.Probe(ctx, "version", versionTimeout, []string{"--version"})
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type MetadataRequest struct {
	URL        string
	CookieFile string
	UserAgent  string
}

// MetadataArgs builds the single-item --dump-json invocation.
func MetadataArgs(req MetadataRequest) []string {
	args := []string{
		"--no-playlist",
		"--dump-json",
		"--no-check-certificate",
		"--no-warnings",
		"--prefer-free-formats",
		"--geo-bypass",
		"--add-header", "Referer:" + defaultReferer,
		"--add-header", "Origin:" + defaultOrigin,
		req.URL,
	}

	if req.CookieFile != "" {
		args = append(args, "--cookies", req.CookieFile)
	}

	ua := req.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return append(args, "--user-agent", ua)
}

// Metadata fetches and decodes JSON metadata for a single URL.
func (c *Client) Metadata(ctx context.Context, req MetadataRequest) (*Metadata, error) {
	start := time.Now()

	out, err := c.runner.Run(ctx, "analyze", c.analyzeTimeout, MetadataArgs(req))
	if err != nil {
		logger.ErrorWithDuration("Metadata extraction failed", start, "url", req.URL, "error", err)
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, &Error{Kind: KindSystem, Op: "analyze", Err: errors.Wrap(err, "decode metadata")}
	}

	logger.InfoWithDuration("Metadata extracted", start, "url", req.URL, "title", meta.Title, "formats", len(meta.Formats))
	return &meta, nil
}
