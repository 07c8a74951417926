package download

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/cookies"
	"github.com/pavelc4/aether-fetch/internal/extractor"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

const DefaultTimeout = 300 * time.Second

const downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Downloader struct {
	runner  *extractor.Runner
	workDir string
	timeout time.Duration
	now     func() time.Time
}

func NewDownloader(runner *extractor.Runner, workDir string, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Downloader{
		runner:  runner,
		workDir: workDir,
		timeout: timeout,
		now:     time.Now,
	}
}

// BuildArgs assembles the download invocation writing to outTemplate.
func BuildArgs(req Request, outTemplate, cookieFile string) []string {
	args := []string{
		"--no-playlist",
		"--format", BuildSelector(req),
		"--merge-output-format", "mp4",
		"-o", outTemplate,
		"--no-warnings",
		"--no-check-certificate",
		"--prefer-free-formats",
		req.URL,
	}

	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	if req.IsAudio() {
		args = append(args, "-x", "--audio-format", "mp3")
	}

	return append(args, "--user-agent", downloadUserAgent)
}

// Download runs the extractor in a private working directory, loads the
// produced file into memory and removes the directory on every path.
func (d *Downloader) Download(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	dir, err := utils.NewWorkDir(d.workDir)
	if err != nil {
		return nil, &extractor.Error{Kind: extractor.KindSystem, Op: "download", Err: err}
	}
	defer utils.RemoveWorkDir(dir)

	cookieFile, err := cookies.Prepare(dir, req.Cookies)
	if err != nil {
		return nil, &extractor.Error{Kind: extractor.KindSystem, Op: "download", Err: err}
	}

	ts := d.now().Unix()
	base := "temp_" + strconv.FormatInt(ts, 10)
	outTemplate := filepath.Join(dir, base+".%(ext)s")

	logger.Info("Starting download", "url", req.URL, "format", req.Format, "quality", req.Quality, "format_id", req.FormatID, "cookies", cookieFile != "")

	if _, err := d.runner.Run(ctx, "download", d.timeout, BuildArgs(req, outTemplate, cookieFile)); err != nil {
		logger.ErrorWithDuration("Download failed", start, "url", req.URL, "error", err)
		return nil, err
	}

	path, ok := utils.FindByPrefix(dir, base)
	if !ok {
		logger.ErrorWithDuration("Download produced no file", start, "url", req.URL)
		return nil, ErrOutputMissing
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &extractor.Error{Kind: extractor.KindSystem, Op: "download", Err: errors.Wrap(err, "read output")}
	}

	audio := req.IsAudio()
	logger.InfoWithDuration("Download completed", start, "url", req.URL, "file", filepath.Base(path), "size", len(data))

	return &Result{
		Data:        data,
		FileName:    FileName(ts, audio),
		ContentType: ContentType(audio),
	}, nil
}
