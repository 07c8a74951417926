package download

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/extractor"
	"github.com/pavelc4/aether-fetch/internal/testutil"
)

func TestBuildSelector(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{name: "audio wins over everything", req: Request{Format: "audio", FormatID: "137", Quality: "1080"}, want: "bestaudio/best"},
		{name: "explicit format id", req: Request{Format: "video", FormatID: "137", Quality: "1080"}, want: "137+bestaudio/best"},
		{name: "ladder quality", req: Request{Quality: "720"}, want: "bestvideo[height=720]+bestaudio/bestvideo[height<=720]+bestaudio/best"},
		{name: "ladder quality with p suffix", req: Request{Quality: "1080p"}, want: "bestvideo[height=1080]+bestaudio/bestvideo[height<=1080]+bestaudio/best"},
		{name: "off ladder number", req: Request{Quality: "1000"}, want: "1000+bestaudio/best"},
		{name: "free form quality", req: Request{Quality: "hd"}, want: "hd+bestaudio/best"},
		{name: "nothing given", req: Request{}, want: "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildSelector(tt.req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildArgs(t *testing.T) {
	args := BuildArgs(Request{URL: "https://example.com/v", Format: "audio"}, "/w/temp_1.%(ext)s", "/w/cookies.txt")

	for _, want := range []string{"--no-playlist", "--merge-output-format", "-x", "https://example.com/v"} {
		if !slices.Contains(args, want) {
			t.Errorf("expected %q in %v", want, args)
		}
	}
	if i := slices.Index(args, "-o"); i < 0 || args[i+1] != "/w/temp_1.%(ext)s" {
		t.Errorf("expected output template, got %v", args)
	}
	if i := slices.Index(args, "--audio-format"); i < 0 || args[i+1] != "mp3" {
		t.Errorf("expected mp3 conversion, got %v", args)
	}
	if i := slices.Index(args, "--cookies"); i < 0 || args[i+1] != "/w/cookies.txt" {
		t.Errorf("expected cookies arg, got %v", args)
	}

	video := BuildArgs(Request{URL: "u"}, "o", "")
	if slices.Contains(video, "-x") || slices.Contains(video, "--cookies") {
		t.Errorf("video without cookies should not extract audio or pass cookies: %v", video)
	}
}

func newTestDownloader(t *testing.T, script string, timeout time.Duration) (*Downloader, string, string) {
	t.Helper()
	path := testutil.FakeExtractor(t, script)
	work := t.TempDir()
	d := NewDownloader(extractor.NewRunner(path, extractor.NewLimiter(2)), work, timeout)
	d.now = func() time.Time { return time.Unix(1700000000, 0) }
	return d, path, work
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected work root to be empty, found %d entries", len(entries))
	}
}

func TestDownload(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		wantName string
		wantType string
		wantData string
	}{
		{
			name:     "video",
			req:      Request{URL: "https://example.com/v", Quality: "720"},
			wantName: "video_1700000000.mp4",
			wantType: "video/mp4",
			wantData: "fake-media-mp4",
		},
		{
			name:     "audio",
			req:      Request{URL: "https://example.com/v", Format: "audio"},
			wantName: "video_1700000000.mp3",
			wantType: "audio/mpeg",
			wantData: "fake-media-mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, work := newTestDownloader(t, testutil.DownloadScript, 10*time.Second)

			res, err := d.Download(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Download failed: %v", err)
			}
			if res.FileName != tt.wantName || res.ContentType != tt.wantType {
				t.Errorf("expected %s (%s), got %s (%s)", tt.wantName, tt.wantType, res.FileName, res.ContentType)
			}
			if string(res.Data) != tt.wantData {
				t.Errorf("expected data %q, got %q", tt.wantData, res.Data)
			}
			assertEmptyDir(t, work)
		})
	}
}

func TestDownloadPassesCookieFile(t *testing.T) {
	d, script, work := newTestDownloader(t, testutil.DownloadScript, 10*time.Second)

	req := Request{
		URL:     "https://example.com/v",
		Cookies: []json.RawMessage{json.RawMessage(`{"domain":".example.com","name":"sid","value":"1"}`)},
	}
	if _, err := d.Download(context.Background(), req); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	args := testutil.RecordedArgs(t, script)
	i := slices.Index(args, "--cookies")
	if i < 0 {
		t.Fatalf("expected --cookies in %v", args)
	}
	if !strings.HasPrefix(args[i+1], work) || filepath.Base(args[i+1]) != "cookies.txt" {
		t.Errorf("cookie file should live in the work dir, got %q", args[i+1])
	}
	assertEmptyDir(t, work)
}

func TestDownloadFailures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		check   func(t *testing.T, err error)
	}{
		{
			name:    "process error",
			script:  testutil.FailScript("ERROR: Requested format is not available", 1),
			timeout: 10 * time.Second,
			check: func(t *testing.T, err error) {
				if got := Message(err); got != "Download backend failed: ERROR: Requested format is not available" {
					t.Errorf("unexpected message %q", got)
				}
			},
		},
		{
			name:    "no output",
			script:  testutil.NoOutputScript,
			timeout: 10 * time.Second,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrOutputMissing) {
					t.Errorf("expected ErrOutputMissing, got %v", err)
				}
				if got := Message(err); got != "Download failed - no file created" {
					t.Errorf("unexpected message %q", got)
				}
			},
		},
		{
			name:    "timeout",
			script:  testutil.SleepScript(30),
			timeout: 300 * time.Millisecond,
			check: func(t *testing.T, err error) {
				if !extractor.IsTimeout(err) {
					t.Errorf("expected timeout, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, work := newTestDownloader(t, tt.script, tt.timeout)

			req := Request{
				URL:     "https://example.com/v",
				Cookies: []json.RawMessage{json.RawMessage(`{"domain":"example.com","name":"a"}`)},
			}
			res, err := d.Download(context.Background(), req)
			if err == nil {
				t.Fatalf("expected error, got result %+v", res)
			}
			tt.check(t, err)
			assertEmptyDir(t, work)
		})
	}
}
