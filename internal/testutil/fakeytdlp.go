// Package testutil builds stand-in extractor executables for tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

const argsFile = "args.txt"

// recordArgs stores each argument on its own line next to the script.
const recordArgs = `printf '%s\n' "$@" > "$(dirname "$0")/` + argsFile + `"
`

const VersionScript = `if [ "$1" = "--version" ]; then echo 2024.08.06; exit 0; fi
`

// DownloadScript honours -o TEMPLATE and -x, writing a small file named after the template.
const DownloadScript = VersionScript + `out=""
audio=0
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    -x) audio=1; shift ;;
    *) shift ;;
  esac
done
ext=mp4
if [ "$audio" = 1 ]; then ext=mp3; fi
target=$(printf '%s' "$out" | sed "s/%(ext)s/$ext/")
printf 'fake-media-%s' "$ext" > "$target"
`

// NoOutputScript exits successfully without creating anything.
const NoOutputScript = VersionScript + `exit 0
`

func FailScript(stderr string, code int) string {
	return VersionScript + "echo '" + strings.ReplaceAll(stderr, "'", "") + "' >&2\nexit " + strconv.Itoa(code) + "\n"
}

func SleepScript(seconds int) string {
	return VersionScript + "sleep " + strconv.Itoa(seconds) + "\n"
}

func MetadataScript(json string) string {
	return VersionScript + "cat <<'JSON_EOF'\n" + json + "\nJSON_EOF\n"
}

// FakeExtractor writes an executable /bin/sh script into a temp dir and returns its path.
func FakeExtractor(t testing.TB, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake extractor needs /bin/sh")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "yt-dlp")
	script := "#!/bin/sh\n" + recordArgs + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake extractor: %v", err)
	}
	return path
}

// RecordedArgs returns the arguments of the last invocation of a fake extractor.
func RecordedArgs(t testing.TB, scriptPath string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(scriptPath), argsFile))
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
