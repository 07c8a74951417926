package cookies

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

const (
	header   = "# Netscape HTTP Cookie File"
	fileName = "cookies.txt"
)

// Record is a browser cookie as sent by the extension (chrome.cookies shape).
type Record struct {
	Domain         string
	Path           string
	Secure         bool
	ExpirationDate int64
	Name           string
	Value          string
}

type rawRecord struct {
	Domain         *string         `json:"domain"`
	Path           string          `json:"path"`
	Secure         json.RawMessage `json:"secure"`
	ExpirationDate json.RawMessage `json:"expirationDate"`
	Name           *string         `json:"name"`
	Value          json.RawMessage `json:"value"`
}

// Parse decodes cookie entries one by one. Entries that are not objects, lack a
// domain or name, or carry a non-numeric expirationDate are skipped.
func Parse(raw []json.RawMessage) []Record {
	out := make([]Record, 0, len(raw))
	for i, msg := range raw {
		rec, err := parseOne(msg)
		if err != nil {
			logger.Warn("Skipping cookie", "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func parseOne(msg json.RawMessage) (Record, error) {
	var r rawRecord
	if err := json.Unmarshal(msg, &r); err != nil {
		return Record{}, errors.Wrap(err, "decode cookie")
	}
	if r.Domain == nil {
		return Record{}, errors.New("missing domain")
	}
	if r.Name == nil {
		return Record{}, errors.New("missing name")
	}

	expires, err := parseExpiration(r.ExpirationDate)
	if err != nil {
		return Record{}, err
	}

	path := r.Path
	if path == "" {
		path = "/"
	}

	return Record{
		Domain:         *r.Domain,
		Path:           path,
		Secure:         truthy(r.Secure),
		ExpirationDate: expires,
		Name:           *r.Name,
		Value:          scalarText(r.Value),
	}, nil
}

// truthy treats null, false, 0, "" and empty arrays or objects as false.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`, "[]", "{}":
		return false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num != 0
	}
	return true
}

// scalarText renders a string as-is and any other JSON value as its literal text.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseExpiration truncates a float (or numeric string) timestamp; absent or null means 0.
func parseExpiration(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return int64(num), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.Errorf("invalid expirationDate %s", raw)
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Errorf("non-numeric expirationDate %q", s)
	}
	return int64(num), nil
}

// Line renders a single record in Netscape format, without the trailing newline.
func Line(r Record) string {
	flag := "FALSE"
	if strings.HasPrefix(r.Domain, ".") {
		flag = "TRUE"
	}
	secure := "FALSE"
	if r.Secure {
		secure = "TRUE"
	}
	expires := "0"
	if r.ExpirationDate != 0 {
		expires = strconv.FormatInt(r.ExpirationDate, 10)
	}
	return strings.Join([]string{r.Domain, flag, r.Path, secure, expires, r.Name, r.Value}, "\t")
}

func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := bw.WriteString(Line(r) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes records into dir/cookies.txt and returns its path.
// It returns "" without touching the disk when there is nothing to write.
// The file lives inside the caller's working directory; removing that directory cleans it up.
func WriteFile(dir string, records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	path := filepath.Join(dir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", errors.Wrap(err, "create cookie file")
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return "", errors.Wrap(err, "write cookie file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close cookie file")
	}
	return path, nil
}

// Prepare parses raw entries and writes the cookie file in one step.
func Prepare(dir string, raw []json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	return WriteFile(dir, Parse(raw))
}
