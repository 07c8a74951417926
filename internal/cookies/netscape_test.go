package cookies

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func raw(t *testing.T, entries ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, json.RawMessage(e))
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    int
	}{
		{
			name:    "well formed cookies are kept",
			entries: []string{`{"domain":".example.com","path":"/","secure":true,"expirationDate":1700000000.75,"name":"a","value":"1"}`, `{"domain":"example.com","name":"b","value":"2"}`},
			want:    2,
		},
		{
			name:    "missing name is skipped",
			entries: []string{`{"domain":"example.com","value":"x"}`, `{"domain":"example.com","name":"ok"}`},
			want:    1,
		},
		{
			name:    "missing domain is skipped",
			entries: []string{`{"name":"sid","value":"x"}`},
			want:    0,
		},
		{
			name:    "non numeric expiration is skipped",
			entries: []string{`{"domain":"a.com","name":"n","expirationDate":"soon"}`, `{"domain":"a.com","name":"m","expirationDate":"1700000000"}`},
			want:    1,
		},
		{
			name:    "non object entry is skipped",
			entries: []string{`"cookie"`, `42`, `{"domain":"a.com","name":"n"}`},
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(raw(t, tt.entries...))
			if len(got) != tt.want {
				t.Fatalf("expected %d records, got %d (%+v)", tt.want, len(got), got)
			}
		})
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name:   "leading dot domain sets flag",
			record: Record{Domain: ".example.com", Path: "/", Secure: true, ExpirationDate: 1700000000, Name: "sid", Value: "abc"},
			want:   ".example.com\tTRUE\t/\tTRUE\t1700000000\tsid\tabc",
		},
		{
			name:   "host only session cookie",
			record: Record{Domain: "example.com", Path: "/watch", Name: "pref", Value: "x=1"},
			want:   "example.com\tFALSE\t/watch\tFALSE\t0\tpref\tx=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.record); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseExpirationTruncates(t *testing.T) {
	recs := Parse(raw(t, `{"domain":"a.com","name":"n","expirationDate":1712345678.999}`, `{"domain":"a.com","name":"m"}`))
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ExpirationDate != 1712345678 {
		t.Errorf("expected truncated expiry, got %d", recs[0].ExpirationDate)
	}
	if !strings.Contains(Line(recs[1]), "\t0\t") {
		t.Errorf("missing expirationDate should render 0, got %q", Line(recs[1]))
	}
	if recs[1].Path != "/" {
		t.Errorf("missing path should default to /, got %q", recs[1].Path)
	}
}

func TestParseLooseTypes(t *testing.T) {
	tests := []struct {
		name       string
		entry      string
		wantSecure bool
		wantValue  string
	}{
		{name: "numeric secure", entry: `{"domain":"a.com","name":"n","secure":1,"value":"v"}`, wantSecure: true, wantValue: "v"},
		{name: "zero secure", entry: `{"domain":"a.com","name":"n","secure":0}`, wantSecure: false},
		{name: "string secure", entry: `{"domain":"a.com","name":"n","secure":"yes"}`, wantSecure: true},
		{name: "empty string secure", entry: `{"domain":"a.com","name":"n","secure":""}`, wantSecure: false},
		{name: "null secure", entry: `{"domain":"a.com","name":"n","secure":null}`, wantSecure: false},
		{name: "numeric value", entry: `{"domain":"a.com","name":"n","value":123}`, wantValue: "123"},
		{name: "null value", entry: `{"domain":"a.com","name":"n","value":null}`, wantValue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := Parse(raw(t, tt.entry))
			if len(recs) != 1 {
				t.Fatalf("expected the cookie to be kept, got %d records", len(recs))
			}
			if recs[0].Secure != tt.wantSecure {
				t.Errorf("expected secure %v, got %v", tt.wantSecure, recs[0].Secure)
			}
			if recs[0].Value != tt.wantValue {
				t.Errorf("expected value %q, got %q", tt.wantValue, recs[0].Value)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := Prepare(dir, raw(t,
		`{"domain":".example.com","name":"a","value":"1"}`,
		`{"domain":"example.com"}`,
		`{"domain":"example.com","name":"b","value":"2","secure":true}`,
	))
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if path == "" {
		t.Fatal("expected a cookie file path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cookie file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != header {
		t.Errorf("expected header line, got %q", lines[0])
	}
	if len(lines)-1 != 2 {
		t.Fatalf("expected 2 data lines, got %d: %q", len(lines)-1, lines[1:])
	}
	for _, l := range lines[1:] {
		if n := len(strings.Split(l, "\t")); n != 7 {
			t.Errorf("expected 7 fields, got %d in %q", n, l)
		}
	}
	if fields := strings.Split(lines[1], "\t"); fields[1] != "TRUE" {
		t.Errorf("expected TRUE flag for dotted domain, got %q", fields[1])
	}
}

func TestWriteFileEmpty(t *testing.T) {
	dir := t.TempDir()

	path, err := Prepare(dir, nil)
	if err != nil || path != "" {
		t.Fatalf("expected no file for empty input, got %q, %v", path, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty dir, found %d entries", len(entries))
	}
}
