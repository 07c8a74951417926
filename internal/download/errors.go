package download

import (
	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/extractor"
)

var ErrOutputMissing = errors.New("Download failed - no file created")

// Message is the client-facing text for a download failure.
func Message(err error) string {
	if errors.Is(err, ErrOutputMissing) {
		return ErrOutputMissing.Error()
	}
	if e, ok := extractor.AsError(err); ok {
		switch e.Kind {
		case extractor.KindProcess:
			return "Download backend failed: " + e.Stderr
		case extractor.KindTimeout:
			return "Download timed out"
		default:
			if e.Err != nil {
				return e.Err.Error()
			}
		}
	}
	return err.Error()
}
