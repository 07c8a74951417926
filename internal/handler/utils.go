package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

const maxBodyBytes = 1 << 20

var (
	ErrMissingURL  = errors.New("No URL provided")
	ErrInvalidBody = errors.New("Invalid request body")
)

type analyzeBody struct {
	URL       string            `json:"url"`
	Cookies   []json.RawMessage `json:"cookies"`
	UserAgent string            `json:"userAgent"`
}

type prepareBody struct {
	URL      string            `json:"url"`
	Format   string            `json:"format"`
	Quality  flexString        `json:"quality"`
	FormatID flexString        `json:"format_id"`
	Cookies  []json.RawMessage `json:"cookies"`
}

// flexString accepts a JSON string or number; the extension sends heights as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "expected string or number")
	}
	*f = flexString(n.String())
	return nil
}

// bindBody decodes a JSON body; an empty body decodes as {}.
func bindBody(c *gin.Context, v any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(ErrInvalidBody, err.Error())
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(ErrInvalidBody, err.Error())
	}
	return nil
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func respondBindError(c *gin.Context, err error) {
	logger.Debug("Rejected request body", "path", c.Request.URL.Path, "error", err)
	respondError(c, http.StatusBadRequest, ErrInvalidBody.Error())
}

func attachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment; filename=" + strings.ReplaceAll(name, `"`, "")
}
