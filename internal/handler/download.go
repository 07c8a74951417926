package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/analyze"
	"github.com/pavelc4/aether-fetch/internal/download"
	"github.com/pavelc4/aether-fetch/internal/extractor"
	"github.com/pavelc4/aether-fetch/internal/token"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

func (h *Handler) HandleAnalyze(c *gin.Context) {
	var body analyzeBody
	if err := bindBody(c, &body); err != nil {
		respondBindError(c, err)
		return
	}

	url := strings.TrimSpace(body.URL)
	if url == "" {
		respondError(c, http.StatusBadRequest, ErrMissingURL.Error())
		return
	}

	start := time.Now()
	res, err := h.analyzer.Analyze(c.Request.Context(), analyze.Request{
		URL:       url,
		Cookies:   body.Cookies,
		UserAgent: body.UserAgent,
	})
	h.stats.RecordAnalyze(err == nil, time.Since(start))
	if err != nil {
		respondError(c, http.StatusInternalServerError, analyzeMessage(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

func analyzeMessage(err error) string {
	if e, ok := extractor.AsError(err); ok {
		return e.Message()
	}
	return "System Error: " + err.Error()
}

// HandlePrepare stores the download parameters and hands back a token for a plain GET.
func (h *Handler) HandlePrepare(c *gin.Context) {
	var body prepareBody
	if err := bindBody(c, &body); err != nil {
		respondBindError(c, err)
		return
	}

	url := strings.TrimSpace(body.URL)
	if url == "" {
		respondError(c, http.StatusBadRequest, ErrMissingURL.Error())
		return
	}

	tok := h.tokens.Put(token.Request{
		URL:      url,
		Format:   body.Format,
		Quality:  string(body.Quality),
		FormatID: string(body.FormatID),
		Cookies:  body.Cookies,
	})
	h.stats.RecordPrepare()

	logger.Info("Download prepared", "token", shortToken(tok), "url", url, "format", body.Format)
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

// HandleTrigger runs the stored download and streams the file as an attachment.
func (h *Handler) HandleTrigger(c *gin.Context) {
	tok := c.Param("token")

	req, err := h.tokens.Get(tok)
	if err != nil {
		if !errors.Is(err, token.ErrNotFound) {
			logger.Error("Token lookup failed", "error", err)
		}
		respondError(c, http.StatusNotFound, "Invalid or expired download token")
		return
	}

	logger.Info("Triggering download", "token", shortToken(tok), "url", req.URL)

	start := time.Now()
	res, err := h.downloader.Download(c.Request.Context(), download.Request{
		URL:      req.URL,
		Format:   req.Format,
		Quality:  req.Quality,
		FormatID: req.FormatID,
		Cookies:  req.Cookies,
	})
	if err != nil {
		h.stats.RecordDownload(0, false, time.Since(start))
		respondError(c, http.StatusInternalServerError, download.Message(err))
		return
	}
	h.stats.RecordDownload(int64(len(res.Data)), true, time.Since(start))

	if h.tokens.Consume(tok) {
		logger.Debug("Token consumed", "token", shortToken(tok))
	}

	c.Header("Content-Disposition", attachment(res.FileName))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

func shortToken(tok string) string {
	if len(tok) > 8 {
		return tok[:8]
	}
	return tok
}
