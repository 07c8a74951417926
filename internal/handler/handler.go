package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pavelc4/aether-fetch/internal/analyze"
	"github.com/pavelc4/aether-fetch/internal/download"
	"github.com/pavelc4/aether-fetch/internal/stats"
	"github.com/pavelc4/aether-fetch/internal/token"
)

type Analyzer interface {
	Analyze(ctx context.Context, req analyze.Request) (*analyze.Result, error)
}

type Downloader interface {
	Download(ctx context.Context, req download.Request) (*download.Result, error)
}

// Prober reports the extractor's location and version for the liveness route.
type Prober interface {
	Path() string
	Version(ctx context.Context) (string, error)
}

// JobCounter reports extractor slots in use; *extractor.Limiter satisfies it.
type JobCounter interface {
	Active() int
	Capacity() int
}

type Deps struct {
	Analyzer   Analyzer
	Downloader Downloader
	Prober     Prober
	Tokens     *token.Store
	Stats      *stats.Stats
	Jobs       JobCounter
	WorkDir    string
}

type Handler struct {
	analyzer   Analyzer
	downloader Downloader
	prober     Prober
	tokens     *token.Store
	stats      *stats.Stats
	jobs       JobCounter
	workDir    string
}

func New(d Deps) *Handler {
	if d.Tokens == nil {
		d.Tokens = token.NewStore()
	}
	if d.Stats == nil {
		d.Stats = stats.New()
	}
	return &Handler{
		analyzer:   d.Analyzer,
		downloader: d.Downloader,
		prober:     d.Prober,
		tokens:     d.Tokens,
		stats:      d.Stats,
		jobs:       d.Jobs,
		workDir:    d.WorkDir,
	}
}

// Register mounts every route. limit guards the POST routes that start extractor work.
func (h *Handler) Register(r gin.IRouter, limit gin.HandlerFunc) {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	r.GET("/", h.HandleHome)
	r.GET("/stats", h.HandleStats)
	r.GET("/metrics", gin.WrapH(h.stats.Metrics().Handler()))

	r.POST("/analyze", limit, h.HandleAnalyze)
	r.POST("/prepare_download", limit, h.HandlePrepare)
	r.GET("/trigger_download/:token", h.HandleTrigger)
}
