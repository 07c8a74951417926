package app

import (
	"context"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/internal/analyze"
	"github.com/pavelc4/aether-fetch/internal/download"
	"github.com/pavelc4/aether-fetch/internal/extractor"
	"github.com/pavelc4/aether-fetch/internal/handler"
	"github.com/pavelc4/aether-fetch/internal/middleware"
	"github.com/pavelc4/aether-fetch/internal/stats"
	"github.com/pavelc4/aether-fetch/internal/token"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

const (
	shutdownTimeout = 10 * time.Second
	// drainTimeout covers killing extractor trees after in-flight requests are cancelled.
	drainTimeout = 10 * time.Second
)

type App struct {
	Cfg    *config.Config
	Engine *gin.Engine
	Tokens *token.Store
	Stats  *stats.Stats

	// ExtractorVersion is the version reported at startup, empty if the check failed.
	ExtractorVersion string

	shutdownTimeout time.Duration
	inflight        sync.WaitGroup
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.LoadConfig()
	}
	if cfg.WorkDir == "" {
		return nil, errors.New("work dir is not set")
	}

	limiter := extractor.NewLimiter(cfg.MaxConcurrentJobs)
	runner := extractor.NewRunner(cfg.YtDlpPath, limiter)
	client := extractor.NewClient(runner, cfg.AnalyzeTimeout)

	tokens := token.NewStore(
		token.WithTTL(cfg.TokenTTL),
		token.WithSingleUse(cfg.TokenSingleUse),
	)

	st := stats.New()
	st.Metrics().Gauge("tokens_live", "Download tokens currently held.", func() float64 {
		return float64(tokens.Len())
	})
	st.Metrics().Gauge("jobs_active", "Extractor processes currently running.", func() float64 {
		return float64(limiter.Active())
	})
	st.Metrics().Gauge("jobs_capacity", "Maximum concurrent extractor processes.", func() float64 {
		return float64(limiter.Capacity())
	})

	h := handler.New(handler.Deps{
		Analyzer:   analyze.NewAnalyzer(client, cfg.WorkDir),
		Downloader: download.NewDownloader(runner, cfg.WorkDir, cfg.DownloadTimeout),
		Prober:     client,
		Tokens:     tokens,
		Stats:      st,
		Jobs:       limiter,
		WorkDir:    cfg.WorkDir,
	})

	a := &App{
		Cfg:             cfg,
		Engine:          gin.New(),
		Tokens:          tokens,
		Stats:           st,
		shutdownTimeout: shutdownTimeout,
	}

	a.Engine.Use(a.track(), middleware.Recover(), middleware.Logger(), cors.New(corsConfig(cfg.CORSOrigins)))
	h.Register(a.Engine, middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	a.ExtractorVersion = checkExtractor(client)

	logger.Info("Application initialized",
		"yt_dlp", cfg.YtDlpPath,
		"work_dir", cfg.WorkDir,
		"max_jobs", cfg.MaxConcurrentJobs,
		"token_ttl", cfg.TokenTTL,
		"single_use", cfg.TokenSingleUse,
	)
	return a, nil
}

// checkExtractor runs --version once. The server still starts without a
// working extractor; GET / keeps reporting the failure.
func checkExtractor(client *extractor.Client) string {
	v, err := client.Version(context.Background())
	if err != nil {
		logger.Error("yt-dlp is not available, analyze and download will fail", "path", client.Path(), "error", err)
		return ""
	}
	logger.Info("yt-dlp found", "path", client.Path(), "version", v)
	return v
}

func (a *App) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.inflight.Add(1)
		defer a.inflight.Done()
		c.Next()
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	c.ExposeHeaders = []string{"Content-Disposition"}
	c.AllowBrowserExtensions = true
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}

// Start listens on the configured address and serves until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Cfg.Addr())
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln. On shutdown in-flight requests get
// shutdownTimeout to finish; after that their contexts are cancelled so running
// extractor trees are killed and their work dirs removed before returning.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	staleAge := a.Cfg.DownloadTimeout + time.Minute

	utils.CleanupTempFilesByPattern(ctx, a.Cfg.WorkDir, utils.TempFilePatterns, staleAge)
	utils.StartJanitor(ctx, a.Cfg.WorkDir, a.Cfg.JanitorInterval, staleAge)
	go a.sweepTokens(ctx)

	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	srv := &http.Server{
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "serve")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown timed out, cancelling in-flight requests", "error", err)
		cancelRequests()
		if !a.waitInflight(drainTimeout) {
			logger.Error("In-flight requests did not finish after cancellation")
		}
	}

	utils.CleanupTempFilesByPattern(context.Background(), a.Cfg.WorkDir, utils.TempFilePatterns, staleAge)
	return nil
}

func (a *App) waitInflight(limit time.Duration) bool {
	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()

	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (a *App) sweepTokens(ctx context.Context) {
	ticker := time.NewTicker(a.Tokens.TTL())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Tokens.Sweep(); n > 0 {
				logger.Debug("Expired tokens swept", "count", n)
			}
		}
	}
}
