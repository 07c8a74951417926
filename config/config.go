package config

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 5000
	DefaultAnalyzeTimeout    = 30 * time.Second
	DefaultDownloadTimeout   = 300 * time.Second
	DefaultTokenTTL          = 300 * time.Second
	DefaultMaxConcurrentJobs = 4
	DefaultRateLimitBurst    = 20
	DefaultJanitorInterval   = 10 * time.Minute
)

type Config struct {
	Host              string
	Port              int
	YtDlpPath         string
	AnalyzeTimeout    time.Duration
	DownloadTimeout   time.Duration
	TokenTTL          time.Duration
	TokenSingleUse    bool
	WorkDir           string
	MaxConcurrentJobs int
	RateLimitRPS      float64
	RateLimitBurst    int
	CORSOrigins       []string
	JanitorInterval   time.Duration
	LogLevel          string
}

// LoadConfig reads .env (if any) and then the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	maxJobs := getEnvInt("MAX_CONCURRENT_JOBS", 0)
	if maxJobs <= 0 {
		maxJobs = runtime.NumCPU() * 2
		if maxJobs < DefaultMaxConcurrentJobs {
			maxJobs = DefaultMaxConcurrentJobs
		}
	}

	return &Config{
		Host:              getEnv("HOST", DefaultHost),
		Port:              getEnvInt("PORT", DefaultPort),
		YtDlpPath:         GetYtDlpPath(),
		AnalyzeTimeout:    getEnvDuration("ANALYZE_TIMEOUT", DefaultAnalyzeTimeout),
		DownloadTimeout:   getEnvDuration("DOWNLOAD_TIMEOUT", DefaultDownloadTimeout),
		TokenTTL:          getEnvDuration("TOKEN_TTL", DefaultTokenTTL),
		TokenSingleUse:    getEnvBool("TOKEN_SINGLE_USE", false),
		WorkDir:           getEnv("WORK_DIR", os.TempDir()),
		MaxConcurrentJobs: maxJobs,
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", DefaultRateLimitBurst),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		JanitorInterval:   getEnvDuration("JANITOR_INTERVAL", DefaultJanitorInterval),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

// GetYtDlpPath prefers YT_DLP_PATH, then a yt-dlp found on PATH, then the bare command name.
func GetYtDlpPath() string {
	if p := os.Getenv("YT_DLP_PATH"); p != "" {
		return p
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p
	}
	return "yt-dlp"
}

func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts Go durations ("45s") or a plain number of seconds ("45").
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
