package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds shared runtime configuration for the server, workers, and
// media stages.
type Config struct {
	Env         string
	HTTPPort    string
	MetricsAddr string

	// Asynchronous pipeline sizing.
	WorkerCount   int
	MaxConcurrent int
	QueueCapacity int

	// Queue backend: "memory" (default, in-process) or "redis".
	QueueBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QueueName     string

	// Filesystem layout. WorkDir holds uploads and per-job scratch
	// directories, OutputDir holds finished artifacts.
	WorkDir   string
	OutputDir string

	// Speech synthesis provider.
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
	DefaultVoice  string

	// Per-stage wall-clock timeouts for external tool invocations.
	ValidateTimeout     time.Duration
	SceneFrameTimeout   time.Duration
	TranscodeTimeout    time.Duration
	AudioConvertTimeout time.Duration
	SlideshowTimeout    time.Duration
	SubtitleTimeout     time.Duration
	WatermarkTimeout    time.Duration
	MuxTimeout          time.Duration

	// Product image fetching.
	ImageDownloadTimeout time.Duration
	ImageMaxBytes        int64
	ImageMaxDimension    int

	// Optional S3 artifact destination; empty bucket keeps artifacts local.
	ArtifactS3Bucket    string
	ArtifactS3Region    string
	ArtifactS3Endpoint  string
	ArtifactS3PathStyle bool

	// Upload rate limiting (requires Redis; zero capacity disables it).
	RateLimitCapacity int
	RateLimitRefill   float64

	MaxUploadBytes int64
}

// Load reads configuration from environment variables with sane defaults for
// local development.
func Load() Config {
	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		MaxConcurrent: getEnvInt("MAX_CONCURRENT", 2),
		QueueCapacity: getEnvInt("QUEUE_CAPACITY", 256),

		QueueBackend:  getEnv("QUEUE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		QueueName:     getEnv("QUEUE_NAME", "queue:convert"),

		WorkDir:   getEnv("WORK_DIR", filepath.Join(os.TempDir(), "reelforge")),
		OutputDir: getEnv("OUTPUT_DIR", "./output"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-preview-tts"),
		DefaultVoice:  getEnv("DEFAULT_VOICE", "Zephyr"),

		ValidateTimeout:     getEnvDuration("VALIDATE_TIMEOUT", 30*time.Second),
		SceneFrameTimeout:   getEnvDuration("SCENE_FRAME_TIMEOUT", 60*time.Second),
		TranscodeTimeout:    getEnvDuration("TRANSCODE_TIMEOUT", 600*time.Second),
		AudioConvertTimeout: getEnvDuration("AUDIO_CONVERT_TIMEOUT", 300*time.Second),
		SlideshowTimeout:    getEnvDuration("SLIDESHOW_TIMEOUT", 600*time.Second),
		SubtitleTimeout:     getEnvDuration("SUBTITLE_TIMEOUT", 300*time.Second),
		WatermarkTimeout:    getEnvDuration("WATERMARK_TIMEOUT", 300*time.Second),
		MuxTimeout:          getEnvDuration("MUX_TIMEOUT", 600*time.Second),

		ImageDownloadTimeout: getEnvDuration("IMAGE_DOWNLOAD_TIMEOUT", 30*time.Second),
		ImageMaxBytes:        getEnvInt64("IMAGE_MAX_BYTES", 25*1024*1024),
		ImageMaxDimension:    getEnvInt("IMAGE_MAX_DIMENSION", 4096),

		ArtifactS3Bucket:    getEnv("ARTIFACT_S3_BUCKET", ""),
		ArtifactS3Region:    getEnv("ARTIFACT_S3_REGION", "us-east-1"),
		ArtifactS3Endpoint:  getEnv("ARTIFACT_S3_ENDPOINT", ""),
		ArtifactS3PathStyle: getEnvBool("ARTIFACT_S3_PATH_STYLE", false),

		RateLimitCapacity: getEnvInt("RATE_LIMIT_CAPACITY", 0),
		RateLimitRefill:   getEnvFloat("RATE_LIMIT_REFILL_PER_SEC", 1),

		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 500*1024*1024),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
