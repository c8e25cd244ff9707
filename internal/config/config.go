package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port      string
	StaticDir string

	// Auth (optional; empty disables it)
	APIKey string

	// Inference engine
	EngineKind     string // "tesseract" or "remote"
	EngineURL      string
	EngineTimeout  time.Duration
	PromptType     string
	TesseractLangs []string

	// Page loading
	RenderDPI    int
	PdftoppmPath string

	// Upload limits
	MaxUploadBytes int64
}

func Load() Config {
	cfg := Config{
		Port:      envOr("PORT", "8000"),
		StaticDir: envOr("STATIC_DIR", "static"),

		APIKey: os.Getenv("API_KEY"),

		EngineKind:     envOr("OCR_ENGINE", "tesseract"),
		EngineURL:      os.Getenv("ENGINE_URL"),
		EngineTimeout:  envDuration("ENGINE_TIMEOUT", 300*time.Second),
		PromptType:     envOr("PROMPT_TYPE", "ocr_layout"),
		TesseractLangs: envList("TESSERACT_LANGS", nil),

		RenderDPI:    envInt("RENDER_DPI", 200),
		PdftoppmPath: envOr("PDFTOPPM_PATH", "pdftoppm"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
	}

	if cfg.RenderDPI <= 0 {
		cfg.RenderDPI = 200
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.EngineTimeout <= 0 {
		cfg.EngineTimeout = 300 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.EngineKind {
	case "tesseract":
	case "remote":
		if c.EngineURL == "" {
			return fmt.Errorf("ENGINE_URL is required when OCR_ENGINE=remote")
		}
	default:
		return fmt.Errorf("unknown OCR_ENGINE %q (want tesseract or remote)", c.EngineKind)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
