package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Classifier ClassifierConfig
	Recognize  RecognizeConfig
	Preprocess PreprocessConfig
	Enhance    EnhanceConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
	HTTPAddr string // job status/cancel endpoints
}

// ClassifierConfig exposes the decision-table thresholds. The defaults are
// empirically chosen for mixed scan/office corpora; tune per corpus rather
// than editing the decision table.
type ClassifierConfig struct {
	QuickSamplePages  int     // cheap first pass, default 3
	LayoutSamplePages int     // slower layout-aware pass, default 5
	MinCharsForText   int     // a page "has text" above this count, default 10
	HighChars         float64 // avg chars/page for text_native high, default 100
	LowChars          float64 // avg chars/page below which image_native high, default 10
	MidChars          float64 // boundary for the medium-confidence rules, default 50
	HighCoverage      float64 // coverage ratio for text_native high, default 0.7
	LowCoverage       float64 // coverage ratio below which image_native high, default 0.1
	LowMidCoverage    float64 // coverage for image_native medium, default 0.3
	MidCoverage       float64 // coverage for text_native medium, default 0.5
	InkRatioThreshold float64 // rendered-ink ratio marking an image-carrying page, default 0.02
}

// RecognizeConfig holds recognition-engine configuration
type RecognizeConfig struct {
	Languages   string // "+"-separated tesseract language codes
	Timeout     time.Duration
	Concurrency int // page workers; the engine itself is serialized
	MaxPages    int // 0 = no limit
	DPI         int // rasterization DPI for PDF pages
}

// PreprocessConfig holds image-preprocessing configuration
type PreprocessConfig struct {
	AdaptiveBinarization bool // windowed thresholding for unevenly lit scans
	MaxSkewDegrees       float64
}

// EnhanceConfig holds text-completion service configuration
type EnhanceConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
		},
		Classifier: ClassifierConfig{
			QuickSamplePages:  getEnvAsInt("CLASSIFY_QUICK_PAGES", 3),
			LayoutSamplePages: getEnvAsInt("CLASSIFY_LAYOUT_PAGES", 5),
			MinCharsForText:   getEnvAsInt("CLASSIFY_MIN_CHARS", 10),
			HighChars:         getEnvAsFloat64("CLASSIFY_HIGH_CHARS", 100),
			LowChars:          getEnvAsFloat64("CLASSIFY_LOW_CHARS", 10),
			MidChars:          getEnvAsFloat64("CLASSIFY_MID_CHARS", 50),
			HighCoverage:      getEnvAsFloat64("CLASSIFY_HIGH_COVERAGE", 0.7),
			LowCoverage:       getEnvAsFloat64("CLASSIFY_LOW_COVERAGE", 0.1),
			LowMidCoverage:    getEnvAsFloat64("CLASSIFY_LOWMID_COVERAGE", 0.3),
			MidCoverage:       getEnvAsFloat64("CLASSIFY_MID_COVERAGE", 0.5),
			InkRatioThreshold: getEnvAsFloat64("CLASSIFY_INK_RATIO", 0.02),
		},
		Recognize: RecognizeConfig{
			Languages:   getEnv("OCR_LANGUAGES", "eng"),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
			Concurrency: getEnvAsInt("OCR_CONCURRENCY", 0),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			DPI:         getEnvAsInt("OCR_DPI", 200),
		},
		Preprocess: PreprocessConfig{
			AdaptiveBinarization: getEnvAsBool("PREPROCESS_ADAPTIVE_BINARIZE", false),
			MaxSkewDegrees:       getEnvAsFloat64("PREPROCESS_MAX_SKEW", 5.0),
		},
		Enhance: EnhanceConfig{
			BaseURL:     getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("AI_API_KEY", ""),
			Model:       getEnv("AI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("AI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 45*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Classifier.QuickSamplePages <= 0 || c.Classifier.LayoutSamplePages <= 0 {
		return NewAppError("CONFIG_ERROR", "classifier sample page counts must be positive", ErrInvalidInput)
	}
	return nil
}
