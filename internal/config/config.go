package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Queue      QueueConfig      `mapstructure:"queue"      validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Upscale    UpscaleConfig    `mapstructure:"upscale"    validate:"required"`
	Workflow   WorkflowConfig   `mapstructure:"workflow"   validate:"required"`
	Providers  ProviderConfig   `mapstructure:"providers"  validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// AuthConfig contains API access settings. Requests must present one of the
// configured keys in the x-api-key header.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys" validate:"required,min=1,dive,min=16"`
}

// QueueConfig controls the task queue and its worker pool.
type QueueConfig struct {
	// Capacity bounds queued plus running tasks; submissions beyond it are
	// rejected, never blocked.
	Capacity    int `mapstructure:"capacity"     validate:"required,gt=0"`
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// MaxAttempts is the total number of execution attempts per task,
	// including the first one.
	MaxAttempts    int           `mapstructure:"max_attempts"     validate:"required,gt=0"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"required"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"  validate:"required"`
}

// GenerationConfig controls the concurrent image generation fan-out.
type GenerationConfig struct {
	// MaxConcurrent limits in-flight provider calls across one job.
	// Generation is I/O bound, so this is independent from the upscale pool.
	MaxConcurrent int           `mapstructure:"max_concurrent" validate:"required,gt=0"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"   validate:"required"`
}

// UpscaleConfig controls the CPU-bound upscaling worker pool.
type UpscaleConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	Scale       int `mapstructure:"scale"        validate:"required,oneof=2 4"`
}

// WorkflowConfig holds the per-stage timeouts for the workflow state machine.
type WorkflowConfig struct {
	AnalysisTimeout    time.Duration `mapstructure:"analysis_timeout"     validate:"required"`
	GenerationTimeout  time.Duration `mapstructure:"generation_timeout"   validate:"required"`
	UpscaleTimeout     time.Duration `mapstructure:"upscale_timeout"      validate:"required"`
	PostProcessTimeout time.Duration `mapstructure:"post_process_timeout" validate:"required"`
	SaveTimeout        time.Duration `mapstructure:"save_timeout"         validate:"required"`
}

// ProviderConfig contains credentials and model names for the external
// generation backends.
type ProviderConfig struct {
	GeminiAPIKey     string `mapstructure:"gemini_api_key"     validate:"required"`
	GeminiTextModel  string `mapstructure:"gemini_text_model"  validate:"required"`
	GeminiImageModel string `mapstructure:"gemini_image_model" validate:"required"`

	ReplicateAPIToken  string `mapstructure:"replicate_api_token"`
	ReplicateModel     string `mapstructure:"replicate_model"`
	ReplicateFallback  string `mapstructure:"replicate_fallback"`
	ReplicateUpscaler  string `mapstructure:"replicate_upscaler"`
	ReplicateVideo     string `mapstructure:"replicate_video"`
	AnalysisMaxRetries int    `mapstructure:"analysis_max_retries" validate:"gte=0"`
	AnalysisRetryDelay int    `mapstructure:"analysis_retry_delay" validate:"gte=0"`
}

// StorageConfig selects and configures the artifact store backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=local gcs"`

	// Local backend settings.
	OutputDir string `mapstructure:"output_dir" validate:"required_if=Backend local"`
	BaseURL   string `mapstructure:"base_url"   validate:"required_if=Backend local"`

	// GCS backend settings.
	Bucket string `mapstructure:"bucket" validate:"required_if=Backend gcs"`
}

// DatabaseConfig configures the optional workflow run archive. When URL is
// empty, completed runs are kept in memory only.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}
