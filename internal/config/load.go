package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// LOOKBOOK_ prefix with underscores for nesting, e.g. LOOKBOOK_SERVER_PORT,
// and take precedence over file values.
//
// Returns a populated and validated Config, or an error describing the first
// problem encountered.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LOOKBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars may carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Keys without a meaningful default still need to be registered so that
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("providers.gemini_api_key", "")
	v.SetDefault("providers.replicate_api_token", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("database.url", "")

	v.SetDefault("queue.capacity", 100)
	v.SetDefault("queue.worker_count", 10)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.retry_base_delay", 1*time.Second)
	v.SetDefault("queue.retry_max_delay", 30*time.Second)

	v.SetDefault("generation.max_concurrent", 10)
	v.SetDefault("generation.call_timeout", 3*time.Minute)

	v.SetDefault("upscale.worker_count", 4)
	v.SetDefault("upscale.scale", 4)

	v.SetDefault("workflow.analysis_timeout", 60*time.Second)
	v.SetDefault("workflow.generation_timeout", 10*time.Minute)
	v.SetDefault("workflow.upscale_timeout", 5*time.Minute)
	v.SetDefault("workflow.post_process_timeout", 10*time.Minute)
	v.SetDefault("workflow.save_timeout", 2*time.Minute)

	v.SetDefault("providers.gemini_text_model", "gemini-2.0-flash")
	v.SetDefault("providers.gemini_image_model", "gemini-2.0-flash-exp-image-generation")
	v.SetDefault("providers.replicate_model", "flux-kontext-apps/multi-image-kontext-max")
	v.SetDefault(
		"providers.replicate_fallback",
		"stability-ai/sdxl:39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b",
	)
	v.SetDefault("providers.replicate_upscaler", "nightmareai/real-esrgan")
	v.SetDefault("providers.replicate_video", "kwaivgi/kling-v2.1")
	v.SetDefault("providers.analysis_max_retries", 3)
	v.SetDefault("providers.analysis_retry_delay", 2)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.output_dir", "output")
	v.SetDefault("storage.base_url", "http://localhost:8080")
}
