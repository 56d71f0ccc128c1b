// Package config loads process configuration from the environment, in the
// teacher's own style (cmd/api/main.go's loadConfig): optional .env file(s)
// via godotenv, then strict envconfig.Process binding into a typed struct.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries every §6 "recognized option" plus the ambient server/AWS
// settings the teacher's own Config always carries.
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	Environment  string `envconfig:"ENVIRONMENT" default:"production"`
	ReadTimeout  int    `envconfig:"READ_TIMEOUT" default:"30"`
	WriteTimeout int    `envconfig:"WRITE_TIMEOUT" default:"30"`

	AWSRegion    string `envconfig:"AWS_REGION" required:"true"`
	AssetsBucket string `envconfig:"STORAGE_BUCKET" required:"true"`
	AssetsPrefix string `envconfig:"STORAGE_PREFIX" default:""`
	JobTable     string `envconfig:"JOB_TABLE" required:"true"`
	VideoTable   string `envconfig:"VIDEO_TABLE" required:"true"`
	LogsTable    string `envconfig:"GENERATION_LOGS_TABLE" required:"true"`

	ReplicateSecretARN string `envconfig:"REPLICATE_SECRET_ARN"`

	JWTIssuer string `envconfig:"JWT_ISSUER" required:"true"`
	SkipAuth  bool   `envconfig:"SKIP_AUTH" default:"false"`

	// LLM Orchestrator (§4.5, §4.6, §6).
	LLMPrimary        string `envconfig:"LLM_PRIMARY" default:"replicate"`
	LLMFallback       string `envconfig:"LLM_FALLBACK" default:"local"`
	LLMAttemptBudget  int    `envconfig:"LLM_ATTEMPT_BUDGET" default:"3"`
	LLMModelVersion   string `envconfig:"LLM_MODEL_VERSION" required:"true"`
	LocalModelVersion string `envconfig:"LOCAL_MODEL_VERSION"`

	// Job deadline (§5, §6: "job_deadline_s=300").
	JobDeadlineS int `envconfig:"JOB_DEADLINE_S" default:"300"`

	// Resource Sandbox (§4.2, §6).
	SandboxMemoryMiB     int  `envconfig:"SANDBOX_MEMORY_MIB" default:"1024"`
	SandboxWallTimeoutS  int  `envconfig:"SANDBOX_WALL_TIMEOUT_S" default:"120"`
	SandboxCPUTimeoutS   int  `envconfig:"SANDBOX_CPU_TIMEOUT_S" default:"90"`
	SandboxDisableLimits bool `envconfig:"SANDBOX_DISABLE_LIMITS" default:"false"`
	SandboxBaseDir       string `envconfig:"SANDBOX_BASE_DIR" default:""`

	// Render tool (§4.3).
	RendererToolPath string `envconfig:"RENDERER_TOOL_PATH" default:"manim"`

	// Worker pool / back-pressure (§4.9, §6).
	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"4"`
	QueueMax          int `envconfig:"QUEUE_MAX" default:"16"`
}

// Load mirrors the teacher's loadConfig: best-effort .env/.env.local
// discovery across a handful of likely working directories, then strict
// environment binding.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("warning: could not get working directory: %v", err)
		wd = "."
	}

	envPaths := []string{
		".env.local",
		".env",
		filepath.Join(wd, ".env.local"),
		filepath.Join(wd, ".env"),
	}
	loaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			loaded = true
			log.Printf("loaded environment variables from %s", path)
			break
		}
	}
	if !loaded {
		log.Printf("no .env file found in working directory %s, using environment variables only", wd)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment variables: %w", err)
	}
	if cfg.SandboxBaseDir == "" {
		cfg.SandboxBaseDir = filepath.Join(os.TempDir(), "animathic-sandbox")
	}
	return &cfg, nil
}
