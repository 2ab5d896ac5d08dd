// Package file loads pipeline configuration from a TOML file, layered
// with defaults and environment variables. Precedence, lowest first:
// built-in defaults, the TOML file, then the environment.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// fileConfig mirrors domain.Config with TOML tags. Zero values mean
// "not set" and leave the default in place.
type fileConfig struct {
	Root                string  `toml:"root"`
	DBPath              string  `toml:"db_path"`
	MaxWorkers          int     `toml:"max_workers"`
	MaxRetries          int     `toml:"max_retries"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	BackoffFactor       float64 `toml:"backoff_factor"`
	RequestsPerSecond   float64 `toml:"requests_per_second"`
	BurstSize           int     `toml:"burst_size"`
	ForceReprocess      bool    `toml:"force_reprocess"`
	DisableAIClassifier bool    `toml:"disable_ai_classifier"`
	MaxFiles            int     `toml:"max_files"`
	StartFrom           int     `toml:"start_from"`
	MinItemCount        int     `toml:"min_item_count"`

	OCR struct {
		Backend string `toml:"backend"`
		Model   string `toml:"model"`
		BaseURL string `toml:"base_url"`
	} `toml:"ocr"`

	Classifier struct {
		Model   string `toml:"model"`
		BaseURL string `toml:"base_url"`
	} `toml:"classifier"`
}

// DefaultPath returns the default config file location,
// ~/.satexam/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".satexam", "config.toml"), nil
}

// Load builds a domain.Config from the TOML file at path. A missing file
// is not an error: defaults plus environment apply. API keys are never
// read from the file, only from the environment.
func Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file yet - defaults apply
		case err != nil:
			return cfg, fmt.Errorf("reading config file: %w", err)
		default:
			var fc fileConfig
			if err := toml.Unmarshal(data, &fc); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
			applyFile(&cfg, fc)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyFile copies every value the file actually set.
func applyFile(cfg *domain.Config, fc fileConfig) {
	if fc.Root != "" {
		cfg.Root = fc.Root
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.MaxWorkers > 0 {
		cfg.MaxWorkers = fc.MaxWorkers
	}
	if fc.MaxRetries > 0 {
		cfg.MaxRetries = fc.MaxRetries
	}
	if fc.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = fc.TimeoutSeconds
	}
	if fc.BackoffFactor > 0 {
		cfg.BackoffFactor = fc.BackoffFactor
	}
	if fc.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = fc.RequestsPerSecond
	}
	if fc.BurstSize > 0 {
		cfg.BurstSize = fc.BurstSize
	}
	if fc.ForceReprocess {
		cfg.ForceReprocess = true
	}
	if fc.DisableAIClassifier {
		cfg.DisableAIClassifier = true
	}
	if fc.MaxFiles > 0 {
		cfg.MaxFiles = fc.MaxFiles
	}
	if fc.StartFrom > 0 {
		cfg.StartFrom = fc.StartFrom
	}
	if fc.MinItemCount > 0 {
		cfg.MinItemCount = fc.MinItemCount
	}
	if fc.OCR.Backend != "" {
		cfg.OCR.Backend = domain.OCRBackend(fc.OCR.Backend)
	}
	if fc.OCR.Model != "" {
		cfg.OCR.Model = fc.OCR.Model
	}
	if fc.OCR.BaseURL != "" {
		cfg.OCR.BaseURL = fc.OCR.BaseURL
	}
	if fc.Classifier.Model != "" {
		cfg.Classifier.Model = fc.Classifier.Model
	}
	if fc.Classifier.BaseURL != "" {
		cfg.Classifier.BaseURL = fc.Classifier.BaseURL
	}
}

// applyEnv sources credentials from the environment. OPENROUTER_API_KEY
// takes effect only when OPENAI_API_KEY is absent.
func applyEnv(cfg *domain.Config) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		key = os.Getenv("OPENROUTER_API_KEY")
	}
	if key != "" {
		if cfg.OCR.APIKey == "" {
			cfg.OCR.APIKey = key
		}
		if cfg.Classifier.APIKey == "" {
			cfg.Classifier.APIKey = key
		}
	}

	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		if cfg.OCR.BaseURL == "" {
			cfg.OCR.BaseURL = base
		}
		if cfg.Classifier.BaseURL == "" {
			cfg.Classifier.BaseURL = base
		}
	}
}
