// Command satexam is the batch OCR and classification tool for SAT exam
// page images.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	classifieropenai "github.com/skyvense/SatExam/internal/adapters/driven/classifier/openai"
	configfile "github.com/skyvense/SatExam/internal/adapters/driven/config/file"
	ocrollama "github.com/skyvense/SatExam/internal/adapters/driven/ocr/ollama"
	ocropenai "github.com/skyvense/SatExam/internal/adapters/driven/ocr/openai"
	"github.com/skyvense/SatExam/internal/adapters/driven/storage/sqlite"
	"github.com/skyvense/SatExam/internal/adapters/driving/cli"
	"github.com/skyvense/SatExam/internal/connectors/filesystem"
	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
	"github.com/skyvense/SatExam/internal/core/ports/driving"
	"github.com/skyvense/SatExam/internal/core/services"
	"github.com/skyvense/SatExam/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "0.2.0"

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	configPath, err := configfile.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := configfile.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetBaseConfig(cfg)
	cli.SetProcessorFactory(buildProcessor)
	cli.SetStoreFactory(openStore)
	cli.SetEngineFactory(buildEngine)

	cli.Execute()
}

// openStore opens the SQLite result store.
func openStore(dbPath string) (driven.ResultStore, error) {
	return sqlite.NewStore(dbPath)
}

// newRecognizer selects the recognition backend from the configuration.
func newRecognizer(cfg domain.Config) (driven.Recognizer, error) {
	switch cfg.OCR.Backend {
	case domain.OCRBackendOllama:
		return ocrollama.NewRecognizer(ocrollama.Config{
			BaseURL: cfg.OCR.BaseURL,
			Model:   cfg.OCR.Model,
		}), nil
	case domain.OCRBackendOpenAI:
		return ocropenai.NewRecognizer(ocropenai.Config{
			APIKey:  cfg.OCR.APIKey,
			BaseURL: cfg.OCR.BaseURL,
			Model:   cfg.OCR.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unknown ocr backend %q", domain.ErrInvalidInput, cfg.OCR.Backend)
	}
}

// buildEngine assembles the two-tier classification engine. Without an API
// key the primary tier is absent and the engine runs on rules alone.
func buildEngine(cfg domain.Config) (*services.Engine, func(), error) {
	if cfg.DisableAIClassifier || cfg.Classifier.APIKey == "" {
		if !cfg.DisableAIClassifier {
			logger.Warn("No API key configured; classification uses local rules only")
		}
		return services.NewEngine(nil, true, 0), func() {}, nil
	}

	primary, err := classifieropenai.NewClassifier(classifieropenai.Config{
		APIKey:  cfg.Classifier.APIKey,
		BaseURL: cfg.Classifier.BaseURL,
		Model:   cfg.Classifier.Model,
	})
	if err != nil {
		return nil, nil, err
	}
	return services.NewEngine(primary, false, cfg.Timeout()), func() { _ = primary.Close() }, nil
}

// buildProcessor assembles the full pipeline for one batch run.
func buildProcessor(cfg domain.Config) (driving.BatchProcessor, func(), error) {
	recognizer, err := newRecognizer(cfg)
	if err != nil {
		return nil, nil, err
	}

	engine, engineCleanup, err := buildEngine(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.NewStore(cfg.DBPath)
	if err != nil {
		engineCleanup()
		return nil, nil, err
	}

	cache := filesystem.NewSidecarCache()
	processor := services.NewProcessor(
		filesystem.NewEnumerator(cfg.MinItemCount),
		filesystem.NewGate(cache, store, cfg.ForceReprocess),
		cache,
		services.NewInvoker(recognizer, cfg),
		engine,
		store,
		cfg,
	)

	cleanup := func() {
		_ = store.Close()
		_ = recognizer.Close()
		engineCleanup()
	}
	return processor, cleanup, nil
}
