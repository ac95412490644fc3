package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadDir      string `toml:"download_dir"`
	ExportDir        string `toml:"export_dir"`
	Language         string `toml:"language"`
	FallbackLanguage string `toml:"fallback_language"`
	DataSaver        bool   `toml:"data_saver"`

	// Feed resolution
	FeedPageSize int `toml:"feed_page_size"`

	// Concurrency and retry behavior
	PageWorkers     int     `toml:"page_workers"`
	PageRetries     int     `toml:"page_retries"`
	PageRetryDelay  float64 `toml:"page_retry_delay"`  // seconds
	ChapterCooldown float64 `toml:"chapter_cooldown"`  // seconds before the unit-level retry
	PolitenessDelay float64 `toml:"politeness_delay"`  // seconds between chapters

	// Enhancement (external upscaler)
	Enhance        bool   `toml:"enhance"`
	EnhanceCommand string `toml:"enhance_command"`
	EnhanceNoise   int    `toml:"enhance_noise"`
	EnhanceScale   int    `toml:"enhance_scale"`
	EnhanceTimeout int    `toml:"enhance_timeout"` // seconds per chapter directory

	// Export formats
	ExportCBZ bool `toml:"export_cbz"`
	ExportPDF bool `toml:"export_pdf"`

	// PDF page preparation
	PDFMaxDimension int `toml:"pdf_max_dimension"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // console or json
	LogFile   string `toml:"log_file"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadDir:      filepath.Join(homeDir, "Manga", "downloads"),
		ExportDir:        filepath.Join(homeDir, "Manga", "exports"),
		Language:         "en",
		FallbackLanguage: "",
		DataSaver:        false,

		FeedPageSize: 100,

		PageWorkers:     3,
		PageRetries:     3,
		PageRetryDelay:  1.0,
		ChapterCooldown: 5.0,
		PolitenessDelay: 1.0,

		Enhance:        false,
		EnhanceCommand: "waifu2x-ncnn-vulkan",
		EnhanceNoise:   2,
		EnhanceScale:   2,
		EnhanceTimeout: 3600,

		ExportCBZ: true,
		ExportPDF: false,

		PDFMaxDimension: 2400,

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads settings from a TOML file. A missing file is not an error;
// defaults are returned so a fresh install works without any setup.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a TOML file, creating parent directories.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks settings for values the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.DownloadDir == "" {
		return fmt.Errorf("download_dir must not be empty")
	}
	if s.Language == "" {
		return fmt.Errorf("language must not be empty")
	}
	if s.PageWorkers < 1 {
		return fmt.Errorf("page_workers must be at least 1, got %d", s.PageWorkers)
	}
	if s.FeedPageSize < 1 || s.FeedPageSize > 500 {
		return fmt.Errorf("feed_page_size must be between 1 and 500, got %d", s.FeedPageSize)
	}
	if s.Enhance && s.EnhanceCommand == "" {
		return fmt.Errorf("enhance_command must be set when enhance is enabled")
	}
	return nil
}
