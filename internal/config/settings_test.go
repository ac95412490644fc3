package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if settings.PageWorkers != DefaultSettings().PageWorkers {
		t.Errorf("PageWorkers = %d, want default %d", settings.PageWorkers, DefaultSettings().PageWorkers)
	}
}

func TestSettings_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	settings := DefaultSettings()
	settings.Language = "pt-br"
	settings.FallbackLanguage = "en"
	settings.ExportPDF = true

	if err := settings.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Language != "pt-br" {
		t.Errorf("Language = %q, want %q", loaded.Language, "pt-br")
	}
	if loaded.FallbackLanguage != "en" {
		t.Errorf("FallbackLanguage = %q, want %q", loaded.FallbackLanguage, "en")
	}
	if !loaded.ExportPDF {
		t.Error("ExportPDF = false, want true")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults are valid", func(s *Settings) {}, false},
		{"empty download dir", func(s *Settings) { s.DownloadDir = "" }, true},
		{"empty language", func(s *Settings) { s.Language = "" }, true},
		{"zero workers", func(s *Settings) { s.PageWorkers = 0 }, true},
		{"oversized feed page", func(s *Settings) { s.FeedPageSize = 1000 }, true},
		{"enhance without command", func(s *Settings) { s.Enhance = true; s.EnhanceCommand = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
