package cfg

import (
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		HTTPPort:               8080,
		ColumnsPath:            "models/model_columns.json",
		AdaBoostModelPath:      "models/ada_boost_model.json",
		GradientBoostModelPath: "models/gradient_boost_model.json",
		HistoryLimit:           50,
		RequestTimeout:         5 * time.Second,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		LogLevel:               "info",
		LogFormat:              "console",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	err := validateSettings(settings)
	if err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_MissingArtifactPaths(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"empty columns path", func(s *Settings) { s.ColumnsPath = "" }},
		{"empty adaboost path", func(s *Settings) { s.AdaBoostModelPath = "" }},
		{"empty gradient boost path", func(s *Settings) { s.GradientBoostModelPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			if err := validateSettings(settings); err == nil {
				t.Error("Expected error for missing artifact path")
			}
		})
	}
}

func TestValidateSettings_InvalidHTTPPort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"privileged port", 80, true},
		{"too high", 70000, true},
		{"lower bound", 1024, false},
		{"upper bound", 65535, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			settings.HTTPPort = tt.port

			err := validateSettings(settings)
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for port %d", tt.port)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected port %d to pass, got error: %v", tt.port, err)
			}
		})
	}
}

func TestValidateSettings_InvalidRequestTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"too short", 500 * time.Millisecond, true},
		{"too long", 2 * time.Minute, true},
		{"one second", time.Second, false},
		{"one minute", time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			settings.RequestTimeout = tt.timeout

			err := validateSettings(settings)
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for timeout %v", tt.timeout)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected timeout %v to pass, got error: %v", tt.timeout, err)
			}
		})
	}
}

func TestValidateSettings_InvalidHistoryLimit(t *testing.T) {
	for _, limit := range []int{0, -1, 1001} {
		settings := createValidSettings()
		settings.HistoryLimit = limit

		if err := validateSettings(settings); err == nil {
			t.Errorf("Expected error for history limit %d", limit)
		}
	}
}

func TestValidateSettings_LogFormat(t *testing.T) {
	settings := createValidSettings()
	settings.LogFormat = "xml"

	if err := validateSettings(settings); err == nil {
		t.Error("Expected error for unsupported log format")
	}

	settings.LogFormat = "json"
	settings.LogLevel = "DEBUG"
	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected upper-case level to pass, got error: %v", err)
	}
}
