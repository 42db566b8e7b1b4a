// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds asset file search paths.
type DataConfig struct {
	// PropLibraryPaths are directories searched for prop library models
	// referenced by maps.
	PropLibraryPaths []string `yaml:"prop_library_paths"`
}

// ConvertConfig holds model conversion settings.
type ConvertConfig struct {
	// TargetVersion is the container version written when the convert
	// command is not given one explicitly.
	TargetVersion int `yaml:"target_version"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			PropLibraryPaths: []string{"."},
		},
		Convert: ConvertConfig{
			TargetVersion: 3,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
