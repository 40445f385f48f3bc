package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// FileName is the name of the optional config file in the project root.
const FileName = "projmgr.toml"

// Config describes all configuration options
type Config struct {
	BuildDir    string `toml:"build_dir" default:"build" usage:"Build directory, relative to the project root"`
	ArtifactDir string `toml:"artifact_dir" default:"source" usage:"Subtree of the build directory that rebuild deletes"`
	SourceDir   string `toml:"source_dir" default:"source" usage:"Source tree scanned by lint, relative to the project root"`
	PresetsFile string `toml:"presets_file" default:"presets.yml" usage:"Optional YAML file replacing the built-in preset table"`
	CMake       string `toml:"cmake" default:"cmake" usage:"CMake executable"`
	ClangTidy   string `toml:"clang_tidy" default:"clang-tidy" usage:"clang-tidy executable"`
	TidyConfig  string `toml:"tidy_config" default:".clang-tidy" usage:"clang-tidy config file, relative to the project root"`
	LogLevel    string `toml:"log_level" default:"info" usage:"Log level (debug, info, warn, error)"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object
func Loader(files ...string) (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipEnv:   true,
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads the config for the given project root. An empty file selects
// <projectRoot>/projmgr.toml which may be missing; an explicitly passed file must exist.
func Load(projectRoot, file string) (*Config, error) {
	files := []string{}
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, eris.Wrapf(err, "Could not open config file %s", file)
		}
		files = append(files, file)
	} else {
		file = filepath.Join(projectRoot, FileName)
		_, err := os.Stat(file)
		if err == nil {
			files = append(files, file)
		} else if !eris.Is(err, os.ErrNotExist) {
			return nil, eris.Wrapf(err, "Failed to check %s", file)
		}
	}

	cfg, loader := Loader(files...)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "Failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if _, ok := logLevels[strings.ToLower(cfg.LogLevel)]; !ok {
		return eris.Errorf(`Invalid value for log_level: %s`, cfg.LogLevel)
	}

	if cfg.BuildDir == "" {
		return eris.New(`build_dir must not be empty`)
	}

	if cfg.CMake == "" || cfg.ClangTidy == "" {
		return eris.New(`cmake and clang_tidy must name an executable`)
	}

	if err := ValidateSubtree(cfg.ArtifactDir); err != nil {
		return eris.Wrap(err, `Invalid value for artifact_dir`)
	}

	return nil
}

// ValidateSubtree checks that dir names a path strictly inside its parent directory.
func ValidateSubtree(dir string) error {
	if dir == "" {
		return eris.New("path is empty")
	}

	if filepath.IsAbs(dir) || filepath.VolumeName(dir) != "" {
		return eris.Errorf("%s is not a relative path", dir)
	}

	clean := filepath.Clean(dir)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return eris.Errorf("%s does not point inside the build directory", dir)
	}

	return nil
}

// Level converts the LogLevel field to a zerolog.Level
func (cfg *Config) Level() zerolog.Level {
	return logLevels[strings.ToLower(cfg.LogLevel)]
}
