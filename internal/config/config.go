// Package config handles run options and the global configuration
// file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the output encoding.
type Format string

const (
	FormatBib Format = "bib"
	FormatTSV Format = "tsv"
)

// Options holds the effective settings for one enrichment run, after
// merging flags, environment, and the global config file.
type Options struct {
	// InputPath is the BibTeX input file; "" means standard input.
	InputPath string

	// Email is the contact address sent to Crossref (polite pool).
	Email string

	// Format is the output encoding, bib or tsv.
	Format Format

	// KeysPath, when set, names a file with one citation key per
	// line restricting the run to those entries.
	KeysPath string

	// OutputPath is the output file. Required.
	OutputPath string

	// TSVFields is the ordered projected field list for tsv output.
	TSVFields []string

	// CachePath, when set, enables the SQLite query cache.
	CachePath string

	// PDFRoot, when set, enables DOI recovery from local PDFs.
	PDFRoot string

	// DryRun skips the external service entirely.
	DryRun bool
}

// Validate checks configuration-level errors, which must be reported
// before any input is read.
func (o *Options) Validate() error {
	switch o.Format {
	case FormatBib, FormatTSV:
	default:
		return fmt.Errorf("unknown format %q (want bib or tsv)", o.Format)
	}
	if o.Format == FormatTSV && len(o.TSVFields) == 0 {
		return fmt.Errorf("format %q requires --tsv-fields", FormatTSV)
	}
	if o.OutputPath == "" {
		return fmt.Errorf("--output is required")
	}
	return nil
}

// GlobalConfig represents configuration stored in
// ~/.config/bibenrich/config.yml.
type GlobalConfig struct {
	Email   string `yaml:"email,omitempty"`
	Cache   string `yaml:"cache,omitempty"`
	PDFRoot string `yaml:"pdf_root,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bibenrich"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibenrich/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.PDFRoot != "" {
		cfg.PDFRoot = ExpandTilde(cfg.PDFRoot)
	}
	if cfg.Cache != "" {
		cfg.Cache = ExpandTilde(cfg.Cache)
	}

	return &cfg, nil
}

// ApplyGlobal fills unset options from the global config. Flags and
// environment always win over the config file.
func (o *Options) ApplyGlobal(g *GlobalConfig) {
	if o.Email == "" {
		o.Email = g.Email
	}
	if o.CachePath == "" {
		o.CachePath = g.Cache
	}
	if o.PDFRoot == "" {
		o.PDFRoot = g.PDFRoot
	}
}

// ExpandTilde expands a leading ~/ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
