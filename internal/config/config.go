// =============================================================================
// Patron to CueBox Migrator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. A single YAML file describes where the three raw exports
// live, where the CueBox output files are written, how to reach the tag
// mapping service, and the business rule tables that operations may need
// to tune between migrations.
//
// CONFIGURATION DESIGN:
//   - Loaded once at startup, immutable for the duration of the run
//   - Defaults are applied for any unset option, then the result is validated
//   - Rule tables (invalid company values) are configurable because the
//     source system leaves their exact business meaning open
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// Config holds the full application configuration.
// This is loaded from the main config.yaml file.
type Config struct {
	// Input describes the three raw export files from the source system.
	Input InputFiles `yaml:"input"`

	// Output describes where the CueBox files are written.
	Output OutputFiles `yaml:"output"`

	// TagAPI describes the external tag mapping service.
	TagAPI TagAPISettings `yaml:"tag_api"`

	// InputArchiveDir is the directory where input files are moved after a
	// successful run. Archival is skipped when this is empty.
	InputArchiveDir string `yaml:"input_archive_dir"`

	// LogDir is the directory where processing summary logs are written.
	// Default: "./logs"
	LogDir string `yaml:"log_dir"`

	// InvalidCompanyValues lists company-field values that do NOT indicate a
	// company record. A constituent whose trimmed Company field matches one
	// of these (case-insensitively) is classified as a Person.
	//
	// The exact membership of this set is a business decision that has
	// changed between source exports, so it is configurable rather than
	// hard-coded. The default matches the current source system.
	InvalidCompanyValues []string `yaml:"invalid_company_values"`
}

// InputFiles holds the paths to the three raw export files.
// All three are required; a missing file aborts the run.
type InputFiles struct {
	// Constituents is the path to the constituent export.
	Constituents string `yaml:"constituents"`

	// Emails is the path to the secondary-email export.
	Emails string `yaml:"emails"`

	// Donations is the path to the donation history export.
	Donations string `yaml:"donations"`
}

// OutputFiles holds the output locations.
type OutputFiles struct {
	// Dir is the directory where output files are placed.
	// Default: "./output"
	Dir string `yaml:"dir"`

	// Constituents is the file name of the constituent output table.
	// Default: "CueBoxConstituents.csv"
	Constituents string `yaml:"constituents"`

	// Tags is the file name of the tag count output table.
	// Default: "CueBoxTags.csv"
	Tags string `yaml:"tags"`
}

// TagAPISettings describes the external tag mapping service.
// The service is consulted exactly once per run; on failure the run
// continues with an identity mapping.
type TagAPISettings struct {
	// URL is the endpoint returning the list of tag mappings.
	URL string `yaml:"url"`

	// TimeoutSeconds bounds the single lookup request.
	// Default: 10
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from a YAML file, applies defaults, and
// validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultInvalidCompanyValues is the invalid-company set shipped with the
// current source system. "Retired" and "Used to work here." show up in the
// Company column but describe a person's employment, not an organization.
func DefaultInvalidCompanyValues() []string {
	return []string{"", "None", "N/A", "n/a", "Retired", "Used to work here."}
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Input.Constituents == "" {
		cfg.Input.Constituents = "./InputConstituents.csv"
	}
	if cfg.Input.Emails == "" {
		cfg.Input.Emails = "./InputEmails.csv"
	}
	if cfg.Input.Donations == "" {
		cfg.Input.Donations = "./InputDonationHistory.csv"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./output"
	}
	if cfg.Output.Constituents == "" {
		cfg.Output.Constituents = "CueBoxConstituents.csv"
	}
	if cfg.Output.Tags == "" {
		cfg.Output.Tags = "CueBoxTags.csv"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "./logs"
	}
	if cfg.TagAPI.TimeoutSeconds == 0 {
		cfg.TagAPI.TimeoutSeconds = 10
	}
	if cfg.InvalidCompanyValues == nil {
		cfg.InvalidCompanyValues = DefaultInvalidCompanyValues()
	}
}

// validate checks the configuration for structural problems.
// Input files are checked later by the reader so that the error can name
// the specific missing table.
func validate(cfg *Config) error {
	if _, err := os.Stat(cfg.Output.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", cfg.Output.Dir, err)
		}
	}
	return nil
}

// ConstituentsOutputPath returns the full path of the constituent output file.
func (c *Config) ConstituentsOutputPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Constituents)
}

// TagsOutputPath returns the full path of the tag output file.
func (c *Config) TagsOutputPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Tags)
}
