// Package config holds gemkit's configuration: the defaults every command
// starts from, the optional YAML files layered over them, and validation.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
)

// ProjectFileName is the optional per-project config file.
const ProjectFileName = "gemkit.yaml"

// SecretPlaceholder is written into an empty .env when no key is captured.
const SecretPlaceholder = "your_api_key_here"

// Config is the full set of knobs for the installer and the bootstrapper.
type Config struct {
	// Installer
	RuntimeMinVersion string `yaml:"runtime_min_version"`
	CLIPackage        string `yaml:"cli_package"`
	CLICommand        string `yaml:"cli_command"`

	// Bootstrapper
	Python          string   `yaml:"python"`
	EnvironmentName string   `yaml:"environment_name"`
	DefaultPackages []string `yaml:"default_packages"`
	ExtraPackages   []string `yaml:"extra_packages"`
	SecretKey       string   `yaml:"secret_key"`
	LicenseURL      string   `yaml:"license_url"`
	LicenseID       string   `yaml:"license_id"`

	// Rendered into README.md and the .gemini command templates.
	Model        string `yaml:"model"`
	OutputFormat string `yaml:"output_format"`

	// Zero means unbounded.
	CommandTimeout Duration `yaml:"command_timeout"`
	FetchTimeout   Duration `yaml:"fetch_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RuntimeMinVersion: "20.0.0",
		CLIPackage:        "@google/gemini-cli",
		CLICommand:        "gemini",
		Python:            defaultPython(runtime.GOOS),
		EnvironmentName:   ".venv",
		DefaultPackages:   []string{"google-genai", "python-dotenv", "pyyaml"},
		SecretKey:         "GEMINI_API_KEY",
		LicenseURL:        "https://raw.githubusercontent.com/spdx/license-list-data/main/text/MIT.txt",
		LicenseID:         "MIT",
		Model:             "gemini-2.5-pro",
		OutputFormat:      "text",
		FetchTimeout:      Duration(10 * time.Second),
	}
}

func defaultPython(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// Duration is a time.Duration written as "30s" or "5m" in YAML.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML accepts Go duration strings; "0" and "" mean zero.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string like \"30s\"", value.Line)
	}
	if value.Value == "" || value.Value == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load starts from Default and overlays each file in order. Files that do
// not exist are skipped; keys a file omits keep their earlier value.
// The result is validated.
func Load(fsys fs.FS, files ...string) (Config, error) {
	cfg := Default()
	for _, path := range files {
		if path == "" {
			continue
		}
		data, err := fsys.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return cfg, errors.WrapWithDetails(errors.EInvalidConfig, "failed to read config file", err, map[string]string{"path": path})
		}
		if err := decodeInto(&cfg, data); err != nil {
			return cfg, errors.WrapWithDetails(errors.EInvalidConfig, "invalid config file: "+err.Error(), err, map[string]string{"path": path})
		}
	}
	return Validate(cfg)
}

// ProjectFile returns the project config path inside targetDir.
func ProjectFile(targetDir string) string {
	return filepath.Join(targetDir, ProjectFileName)
}

func decodeInto(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}
