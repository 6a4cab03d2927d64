package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/version"
)

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var outputFormats = map[string]bool{"text": true, "json": true, "stream-json": true}

// Validate checks cfg and returns it with package lists de-duplicated.
// Every failure is E_INVALID_CONFIG naming the offending key.
func Validate(cfg Config) (Config, error) {
	if _, err := version.Parse(cfg.RuntimeMinVersion); err != nil {
		return cfg, invalid("runtime_min_version", err.Error())
	}
	if cfg.CLIPackage == "" || containsWhitespace(cfg.CLIPackage) {
		return cfg, invalid("cli_package", "must be a single npm package name")
	}
	if cfg.CLICommand == "" || containsWhitespace(cfg.CLICommand) {
		return cfg, invalid("cli_command", "must be a single executable name")
	}
	if cfg.Python == "" {
		return cfg, invalid("python", "must not be empty")
	}
	if err := validateEnvironmentName(cfg.EnvironmentName); err != nil {
		return cfg, err
	}
	if len(cfg.DefaultPackages) == 0 {
		return cfg, invalid("default_packages", "must list at least one package")
	}
	for _, list := range []struct {
		key  string
		pkgs []string
	}{{"default_packages", cfg.DefaultPackages}, {"extra_packages", cfg.ExtraPackages}} {
		for _, p := range list.pkgs {
			if p == "" || containsWhitespace(p) {
				return cfg, invalid(list.key, "package "+quote(p)+" must be a single requirement with no spaces")
			}
		}
	}
	if !envKeyPattern.MatchString(cfg.SecretKey) {
		return cfg, invalid("secret_key", "must be a valid environment variable name")
	}
	if u, err := url.Parse(cfg.LicenseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, invalid("license_url", "must be an http(s) URL")
	}
	if cfg.LicenseID == "" || containsWhitespace(cfg.LicenseID) {
		return cfg, invalid("license_id", "must be an SPDX identifier such as MIT")
	}
	if cfg.Model == "" {
		return cfg, invalid("model", "must not be empty")
	}
	if !outputFormats[cfg.OutputFormat] {
		return cfg, invalid("output_format", "must be one of text, json, stream-json")
	}
	if cfg.CommandTimeout < 0 {
		return cfg, invalid("command_timeout", "must not be negative")
	}
	if cfg.FetchTimeout < 0 {
		return cfg, invalid("fetch_timeout", "must not be negative")
	}

	cfg.DefaultPackages = dedupe(cfg.DefaultPackages)
	cfg.ExtraPackages = dedupe(cfg.ExtraPackages)
	return cfg, nil
}

// Packages returns default packages followed by extra packages, each
// package once, in first-seen order.
func (c Config) Packages() []string {
	return dedupe(append(append([]string{}, c.DefaultPackages...), c.ExtraPackages...))
}

func validateEnvironmentName(name string) error {
	switch {
	case name == "":
		return invalid("environment_name", "must not be empty")
	case filepath.IsAbs(name) || strings.ContainsAny(name, `/\`):
		return invalid("environment_name", "must be a single directory name inside the workspace")
	case name == "." || name == "..":
		return invalid("environment_name", "must not be . or ..")
	}
	return nil
}

func invalid(key, msg string) error {
	return errors.NewWithDetails(errors.EInvalidConfig, key+": "+msg, map[string]string{"key": key})
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		k := strings.ToLower(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

func containsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

func quote(s string) string {
	return "\"" + s + "\""
}
