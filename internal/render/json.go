// Package render provides machine-readable output formats for gemkit commands.
package render

import (
	"encoding/json"
	"io"
)

// SchemaVersion is the version of every JSON envelope gemkit prints.
const SchemaVersion = "1.0"

// ToolsJSON holds tool versions; null when the tool is missing.
type ToolsJSON struct {
	Node   *string `json:"node"`
	NPM    *string `json:"npm"`
	CLI    *string `json:"cli"`
	Python *string `json:"python"`
}

// ManifestJSON summarizes requirements.yaml.
type ManifestJSON struct {
	// Packages is the number of entries in the manifest.
	Packages int `json:"packages"`

	// Versions maps each configured package found in the manifest to its
	// pinned version.
	Versions map[string]string `json:"versions"`

	// Missing lists configured packages the manifest does not contain.
	Missing []string `json:"missing"`
}

// SecretJSON describes the tracked key in .env. The value is never printed.
type SecretJSON struct {
	Key   string `json:"key"`
	State string `json:"state"` // missing, placeholder or set

	// Verified is null unless --verify-key was given.
	Verified *bool `json:"verified"`
}

// ProblemJSON is one failed check.
type ProblemJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DoctorJSON is the public contract for doctor --json output.
type DoctorJSON struct {
	Workspace   string          `json:"workspace"`
	ConfigFile  string          `json:"config_file"`
	CacheDir    string          `json:"cache_dir"`
	Tools       ToolsJSON       `json:"tools"`
	Environment *string         `json:"environment"` // null when missing
	Manifest    ManifestJSON    `json:"manifest"`
	Files       map[string]bool `json:"files"`
	Secret      SecretJSON      `json:"secret"`
	Problems    []ProblemJSON   `json:"problems"`
	OK          bool            `json:"ok"`
}

// DoctorJSONEnvelope is the stable JSON output format for doctor --json.
type DoctorJSONEnvelope struct {
	SchemaVersion string      `json:"schema_version"`
	Data          *DoctorJSON `json:"data"`
}

// WriteDoctorJSON writes the doctor report as JSON to the given writer.
func WriteDoctorJSON(w io.Writer, report *DoctorJSON) error {
	// Use empty slices if nil for valid JSON array output
	if report.Problems == nil {
		report.Problems = []ProblemJSON{}
	}
	if report.Manifest.Versions == nil {
		report.Manifest.Versions = map[string]string{}
	}
	if report.Manifest.Missing == nil {
		report.Manifest.Missing = []string{}
	}
	env := DoctorJSONEnvelope{
		SchemaVersion: SchemaVersion,
		Data:          report,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// NullableString returns nil for "".
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
